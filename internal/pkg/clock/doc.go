// Package clock provides a tiny time abstraction.
//
// Code that cares about time (OTP windows, policy timestamps) should depend on
// the Clocker interface instead of calling time.Now() directly, so tests can
// pin the clock to a deterministic instant.
package clock
