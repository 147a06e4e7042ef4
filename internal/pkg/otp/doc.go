// Package otp implements time-based one-time passwords per RFC 4226 and
// RFC 6238: 30-second steps, HMAC-SHA1, and a small clock-skew window.
//
// Verification is replay-aware. Every accepted code advances a per-user
// cursor holding the highest accepted time step, and codes at or below the
// cursor are rejected even when their digits are correct. Code comparison is
// constant time and every candidate step in the window is evaluated before a
// verdict is produced.
package otp
