package otp

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	pq "github.com/pquerna/otp"
)

// RFC 6238 appendix B secret, base32 of "12345678901234567890".
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestEngineVerifyRFCVectors(t *testing.T) {
	// Arrange
	e := NewEngine("CuriousPay", 30, 0, pq.DigitsEight)

	cases := []struct {
		unix int64
		code string
	}{
		{59, "94287082"},
		{1111111109, "07081804"},
		{1111111111, "14050471"},
		{1234567890, "89005924"},
	}

	for _, tc := range cases {
		// Act
		step, err := e.Verify(rfcSecret, tc.code, time.Unix(tc.unix, 0), 0)

		// Assert
		if err != nil {
			t.Fatalf("Verify(%d) error: %v", tc.unix, err)
		}
		if want := tc.unix / 30; step != want {
			t.Fatalf("Verify(%d) step = %d, want %d", tc.unix, step, want)
		}
	}
}

func TestEngineVerifySkewWindow(t *testing.T) {
	e := NewEngine("CuriousPay", 30, 1, pq.DigitsSix)
	now := time.Unix(1700000015, 0)
	current := e.Step(now)

	for _, d := range []int64{-1, 0, 1} {
		code, err := e.CodeAt(rfcSecret, current+d)
		if err != nil {
			t.Fatalf("CodeAt error: %v", err)
		}

		step, err := e.Verify(rfcSecret, code, now, 0)
		if err != nil {
			t.Fatalf("Verify at offset %d error: %v", d, err)
		}
		if step != current+d {
			t.Fatalf("Verify at offset %d step = %d, want %d", d, step, current+d)
		}
	}

	for _, d := range []int64{-2, 2} {
		code, err := e.CodeAt(rfcSecret, current+d)
		if err != nil {
			t.Fatalf("CodeAt error: %v", err)
		}

		if _, err := e.Verify(rfcSecret, code, now, 0); !errors.Is(err, ErrCodeInvalid) {
			t.Fatalf("Verify at offset %d error = %v, want ErrCodeInvalid", d, err)
		}
	}
}

func TestEngineVerifyRejectsGarbage(t *testing.T) {
	e := NewEngine("CuriousPay", 30, 1, pq.DigitsSix)
	now := time.Unix(1700000015, 0)

	for _, code := range []string{"", "000000", "12345", "1234567", "abcdef"} {
		if _, err := e.Verify(rfcSecret, code, now, 0); !errors.Is(err, ErrCodeInvalid) {
			t.Fatalf("Verify(%q) error = %v, want ErrCodeInvalid", code, err)
		}
	}
}

func TestEngineVerifyReplay(t *testing.T) {
	e := NewEngine("CuriousPay", 30, 1, pq.DigitsSix)
	now := time.Unix(1700000015, 0)

	code, err := e.CodeAt(rfcSecret, e.Step(now))
	if err != nil {
		t.Fatalf("CodeAt error: %v", err)
	}

	step, err := e.Verify(rfcSecret, code, now, 0)
	if err != nil {
		t.Fatalf("first Verify error: %v", err)
	}

	// same code again with the cursor advanced
	if _, err := e.Verify(rfcSecret, code, now, step); !errors.Is(err, ErrCodeReplayed) {
		t.Fatalf("second Verify error = %v, want ErrCodeReplayed", err)
	}

	// a later step is still accepted past the cursor
	next, err := e.CodeAt(rfcSecret, step+1)
	if err != nil {
		t.Fatalf("CodeAt error: %v", err)
	}
	if _, err := e.Verify(rfcSecret, next, now.Add(30*time.Second), step); err != nil {
		t.Fatalf("Verify next step error: %v", err)
	}
}

func TestEngineGenerate(t *testing.T) {
	e := NewEngine("CuriousPay", 30, 1, pq.DigitsSix)

	secret, uri, err := e.Generate("merchant@example.com")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if secret == "" {
		t.Fatal("Generate returned empty secret")
	}
	if !strings.Contains(uri, "otpauth://totp/") {
		t.Fatalf("Generate uri = %q, want otpauth scheme", uri)
	}

	other, _, err := e.Generate("merchant@example.com")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if other == secret {
		t.Fatal("two Generate calls for the same account produced the same secret")
	}
}

func TestCursorAdvance(t *testing.T) {
	c := NewCursor(10)

	if c.Advance(10) {
		t.Fatal("Advance(10) moved a cursor already at 10")
	}
	if c.Advance(5) {
		t.Fatal("Advance(5) moved the cursor backward")
	}
	if !c.Advance(11) {
		t.Fatal("Advance(11) did not move the cursor")
	}
	if got := c.Load(); got != 11 {
		t.Fatalf("Load() = %d, want 11", got)
	}
}

func TestCursorAdvanceConcurrent(t *testing.T) {
	c := NewCursor(0)

	var wg sync.WaitGroup
	wins := make(chan struct{}, 64)
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Advance(7) {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	var n int
	for range wins {
		n++
	}
	if n != 1 {
		t.Fatalf("Advance(7) won %d times, want exactly 1", n)
	}
	if got := c.Load(); got != 7 {
		t.Fatalf("Load() = %d, want 7", got)
	}
}
