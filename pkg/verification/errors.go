package verification

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCodeFound is returned when verification is attempted with no outstanding code
	ErrNoCodeFound = errors.New("no verification code found")

	// ErrCodeExpired is returned when the outstanding code's expiry has passed
	ErrCodeExpired = errors.New("verification code has expired")

	// ErrTooManyAttempts is returned when the attempt counter has reached the lockout bound
	ErrTooManyAttempts = errors.New("too many failed attempts")

	// ErrDeliveryFailed is returned when a code was persisted but the email
	// could not be sent. The code remains valid; the caller should offer a
	// resend.
	ErrDeliveryFailed = errors.New("failed to deliver verification code")

	// ErrIssueRateLimited is returned when the per-email resend window is exhausted
	ErrIssueRateLimited = errors.New("too many verification codes requested")
)

// InvalidCodeError is returned on a code mismatch while attempts remain.
type InvalidCodeError struct {
	AttemptsRemaining int
}

func (e *InvalidCodeError) Error() string {
	if e.AttemptsRemaining == 1 {
		return fmt.Sprintf("invalid code, %d attempt remaining", e.AttemptsRemaining)
	}
	return fmt.Sprintf("invalid code, %d attempts remaining", e.AttemptsRemaining)
}
