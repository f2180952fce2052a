package verification

import "time"

const (
	// DefaultCodeExpiry is how long an issued code stays valid.
	DefaultCodeExpiry = 5 * time.Minute

	// DefaultMaxAttempts is the failed-attempt lockout bound.
	DefaultMaxAttempts = 5
)

// VerificationServiceOption defines configuration options
type VerificationServiceOption func(*VerificationService)

// WithCodeExpiry sets the code expiration duration
func WithCodeExpiry(expiry time.Duration) VerificationServiceOption {
	return func(s *VerificationService) {
		s.codeExpiry = expiry
	}
}

// WithMaxAttempts sets the failed-attempt lockout bound
func WithMaxAttempts(max int) VerificationServiceOption {
	return func(s *VerificationService) {
		s.maxAttempts = max
	}
}

// WithResendLimit caps how many codes may be issued per email within the
// window. A limit of 0 disables the cap (the default).
func WithResendLimit(limit int, window time.Duration) VerificationServiceOption {
	return func(s *VerificationService) {
		s.resendLimit = limit
		s.resendWindow = window
	}
}
