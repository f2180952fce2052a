package user

import (
	"context"
	"time"
)

// SetVerificationCodeParams represents parameters for persisting a freshly
// issued verification code. Issuing always resets the attempt counter.
type SetVerificationCodeParams struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// UserRepository defines the storage operations the verification workflow
// needs from the user store. Trusted devices are replaced as a whole array:
// the caller performs an in-memory list transform followed by a full
// overwrite, no partial update primitive is required.
type UserRepository interface {
	CreateUser(ctx context.Context, u User) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)

	// Verification field operations
	SetVerificationCode(ctx context.Context, params SetVerificationCodeParams) error
	UpdateVerificationAttempts(ctx context.Context, email string, attempts int) error
	ClearVerificationCode(ctx context.Context, email string) error

	// Device trust operations
	ReplaceTrustedDevices(ctx context.Context, email string, devices []TrustedDevice) error
}
