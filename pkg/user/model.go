package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TrustedDevice is a device trust record embedded in a user. DeviceID is the
// lookup key within one user's list; it is not globally unique across users.
type TrustedDevice struct {
	DeviceID  string    `json:"device_id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	TrustedAt time.Time `json:"trusted_at"`
	LastUsed  time.Time `json:"last_used"`
}

// User is the store record the verification workflow reads and mutates.
// VerificationCode and VerificationCodeExpiry are nullable; the *Valid flags
// carry the null state across repository implementations.
type User struct {
	ID                     uuid.UUID       `json:"id"`
	Email                  string          `json:"email"`
	VerificationCode       string          `json:"verification_code,omitempty"`
	CodeValid              bool            `json:"code_valid"`
	VerificationCodeExpiry time.Time       `json:"verification_code_expiry,omitempty"`
	CodeExpiryValid        bool            `json:"code_expiry_valid"`
	VerificationAttempts   int             `json:"verification_attempts"`
	TrustedDevices         []TrustedDevice `json:"trusted_devices"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// HasVerificationCode reports whether a code is outstanding.
func (u *User) HasVerificationCode() bool {
	return u.CodeValid && u.VerificationCode != ""
}

// FindTrustedDevice scans the trusted-device list for a device ID.
func (u *User) FindTrustedDevice(deviceID string) (TrustedDevice, bool) {
	for _, d := range u.TrustedDevices {
		if d.DeviceID == deviceID {
			return d, true
		}
	}
	return TrustedDevice{}, false
}

// NormalizeEmail lowercases and trims an email so lookups are
// case-insensitive across repository implementations.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
