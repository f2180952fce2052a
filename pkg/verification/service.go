package verification

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/nexrate/nexrate-verify/pkg/device"
	"github.com/nexrate/nexrate-verify/pkg/notification"
	"github.com/nexrate/nexrate-verify/pkg/user"
)

// VerificationService implements the device-trust verification workflow:
// trust checking, code issuance, and attempt-limited code verification.
//
// Verification fields are updated last-write-wins: two concurrent issues for
// the same user both succeed and the second write silently invalidates the
// first code. Verifying with the discarded code fails as an invalid code.
type VerificationService struct {
	userRepo            user.UserRepository
	notificationManager *notification.NotificationManager
	codeExpiry          time.Duration
	maxAttempts         int
	resendLimit         int
	resendWindow        time.Duration

	mu       sync.Mutex
	issueLog map[string][]time.Time // per-email issue times, only kept when resendLimit > 0
}

// NewVerificationService creates a new verification service
func NewVerificationService(
	userRepo user.UserRepository,
	notificationManager *notification.NotificationManager,
	opts ...VerificationServiceOption,
) *VerificationService {
	service := &VerificationService{
		userRepo:            userRepo,
		notificationManager: notificationManager,
		codeExpiry:          DefaultCodeExpiry,
		maxAttempts:         DefaultMaxAttempts,
		issueLog:            make(map[string][]time.Time),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// CheckDeviceResult reports the outcome of a device-trust check.
type CheckDeviceResult struct {
	NeedsVerification bool
	DeviceID          string
}

// VerifyResult reports the outcome of a successful code verification.
type VerifyResult struct {
	DeviceTrusted bool
}

// CheckDevice fingerprints the request metadata and checks it against the
// user's trusted devices. A recognized device gets its last-used timestamp
// refreshed; an unrecognized one triggers a code issuance.
func (s *VerificationService) CheckDevice(ctx context.Context, email string, data device.FingerprintData) (CheckDeviceResult, error) {
	u, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil {
		return CheckDeviceResult{}, err
	}

	deviceID := device.Fingerprint(data.UserAgent, data.IPAddress)

	if _, ok := u.FindTrustedDevice(deviceID); ok {
		slog.Info("Device recognized", "email", u.Email, "deviceId", deviceID)
		now := time.Now().UTC()
		devices := make([]user.TrustedDevice, len(u.TrustedDevices))
		copy(devices, u.TrustedDevices)
		for i := range devices {
			if devices[i].DeviceID == deviceID {
				devices[i].LastUsed = now
			}
		}
		if err := s.userRepo.ReplaceTrustedDevices(ctx, u.Email, devices); err != nil {
			return CheckDeviceResult{}, fmt.Errorf("failed to refresh device last used: %w", err)
		}
		return CheckDeviceResult{NeedsVerification: false, DeviceID: deviceID}, nil
	}

	slog.Info("Device not recognized, issuing verification code", "email", u.Email, "deviceId", deviceID)
	if err := s.IssueCode(ctx, u); err != nil {
		return CheckDeviceResult{NeedsVerification: true, DeviceID: deviceID}, err
	}

	return CheckDeviceResult{NeedsVerification: true, DeviceID: deviceID}, nil
}

// IssueCode generates a fresh code, persists it with its expiry (resetting
// the attempt counter), and dispatches it by email. A prior outstanding code
// is always overwritten. Email failure does not invalidate the persisted
// code; it surfaces as ErrDeliveryFailed so the caller can request a resend.
func (s *VerificationService) IssueCode(ctx context.Context, u user.User) error {
	if s.resendLimit > 0 && !s.allowIssue(u.Email) {
		slog.Warn("Issue rate limit exceeded", "email", u.Email, "limit", s.resendLimit)
		return ErrIssueRateLimited
	}

	code, err := GenerateCode()
	if err != nil {
		return err
	}
	expiresAt := time.Now().UTC().Add(s.codeExpiry)

	err = s.userRepo.SetVerificationCode(ctx, user.SetVerificationCodeParams{
		Email:     u.Email,
		Code:      code,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to persist verification code: %w", err)
	}

	expiryMinutes := strconv.Itoa(int(s.codeExpiry / time.Minute))
	err = s.notificationManager.Send(notification.VerificationCodeNotice, notification.EmailSystem, notification.NotificationData{
		To: u.Email,
		Data: map[string]string{
			"Code":          code,
			"ExpiryMinutes": expiryMinutes,
		},
	})
	if err != nil {
		// The persisted code stays valid even though the email bounced
		slog.Error("Failed to send verification code email", "email", u.Email, "error", err)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	slog.Info("Verification code issued", "email", u.Email, "expiresAt", expiresAt)
	return nil
}

// VerifyCode validates a submitted code against the stored code, expiry, and
// attempt counter. Check order is fixed: code existence, expiry, lockout,
// equality. On success the code is cleared, attempts reset, and the device
// optionally appended to (or refreshed in) the trusted list.
func (s *VerificationService) VerifyCode(ctx context.Context, email, submittedCode string, trustDevice bool, data device.FingerprintData) (VerifyResult, error) {
	u, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil {
		return VerifyResult{}, err
	}

	if !u.HasVerificationCode() {
		return VerifyResult{}, ErrNoCodeFound
	}

	// Code is invalid at or after the expiry instant. An expired code is
	// not cleared here; only the next issuance overwrites it.
	if !u.CodeExpiryValid || !time.Now().UTC().Before(u.VerificationCodeExpiry) {
		slog.Warn("Verification code expired", "email", u.Email, "expiry", u.VerificationCodeExpiry)
		return VerifyResult{}, ErrCodeExpired
	}

	// Lockout takes precedence over equality: a locked user cannot succeed
	// even with the correct code until a new one is issued.
	if u.VerificationAttempts >= s.maxAttempts {
		slog.Warn("Verification locked out", "email", u.Email, "attempts", u.VerificationAttempts)
		return VerifyResult{}, ErrTooManyAttempts
	}

	if submittedCode != u.VerificationCode {
		attempts := u.VerificationAttempts + 1
		if err := s.userRepo.UpdateVerificationAttempts(ctx, u.Email, attempts); err != nil {
			return VerifyResult{}, fmt.Errorf("failed to record failed attempt: %w", err)
		}
		remaining := s.maxAttempts - attempts
		slog.Info("Invalid verification code", "email", u.Email, "attemptsRemaining", remaining)
		return VerifyResult{}, &InvalidCodeError{AttemptsRemaining: remaining}
	}

	if err := s.userRepo.ClearVerificationCode(ctx, u.Email); err != nil {
		return VerifyResult{}, fmt.Errorf("failed to clear verification code: %w", err)
	}

	result := VerifyResult{}
	if trustDevice {
		if err := s.trustDevice(ctx, u, data); err != nil {
			return VerifyResult{}, err
		}
		result.DeviceTrusted = true
	}

	slog.Info("Verification successful", "email", u.Email, "deviceTrusted", result.DeviceTrusted)
	return result, nil
}

// trustDevice performs the read-modify-write of the whole trusted-device
// list: refresh last-used if the device is already present, append otherwise.
// The list never holds two records with the same device ID.
func (s *VerificationService) trustDevice(ctx context.Context, u user.User, data device.FingerprintData) error {
	deviceID := device.Fingerprint(data.UserAgent, data.IPAddress)
	now := time.Now().UTC()

	devices := make([]user.TrustedDevice, len(u.TrustedDevices))
	copy(devices, u.TrustedDevices)

	found := false
	for i := range devices {
		if devices[i].DeviceID == deviceID {
			devices[i].LastUsed = now
			found = true
			break
		}
	}
	if !found {
		devices = append(devices, user.TrustedDevice{
			DeviceID:  deviceID,
			UserAgent: data.UserAgent,
			IPAddress: data.IPAddress,
			TrustedAt: now,
			LastUsed:  now,
		})
	}

	if err := s.userRepo.ReplaceTrustedDevices(ctx, u.Email, devices); err != nil {
		return fmt.Errorf("failed to persist trusted device: %w", err)
	}

	slog.Info("Device trusted", "email", u.Email, "deviceId", deviceID, "new", !found)
	return nil
}

// allowIssue records an issuance for the email and reports whether it is
// within the resend window. The log is in-process only.
func (s *VerificationService) allowIssue(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	cutoff := now.Add(-s.resendWindow)

	recent := s.issueLog[email][:0]
	for _, t := range s.issueLog[email] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= s.resendLimit {
		s.issueLog[email] = recent
		return false
	}

	s.issueLog[email] = append(recent, now)
	return true
}
