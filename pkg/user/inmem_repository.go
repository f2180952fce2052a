package user

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemUserRepository implements UserRepository using an in-memory map.
// Useful for tests and the cmd/inmem demo binary; all data is lost when the
// process stops.
type InMemUserRepository struct {
	users map[string]User // keyed by normalized email
	mu    sync.Mutex
}

// NewInMemUserRepository creates a new in-memory user repository
func NewInMemUserRepository() *InMemUserRepository {
	return &InMemUserRepository{
		users: make(map[string]User),
	}
}

// CreateUser creates a new user in memory
func (r *InMemUserRepository) CreateUser(ctx context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := NormalizeEmail(u.Email)
	if _, exists := r.users[key]; exists {
		return User{}, ErrUserExists
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	u.Email = key
	u.TrustedDevices = copyDevices(u.TrustedDevices)

	r.users[key] = u
	slog.Debug("User created", "email", key)
	return u, nil
}

// FindUserByEmail retrieves a user by email
func (r *InMemUserRepository) FindUserByEmail(ctx context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.users[NormalizeEmail(email)]
	if !exists {
		return User{}, ErrUserNotFound
	}

	u.TrustedDevices = copyDevices(u.TrustedDevices)
	return u, nil
}

// SetVerificationCode persists a new code and expiry, resetting the attempt
// counter. A prior outstanding code is overwritten unconditionally: last
// write wins.
func (r *InMemUserRepository) SetVerificationCode(ctx context.Context, params SetVerificationCodeParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := NormalizeEmail(params.Email)
	u, exists := r.users[key]
	if !exists {
		return ErrUserNotFound
	}

	u.VerificationCode = params.Code
	u.CodeValid = true
	u.VerificationCodeExpiry = params.ExpiresAt
	u.CodeExpiryValid = true
	u.VerificationAttempts = 0
	u.UpdatedAt = time.Now().UTC()

	r.users[key] = u
	return nil
}

// UpdateVerificationAttempts sets the failed-attempt counter
func (r *InMemUserRepository) UpdateVerificationAttempts(ctx context.Context, email string, attempts int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := NormalizeEmail(email)
	u, exists := r.users[key]
	if !exists {
		return ErrUserNotFound
	}

	u.VerificationAttempts = attempts
	u.UpdatedAt = time.Now().UTC()

	r.users[key] = u
	return nil
}

// ClearVerificationCode nulls the code and expiry and resets attempts
func (r *InMemUserRepository) ClearVerificationCode(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := NormalizeEmail(email)
	u, exists := r.users[key]
	if !exists {
		return ErrUserNotFound
	}

	u.VerificationCode = ""
	u.CodeValid = false
	u.VerificationCodeExpiry = time.Time{}
	u.CodeExpiryValid = false
	u.VerificationAttempts = 0
	u.UpdatedAt = time.Now().UTC()

	r.users[key] = u
	return nil
}

// ReplaceTrustedDevices overwrites the whole trusted-device list
func (r *InMemUserRepository) ReplaceTrustedDevices(ctx context.Context, email string, devices []TrustedDevice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := NormalizeEmail(email)
	u, exists := r.users[key]
	if !exists {
		return ErrUserNotFound
	}

	u.TrustedDevices = copyDevices(devices)
	u.UpdatedAt = time.Now().UTC()

	r.users[key] = u
	return nil
}

func copyDevices(devices []TrustedDevice) []TrustedDevice {
	if devices == nil {
		return nil
	}
	out := make([]TrustedDevice, len(devices))
	copy(out, devices)
	return out
}
