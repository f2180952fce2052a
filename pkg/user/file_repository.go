package user

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileUserRepository implements UserRepository using file-based storage.
// The whole user set is held in memory and flushed to users.json on every
// mutation, mirroring the in-memory repository's semantics.
type FileUserRepository struct {
	dataDir string
	users   map[string]User // keyed by normalized email
	mutex   sync.RWMutex
}

// NewFileUserRepository creates a new file-based user repository
func NewFileUserRepository(dataDir string) (*FileUserRepository, error) {
	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileUserRepository{
		dataDir: dataDir,
		users:   make(map[string]User),
	}

	// Load existing data
	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// CreateUser creates a new user record
func (r *FileUserRepository) CreateUser(ctx context.Context, u User) (User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

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

	r.users[key] = u

	if err := r.save(); err != nil {
		// Rollback
		delete(r.users, key)
		return User{}, fmt.Errorf("failed to save: %w", err)
	}

	return u, nil
}

// FindUserByEmail retrieves a user by email
func (r *FileUserRepository) FindUserByEmail(ctx context.Context, email string) (User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	u, exists := r.users[NormalizeEmail(email)]
	if !exists {
		return User{}, ErrUserNotFound
	}

	u.TrustedDevices = copyDevices(u.TrustedDevices)
	return u, nil
}

// SetVerificationCode persists a new code and expiry and resets attempts
func (r *FileUserRepository) SetVerificationCode(ctx context.Context, params SetVerificationCodeParams) error {
	return r.update(params.Email, func(u *User) {
		u.VerificationCode = params.Code
		u.CodeValid = true
		u.VerificationCodeExpiry = params.ExpiresAt
		u.CodeExpiryValid = true
		u.VerificationAttempts = 0
	})
}

// UpdateVerificationAttempts sets the failed-attempt counter
func (r *FileUserRepository) UpdateVerificationAttempts(ctx context.Context, email string, attempts int) error {
	return r.update(email, func(u *User) {
		u.VerificationAttempts = attempts
	})
}

// ClearVerificationCode nulls the code and expiry and resets attempts
func (r *FileUserRepository) ClearVerificationCode(ctx context.Context, email string) error {
	return r.update(email, func(u *User) {
		u.VerificationCode = ""
		u.CodeValid = false
		u.VerificationCodeExpiry = time.Time{}
		u.CodeExpiryValid = false
		u.VerificationAttempts = 0
	})
}

// ReplaceTrustedDevices overwrites the whole trusted-device list
func (r *FileUserRepository) ReplaceTrustedDevices(ctx context.Context, email string, devices []TrustedDevice) error {
	return r.update(email, func(u *User) {
		u.TrustedDevices = copyDevices(devices)
	})
}

func (r *FileUserRepository) update(email string, mutate func(*User)) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := NormalizeEmail(email)
	u, exists := r.users[key]
	if !exists {
		return ErrUserNotFound
	}

	prev := u
	mutate(&u)
	u.UpdatedAt = time.Now().UTC()
	r.users[key] = u

	if err := r.save(); err != nil {
		// Rollback
		r.users[key] = prev
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

func (r *FileUserRepository) usersFile() string {
	return filepath.Join(r.dataDir, "users.json")
}

func (r *FileUserRepository) load() error {
	data, err := os.ReadFile(r.usersFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Nothing persisted yet
		}
		return err
	}

	return json.Unmarshal(data, &r.users)
}

func (r *FileUserRepository) save() error {
	data, err := json.MarshalIndent(r.users, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(r.usersFile(), data, 0644)
}
