package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemUserRepository_CreateAndFind(t *testing.T) {
	repo := NewInMemUserRepository()
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, User{Email: "Jane@Example.com"})
	require.NoError(t, err)
	assert.NotEqual(t, "", created.ID.String())
	assert.Equal(t, "jane@example.com", created.Email)

	// Lookup is case-insensitive
	found, err := repo.FindUserByEmail(ctx, "JANE@example.COM")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	// Duplicate email rejected
	_, err = repo.CreateUser(ctx, User{Email: "jane@example.com"})
	assert.ErrorIs(t, err, ErrUserExists)

	// Unknown email
	_, err = repo.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestInMemUserRepository_SetVerificationCodeResetsAttempts(t *testing.T) {
	repo := NewInMemUserRepository()
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, User{Email: "jane@example.com"})
	require.NoError(t, err)

	err = repo.UpdateVerificationAttempts(ctx, "jane@example.com", 4)
	require.NoError(t, err)

	expiry := time.Now().UTC().Add(5 * time.Minute)
	err = repo.SetVerificationCode(ctx, SetVerificationCodeParams{
		Email:     "jane@example.com",
		Code:      "123456",
		ExpiresAt: expiry,
	})
	require.NoError(t, err)

	u, err := repo.FindUserByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.True(t, u.HasVerificationCode())
	assert.Equal(t, "123456", u.VerificationCode)
	assert.True(t, u.CodeExpiryValid)
	assert.Equal(t, expiry, u.VerificationCodeExpiry)
	assert.Equal(t, 0, u.VerificationAttempts)
}

func TestInMemUserRepository_ClearVerificationCode(t *testing.T) {
	repo := NewInMemUserRepository()
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, User{Email: "jane@example.com"})
	require.NoError(t, err)

	err = repo.SetVerificationCode(ctx, SetVerificationCodeParams{
		Email:     "jane@example.com",
		Code:      "654321",
		ExpiresAt: time.Now().UTC().Add(5 * time.Minute),
	})
	require.NoError(t, err)

	err = repo.ClearVerificationCode(ctx, "jane@example.com")
	require.NoError(t, err)

	u, err := repo.FindUserByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.False(t, u.HasVerificationCode())
	assert.False(t, u.CodeExpiryValid)
	assert.Equal(t, 0, u.VerificationAttempts)
}

func TestInMemUserRepository_ReplaceTrustedDevices(t *testing.T) {
	repo := NewInMemUserRepository()
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, User{Email: "jane@example.com"})
	require.NoError(t, err)

	now := time.Now().UTC()
	devices := []TrustedDevice{{
		DeviceID:  "fp-1",
		UserAgent: "test-agent",
		IPAddress: "203.0.113.7",
		TrustedAt: now,
		LastUsed:  now,
	}}
	err = repo.ReplaceTrustedDevices(ctx, "jane@example.com", devices)
	require.NoError(t, err)

	u, err := repo.FindUserByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.Len(t, u.TrustedDevices, 1)
	assert.Equal(t, "fp-1", u.TrustedDevices[0].DeviceID)

	// The returned slice is a copy; mutating it must not affect the store
	u.TrustedDevices[0].DeviceID = "mutated"
	again, err := repo.FindUserByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "fp-1", again.TrustedDevices[0].DeviceID)
}

func TestUser_FindTrustedDevice(t *testing.T) {
	u := User{TrustedDevices: []TrustedDevice{
		{DeviceID: "fp-1"},
		{DeviceID: "fp-2"},
	}}

	d, ok := u.FindTrustedDevice("fp-2")
	assert.True(t, ok)
	assert.Equal(t, "fp-2", d.DeviceID)

	_, ok = u.FindTrustedDevice("fp-3")
	assert.False(t, ok)

	// Absent list is treated as an empty list
	empty := User{}
	_, ok = empty.FindTrustedDevice("fp-1")
	assert.False(t, ok)
}
