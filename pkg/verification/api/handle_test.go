package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nexrate/nexrate-verify/pkg/notification"
	"github.com/nexrate/nexrate-verify/pkg/user"
	"github.com/nexrate/nexrate-verify/pkg/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail     = "jane@example.com"
	testUserAgent = "test-agent"
	testIP        = "203.0.113.7"
)

func setupHandler(t *testing.T) (*chi.Mux, *user.InMemUserRepository, *notification.MockNotifier) {
	repo := user.NewInMemUserRepository()

	mock := &notification.MockNotifier{}
	nm := notification.NewNotificationManager()
	nm.RegisterNotifier(notification.EmailSystem, mock)
	err := nm.RegisterNotification(notification.VerificationCodeNotice, notification.EmailSystem, notification.NoticeTemplate{
		Subject: "Your verification code",
		Text:    "Your code is {{.Code}}",
	})
	require.NoError(t, err)

	service := verification.NewVerificationService(repo, nm)
	handler := NewVerificationHandler(service)

	r := chi.NewRouter()
	handler.Routes(r)

	_, err = repo.CreateUser(context.Background(), user.User{Email: testEmail})
	require.NoError(t, err)

	return r, repo, mock
}

func doJSON(t *testing.T, r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", testUserAgent)
	req.Header.Set("X-Forwarded-For", testIP)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func sentCode(t *testing.T, mock *notification.MockNotifier) string {
	require.NotEmpty(t, mock.SentNotifications)
	return mock.SentNotifications[len(mock.SentNotifications)-1].Data["Code"]
}

func TestCheckDevice_ValidationErrors(t *testing.T) {
	r, _, _ := setupHandler(t)

	w := doJSON(t, r, "/device/check", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Valid email is required", decodeBody(t, w)["error"])

	w = doJSON(t, r, "/device/check", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Valid email is required", decodeBody(t, w)["error"])
}

func TestCheckDevice_UnknownEmail(t *testing.T) {
	r, _, _ := setupHandler(t)

	w := doJSON(t, r, "/device/check", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No account found with this email", decodeBody(t, w)["error"])
}

func TestCheckDevice_NewDevice(t *testing.T) {
	r, repo, mock := setupHandler(t)

	w := doJSON(t, r, "/device/check", map[string]string{"email": testEmail})
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["needsVerification"])
	assert.Equal(t, "Verification code sent to your email", body["message"])

	// A code was persisted and sent
	require.Len(t, mock.SentNotifications, 1)
	u, err := repo.FindUserByEmail(context.Background(), testEmail)
	require.NoError(t, err)
	assert.True(t, u.HasVerificationCode())
}

func TestCheckDevice_TrustedDevice(t *testing.T) {
	r, _, mock := setupHandler(t)

	// Trust the device through the real flow: check, then verify with trust
	w := doJSON(t, r, "/device/check", map[string]string{"email": testEmail})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "/verify/code", map[string]interface{}{
		"email":       testEmail,
		"code":        sentCode(t, mock),
		"trustDevice": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Same device checks in again: recognized, no new code
	sentBefore := len(mock.SentNotifications)
	w = doJSON(t, r, "/device/check", map[string]string{"email": testEmail})
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["needsVerification"])
	assert.Equal(t, "Device recognized", body["message"])
	assert.Len(t, mock.SentNotifications, sentBefore)
}

func TestVerifyCode_ValidationErrors(t *testing.T) {
	r, _, _ := setupHandler(t)

	w := doJSON(t, r, "/verify/code", map[string]interface{}{"code": "123456"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Valid email is required", decodeBody(t, w)["error"])

	w = doJSON(t, r, "/verify/code", map[string]interface{}{"email": testEmail, "code": "12345"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Valid 6-digit code is required", decodeBody(t, w)["error"])

	w = doJSON(t, r, "/verify/code", map[string]interface{}{"email": testEmail, "code": "12345a"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Valid 6-digit code is required", decodeBody(t, w)["error"])
}

func TestVerifyCode_NoCodeOutstanding(t *testing.T) {
	r, _, _ := setupHandler(t)

	w := doJSON(t, r, "/verify/code", map[string]interface{}{"email": testEmail, "code": "123456"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No verification code found. Please request a new code.", decodeBody(t, w)["error"])
}

func TestVerifyCode_UnknownEmail(t *testing.T) {
	r, _, _ := setupHandler(t)

	w := doJSON(t, r, "/verify/code", map[string]interface{}{"email": "nobody@example.com", "code": "123456"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No account found with this email", decodeBody(t, w)["error"])
}

func TestVerifyCode_Success(t *testing.T) {
	r, repo, mock := setupHandler(t)

	w := doJSON(t, r, "/device/check", map[string]string{"email": testEmail})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "/verify/code", map[string]interface{}{
		"email":       testEmail,
		"code":        sentCode(t, mock),
		"trustDevice": false,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Verification successful", body["message"])
	assert.Equal(t, false, body["deviceTrusted"])

	u, err := repo.FindUserByEmail(context.Background(), testEmail)
	require.NoError(t, err)
	assert.False(t, u.HasVerificationCode())
	assert.Empty(t, u.TrustedDevices)
}

func TestVerifyCode_SuccessWithTrust(t *testing.T) {
	r, repo, mock := setupHandler(t)

	w := doJSON(t, r, "/device/check", map[string]string{"email": testEmail})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "/verify/code", map[string]interface{}{
		"email":       testEmail,
		"code":        sentCode(t, mock),
		"trustDevice": true,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["deviceTrusted"])

	u, err := repo.FindUserByEmail(context.Background(), testEmail)
	require.NoError(t, err)
	assert.Len(t, u.TrustedDevices, 1)
}

func TestVerifyCode_WrongCodeThenLockout(t *testing.T) {
	r, _, mock := setupHandler(t)

	w := doJSON(t, r, "/device/check", map[string]string{"email": testEmail})
	require.Equal(t, http.StatusOK, w.Code)

	code := sentCode(t, mock)
	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}

	expected := []string{
		"Invalid code. 4 attempts remaining.",
		"Invalid code. 3 attempts remaining.",
		"Invalid code. 2 attempts remaining.",
		"Invalid code. 1 attempt remaining.",
		"Invalid code. 0 attempts remaining.",
	}
	for _, want := range expected {
		w = doJSON(t, r, "/verify/code", map[string]interface{}{"email": testEmail, "code": wrong})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, want, decodeBody(t, w)["error"])
	}

	// 6th submission, even with the correct code, is locked out
	w = doJSON(t, r, "/verify/code", map[string]interface{}{"email": testEmail, "code": code})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many failed attempts. Please request a new code.", decodeBody(t, w)["error"])
}

func TestVerifyCode_Expired(t *testing.T) {
	r, repo, _ := setupHandler(t)

	err := repo.SetVerificationCode(context.Background(), user.SetVerificationCodeParams{
		Email:     testEmail,
		Code:      "123456",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	})
	require.NoError(t, err)

	w := doJSON(t, r, "/verify/code", map[string]interface{}{"email": testEmail, "code": "123456"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Verification code has expired. Please request a new code.", decodeBody(t, w)["error"])
}
