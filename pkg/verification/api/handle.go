package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/nexrate/nexrate-verify/pkg/device"
	"github.com/nexrate/nexrate-verify/pkg/user"
	"github.com/nexrate/nexrate-verify/pkg/verification"
)

// VerificationHandler handles HTTP requests for the device-trust
// verification workflow.
type VerificationHandler struct {
	verificationService *verification.VerificationService
}

// NewVerificationHandler creates a new verification handler
func NewVerificationHandler(verificationService *verification.VerificationService) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
	}
}

// Routes registers the verification endpoints on a router
func (h *VerificationHandler) Routes(r chi.Router) {
	r.Post("/device/check", h.CheckDevice)
	r.Post("/verify/code", h.VerifyCode)
}

// CheckDeviceRequest represents the request body for checking a device
type CheckDeviceRequest struct {
	Email string `json:"email"`
}

// CheckDeviceResponse represents the response body for checking a device
type CheckDeviceResponse struct {
	NeedsVerification bool   `json:"needsVerification"`
	Message           string `json:"message"`
}

// VerifyCodeRequest represents the request body for verifying a code
type VerifyCodeRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	TrustDevice bool   `json:"trustDevice"`
}

// VerifyCodeResponse represents the response body for a successful verification
type VerifyCodeResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	DeviceTrusted bool   `json:"deviceTrusted"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// CheckDevice handles POST /device/check: fingerprint the request, check the
// trusted-device list, and issue a verification code when the device is not
// recognized.
func (h *VerificationHandler) CheckDevice(w http.ResponseWriter, r *http.Request) {
	var req CheckDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "error", err)
		renderError(w, r, http.StatusBadRequest, "Valid email is required")
		return
	}

	if !isValidEmail(req.Email) {
		renderError(w, r, http.StatusBadRequest, "Valid email is required")
		return
	}

	fingerprintData := device.ExtractFingerprintDataFromRequest(r)

	result, err := h.verificationService.CheckDevice(r.Context(), req.Email, fingerprintData)
	if err != nil {
		h.renderCheckDeviceError(w, r, err)
		return
	}

	response := CheckDeviceResponse{
		NeedsVerification: result.NeedsVerification,
		Message:           "Device recognized",
	}
	if result.NeedsVerification {
		response.Message = "Verification code sent to your email"
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, response)
}

// VerifyCode handles POST /verify/code: validate the submitted code against
// the stored code, expiry, and attempt counter, optionally trusting the
// current device on success.
func (h *VerificationHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "error", err)
		renderError(w, r, http.StatusBadRequest, "Valid email is required")
		return
	}

	if !isValidEmail(req.Email) {
		renderError(w, r, http.StatusBadRequest, "Valid email is required")
		return
	}
	if !verification.IsCodeShape(req.Code) {
		renderError(w, r, http.StatusBadRequest, "Valid 6-digit code is required")
		return
	}

	fingerprintData := device.ExtractFingerprintDataFromRequest(r)

	result, err := h.verificationService.VerifyCode(r.Context(), req.Email, req.Code, req.TrustDevice, fingerprintData)
	if err != nil {
		h.renderVerifyCodeError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, VerifyCodeResponse{
		Success:       true,
		Message:       "Verification successful",
		DeviceTrusted: result.DeviceTrusted,
	})
}

func (h *VerificationHandler) renderCheckDeviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		renderError(w, r, http.StatusNotFound, "No account found with this email")
	case errors.Is(err, verification.ErrIssueRateLimited):
		renderError(w, r, http.StatusTooManyRequests, "Too many verification codes requested. Please try again later.")
	default:
		// Store and email failures alike: generic message, detail stays server-side
		slog.Error("Device check failed", "error", err)
		renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}

func (h *VerificationHandler) renderVerifyCodeError(w http.ResponseWriter, r *http.Request, err error) {
	var invalidErr *verification.InvalidCodeError

	switch {
	case errors.Is(err, user.ErrUserNotFound):
		renderError(w, r, http.StatusNotFound, "No account found with this email")
	case errors.Is(err, verification.ErrNoCodeFound):
		renderError(w, r, http.StatusBadRequest, "No verification code found. Please request a new code.")
	case errors.Is(err, verification.ErrCodeExpired):
		renderError(w, r, http.StatusBadRequest, "Verification code has expired. Please request a new code.")
	case errors.Is(err, verification.ErrTooManyAttempts):
		renderError(w, r, http.StatusTooManyRequests, "Too many failed attempts. Please request a new code.")
	case errors.As(err, &invalidErr):
		renderError(w, r, http.StatusBadRequest, invalidCodeMessage(invalidErr.AttemptsRemaining))
	default:
		slog.Error("Code verification failed", "error", err)
		renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}

func invalidCodeMessage(remaining int) string {
	if remaining == 1 {
		return "Invalid code. 1 attempt remaining."
	}
	return fmt.Sprintf("Invalid code. %d attempts remaining.", remaining)
}

// isValidEmail is intentionally loose: the store lookup is the real check,
// this only rejects obviously malformed input before any side effect.
func isValidEmail(email string) bool {
	return email != "" && strings.Contains(email, "@")
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}
