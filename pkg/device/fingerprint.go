package device

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// UnknownValue is substituted for any absent request header so that two
// requests missing the same headers hash identically. All header-less
// clients collide into one fingerprint; acceptable for this system's
// low-stakes matching.
const UnknownValue = "unknown"

// FingerprintData contains the request metadata a fingerprint is derived from.
// UserAgent and IPAddress are also retained on trusted-device records for
// audit/display; they are never consulted again after trust time.
type FingerprintData struct {
	UserAgent string
	IPAddress string
}

// Fingerprint derives a stable device identifier from a user agent and an IP
// address. It is a SHA-256 hex digest of the two values joined with "|":
// deterministic and collision-tolerant, not a security boundary.
func Fingerprint(userAgent, ipAddress string) string {
	if userAgent == "" {
		userAgent = UnknownValue
	}
	if ipAddress == "" {
		ipAddress = UnknownValue
	}

	combined := userAgent + "|" + ipAddress
	hash := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(hash[:])
}

// ExtractFingerprintDataFromRequest pulls the fingerprint inputs out of an
// HTTP request. The client IP is the first X-Forwarded-For entry, falling
// back to X-Real-Ip, falling back to "unknown".
func ExtractFingerprintDataFromRequest(r *http.Request) FingerprintData {
	userAgent := r.UserAgent()
	if userAgent == "" {
		userAgent = UnknownValue
	}

	return FingerprintData{
		UserAgent: userAgent,
		IPAddress: ClientIP(r),
	}
}

// GetRequestFingerprint extracts data from a request and generates the
// fingerprint in one step.
func GetRequestFingerprint(r *http.Request) string {
	data := ExtractFingerprintDataFromRequest(r)
	return Fingerprint(data.UserAgent, data.IPAddress)
}

// ClientIP returns the best-effort client IP for a request.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// First entry is the originating client when the request passed
		// through one or more proxies.
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-Ip")); realIP != "" {
		return realIP
	}

	return UnknownValue
}
