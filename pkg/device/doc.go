// Package device provides device fingerprinting for nexrate-verify.
//
// A fingerprint is a deterministic SHA-256 digest of the request's
// User-Agent and client IP. Repeat visits from the same browser and IP
// produce the same fingerprint, which is how an already-trusted device is
// matched without re-verification.
//
// # Basic Usage
//
//	import "github.com/nexrate/nexrate-verify/pkg/device"
//
//	// From raw values
//	deviceID := device.Fingerprint(userAgent, ipAddress)
//
//	// Or directly from an incoming request
//	deviceID := device.GetRequestFingerprint(r)
//
// Fingerprints are a best-effort heuristic, not a security control: clients
// behind the same proxy, or clients sending no headers at all, collide.
package device
