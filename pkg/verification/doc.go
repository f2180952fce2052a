// Package verification implements the device-trust verification workflow
// for nexrate-verify.
//
// # Overview
//
// The verification package provides:
//   - Device trust checking (recognized devices skip verification)
//   - Time-boxed one-time code issuance with email dispatch
//   - Attempt-limited code verification with a fixed check order
//   - Opt-in device trust persistence on successful verification
//
// # Workflow
//
// A client authenticates, then calls CheckDevice. A recognized device gets
// its last-used timestamp refreshed and proceeds; an unrecognized one
// triggers IssueCode, which persists a 6-digit code with a 5-minute expiry
// and emails it. The client submits the code to VerifyCode, which checks, in
// order: code existence, expiry, the 5-attempt lockout, and equality. On
// success the code is cleared and the device is optionally trusted.
//
// # Basic Usage
//
//	import "github.com/nexrate/nexrate-verify/pkg/verification"
//
//	service := verification.NewVerificationService(
//		userRepo,
//		notificationManager,
//		verification.WithCodeExpiry(5*time.Minute),
//		verification.WithMaxAttempts(5),
//	)
//
//	result, err := service.CheckDevice(ctx, email, fingerprintData)
//	if result.NeedsVerification {
//		// client submits the emailed code
//		_, err = service.VerifyCode(ctx, email, code, true, fingerprintData)
//	}
//
// Concurrent operations on one user's verification fields are
// last-write-wins; no optimistic concurrency token is used.
package verification
