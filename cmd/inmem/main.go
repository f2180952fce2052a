// Package main runs the verification service without a database or SMTP
// server: in-memory user store, emails logged to stdout instead of sent.
// Useful for quick development, demos, and exercising the API by hand.
//
// Note: all data is lost when the server stops. For production, use
// cmd/verify with PostgreSQL and a real SMTP relay.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/chi-demo/app"

	"github.com/nexrate/nexrate-verify/pkg/notice"
	"github.com/nexrate/nexrate-verify/pkg/notification"
	"github.com/nexrate/nexrate-verify/pkg/ratelimit"
	"github.com/nexrate/nexrate-verify/pkg/user"
	"github.com/nexrate/nexrate-verify/pkg/verification"
	verifyapi "github.com/nexrate/nexrate-verify/pkg/verification/api"
)

const demoEmail = "demo@nexrate.app"

// logNotifier prints outgoing notifications instead of delivering them, so
// the verification code shows up in the server log.
type logNotifier struct{}

func (n *logNotifier) Send(noticeType notification.NoticeType, data notification.NotificationData, tmpl notification.NoticeTemplate) error {
	slog.Info("Would send email",
		"type", noticeType,
		"to", data.To,
		"subject", tmpl.Subject,
		"code", data.Data["Code"],
	)
	return nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting in-memory verification service (no database required)")
	slog.Info(strings.Repeat("=", 60))

	userRepo := user.NewInMemUserRepository()
	seedUsers(userRepo)

	notificationManager := notification.NewNotificationManager()
	notificationManager.RegisterNotifier(notification.EmailSystem, &logNotifier{})
	if err := notice.RegisterVerificationCodeTemplates(notificationManager); err != nil {
		slog.Error("Failed registering templates", "error", err)
		os.Exit(-1)
	}

	verificationService := verification.NewVerificationService(userRepo, notificationManager)
	verificationHandler := verifyapi.NewVerificationHandler(verificationService)

	server := app.NewApp(app.WithPort(4000))
	app.RegisterHealthzRoutes(server.R)

	rateLimiter := ratelimit.NewMiddleware(ratelimit.DefaultConfig())
	server.R.Use(rateLimiter.Handler)

	server.R.Route("/api", func(r chi.Router) {
		verificationHandler.Routes(r)
	})

	slog.Info(strings.Repeat("=", 60))
	slog.Info("In-memory verification service ready")
	slog.Info("")
	slog.Info("Seeded account: " + demoEmail)
	slog.Info("")
	slog.Info("API endpoints:")
	slog.Info("  POST /api/device/check - Check whether this device is trusted")
	slog.Info("  POST /api/verify/code  - Submit the emailed code")
	slog.Info(strings.Repeat("=", 60))

	server.Run()
}

func seedUsers(repo *user.InMemUserRepository) {
	_, err := repo.CreateUser(context.Background(), user.User{Email: demoEmail})
	if err != nil {
		slog.Error("Failed seeding demo user", "error", err)
		os.Exit(-1)
	}
	slog.Info("Seeded demo user", "email", demoEmail)
}
