// Package notice wires the notification manager for nexrate-verify,
// embedding the email templates this service sends.
package notice

import (
	"embed"
	"log/slog"

	"github.com/nexrate/nexrate-verify/pkg/notification"
)

//go:embed templates/*
var templateFiles embed.FS

func loadTemplate(filename string) string {
	content, err := templateFiles.ReadFile(filename)
	if err != nil {
		slog.Error("Error reading template file!", "err", err, "filename", filename)
		return ""
	}
	return string(content)
}

// NewNotificationManager creates a notification manager with the SMTP
// notifier registered and the verification-code templates loaded.
func NewNotificationManager(smtpConfig notification.SMTPConfig) (*notification.NotificationManager, error) {
	notificationManager := notification.NewNotificationManager()

	emailNotifier, err := notification.NewEmailNotifier(smtpConfig)
	if err != nil {
		return nil, err
	}

	notificationManager.RegisterNotifier(notification.EmailSystem, emailNotifier)

	if err := RegisterVerificationCodeTemplates(notificationManager); err != nil {
		return nil, err
	}

	return notificationManager, nil
}

// RegisterVerificationCodeTemplates registers the verification-code email
// templates on an existing manager. Split out so tests and cmd/inmem can use
// a mock notifier with the real templates.
func RegisterVerificationCodeTemplates(nm *notification.NotificationManager) error {
	err := nm.RegisterNotification(notification.VerificationCodeNotice, notification.EmailSystem, notification.NoticeTemplate{
		Subject: "Your NexRate verification code",
		Html:    loadTemplate("templates/email/verification_code.html"),
		Text:    loadTemplate("templates/email/verification_code.txt"),
	})
	if err != nil {
		slog.Error("failed to register verification code notification", "error", err)
		return err
	}

	return nil
}
