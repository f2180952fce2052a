package notice

import (
	"strings"
	"testing"

	"github.com/nexrate/nexrate-verify/pkg/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterVerificationCodeTemplates(t *testing.T) {
	nm := notification.NewNotificationManager()
	mock := &notification.MockNotifier{}
	nm.RegisterNotifier(notification.EmailSystem, mock)

	err := RegisterVerificationCodeTemplates(nm)
	require.NoError(t, err)

	err = nm.Send(notification.VerificationCodeNotice, notification.EmailSystem, notification.NotificationData{
		To:   "jane@example.com",
		Data: map[string]string{"Code": "123456", "ExpiryMinutes": "5"},
	})
	require.NoError(t, err)
	require.Len(t, mock.SentNotifications, 1)
	assert.Equal(t, "jane@example.com", mock.SentNotifications[0].To)
}

func TestEmbeddedTemplatesPresent(t *testing.T) {
	html := loadTemplate("templates/email/verification_code.html")
	assert.True(t, strings.Contains(html, "{{.Code}}"))
	assert.True(t, strings.Contains(html, "{{.ExpiryMinutes}}"))

	text := loadTemplate("templates/email/verification_code.txt")
	assert.True(t, strings.Contains(text, "{{.Code}}"))
}
