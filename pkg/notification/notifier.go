package notification

// NotificationSystem represents a delivery channel (e.g., email).
type NotificationSystem string

// NoticeType represents a kind of notice (e.g., "verification_code").
type NoticeType string

const (
	EmailSystem NotificationSystem = "email"

	// VerificationCodeNotice carries a one-time device verification code.
	VerificationCodeNotice NoticeType = "verification_code"

	// ExampleNotice is used by tests.
	ExampleNotice NoticeType = "example"
)

// NoticeTemplate holds the subject and body templates for a notice. Html and
// Text are Go templates; when both are set the notifier sends HTML with a
// plaintext alternative.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

// NotificationData is the per-send payload.
type NotificationData struct {
	To      string            // Recipient identifier (e.g., email address)
	Subject string            // Optional override of the template subject
	Body    string            // Optional pre-rendered content
	Data    map[string]string // Template variables (e.g., "Code")
}

// Notifier delivers a rendered notice over one system.
type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}
