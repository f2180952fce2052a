// Package notification provides the notifier abstraction and delivery
// machinery for outbound notices.
//
// A NotificationManager holds one Notifier per delivery system and a
// registry of templates keyed by notice type. Callers register templates
// once at startup and then Send with per-notice data; the notifier renders
// the template and delivers it. The email notifier sends HTML with a
// plaintext alternative when both bodies are registered.
//
// pkg/notice wires the manager for this service, embedding the
// verification-code templates.
package notification
