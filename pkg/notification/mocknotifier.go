package notification

// MockNotifier records sent notifications for tests. Setting Err makes every
// Send fail, simulating a delivery outage.
type MockNotifier struct {
	SentNotifications []NotificationData
	Err               error
}

func (m *MockNotifier) Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error {
	if m.Err != nil {
		return m.Err
	}
	m.SentNotifications = append(m.SentNotifications, notification)
	return nil
}
