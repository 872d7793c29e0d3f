package notification

import (
	"context"
	"sync"
)

type SentNotice struct {
	Type         NoticeType
	Notification NotificationData
	Template     NoticeTemplate
}

// MockNotifier records every notice instead of delivering it. Err, when
// set, is returned from Send after recording.
type MockNotifier struct {
	mu   sync.Mutex
	sent []SentNotice
	Err  error
}

func (m *MockNotifier) Send(ctx context.Context, noticeType NoticeType, notification NotificationData, template NoticeTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentNotice{Type: noticeType, Notification: notification, Template: template})
	return m.Err
}

// Sent returns a copy of the recorded notices.
func (m *MockNotifier) Sent() []SentNotice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentNotice(nil), m.sent...)
}
