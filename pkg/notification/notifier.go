package notification

import "context"

// NotificationSystem is a delivery channel such as email.
type NotificationSystem string

// NoticeType names one kind of notice, e.g. a new-device alert.
type NoticeType string

const (
	EmailSystem NotificationSystem = "email"
)

// NoticeTemplate holds Go templates rendered against NotificationData.Data.
// At least one of Text and Html must be set.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

type NotificationData struct {
	To   string            // Recipient address for the system
	Data map[string]string // Template values
}

type Notifier interface {
	Send(ctx context.Context, noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}
