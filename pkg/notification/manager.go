package notification

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
)

// NotificationManager manages notifiers and notification templates.
type NotificationManager struct {
	baseURL string

	mu                   sync.RWMutex
	notifiers            map[NotificationSystem]Notifier
	notificationRegistry map[NoticeType]map[NotificationSystem]NoticeTemplate
}

// NewNotificationManager creates a manager whose notices link back to
// baseURL. The value is exposed to templates as {{.BaseURL}}.
func NewNotificationManager(baseURL string) *NotificationManager {
	return &NotificationManager{
		baseURL:              baseURL,
		notifiers:            make(map[NotificationSystem]Notifier),
		notificationRegistry: make(map[NoticeType]map[NotificationSystem]NoticeTemplate),
	}
}

// RegisterNotifier registers a notifier for a specific system.
func (nm *NotificationManager) RegisterNotifier(system NotificationSystem, notifier Notifier) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.notifiers[system] = notifier
}

// RegisterNotification adds or replaces the template of noticeType on system.
func (nm *NotificationManager) RegisterNotification(noticeType NoticeType, system NotificationSystem, template NoticeTemplate) error {
	if noticeType == "" || system == "" {
		return fmt.Errorf("invalid input: notice type and system cannot be empty")
	}
	if template.Subject == "" {
		return fmt.Errorf("invalid template for %s: subject cannot be empty", noticeType)
	}
	if template.Text == "" && template.Html == "" {
		return fmt.Errorf("invalid template for %s: text or html body required", noticeType)
	}

	nm.mu.Lock()
	defer nm.mu.Unlock()
	if _, exists := nm.notificationRegistry[noticeType]; !exists {
		nm.notificationRegistry[noticeType] = make(map[NotificationSystem]NoticeTemplate)
	}
	nm.notificationRegistry[noticeType][system] = template
	return nil
}

// Send delivers noticeType on every system it is registered on. A system
// without a notifier is an error; the remaining systems are still tried.
func (nm *NotificationManager) Send(ctx context.Context, noticeType NoticeType, notification NotificationData) error {
	nm.mu.RLock()
	templates, exists := nm.notificationRegistry[noticeType]
	if !exists {
		nm.mu.RUnlock()
		return fmt.Errorf("no templates registered for notice type: %s", noticeType)
	}
	type delivery struct {
		notifier Notifier
		template NoticeTemplate
	}
	deliveries := make(map[NotificationSystem]delivery, len(templates))
	var errs []error
	for system, template := range templates {
		notifier, ok := nm.notifiers[system]
		if !ok {
			errs = append(errs, fmt.Errorf("no notifier registered for system: %s", system))
			continue
		}
		deliveries[system] = delivery{notifier: notifier, template: template}
	}
	nm.mu.RUnlock()

	data := make(map[string]string, len(notification.Data)+1)
	maps.Copy(data, notification.Data)
	if _, set := data["BaseURL"]; !set {
		data["BaseURL"] = nm.baseURL
	}
	notification.Data = data

	for system, d := range deliveries {
		if err := d.notifier.Send(ctx, noticeType, notification, d.template); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", system, err))
		}
	}
	return errors.Join(errs...)
}
