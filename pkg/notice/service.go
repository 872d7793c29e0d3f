package notice

import (
	"embed"
	"fmt"
	"log/slog"

	"github.com/ukhsc/ukhsc-system-backend/pkg/notification"
)

const (
	NewDeviceNotice       notification.NoticeType = "new_device"
	SuspiciousLoginNotice notification.NoticeType = "suspicious_login"
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

// NewNotificationManager returns a manager delivering the security notices
// by SMTP.
func NewNotificationManager(baseURL string, smtpConfig notification.SMTPConfig) (*notification.NotificationManager, error) {
	emailNotifier, err := notification.NewEmailNotifier(smtpConfig)
	if err != nil {
		return nil, err
	}

	nm := notification.NewNotificationManager(baseURL)
	nm.RegisterNotifier(notification.EmailSystem, emailNotifier)
	if err := RegisterTemplates(nm); err != nil {
		return nil, err
	}
	return nm, nil
}

// RegisterTemplates registers the email templates of every security notice.
func RegisterTemplates(nm *notification.NotificationManager) error {
	templates := map[notification.NoticeType]notification.NoticeTemplate{
		NewDeviceNotice: {
			Subject: "新裝置登入通知 New sign-in to your account",
			Text:    loadTemplate("templates/email/new_device.txt"),
			Html:    loadTemplate("templates/email/new_device.html"),
		},
		SuspiciousLoginNotice: {
			Subject: "可疑登入通知 Suspicious sign-in blocked",
			Text:    loadTemplate("templates/email/suspicious_login.txt"),
			Html:    loadTemplate("templates/email/suspicious_login.html"),
		},
	}
	for noticeType, tmpl := range templates {
		if err := nm.RegisterNotification(noticeType, notification.EmailSystem, tmpl); err != nil {
			slog.Error("Failed to register notice", "notice", noticeType, "error", err)
			return fmt.Errorf("failed to register %s notice: %w", noticeType, err)
		}
	}
	return nil
}
