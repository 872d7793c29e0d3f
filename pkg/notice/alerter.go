package notice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ukhsc/ukhsc-system-backend/pkg/auth"
	"github.com/ukhsc/ukhsc-system-backend/pkg/member"
	"github.com/ukhsc/ukhsc-system-backend/pkg/notification"
)

// MemberLookup is the part of member.MemberService the alerter reads.
type MemberLookup interface {
	GetMember(ctx context.Context, id uuid.UUID) (member.Member, error)
	GetSettings(ctx context.Context, memberID uuid.UUID) (member.Settings, error)
}

// Sender is satisfied by *notification.NotificationManager.
type Sender interface {
	Send(ctx context.Context, noticeType notification.NoticeType, data notification.NotificationData) error
}

// AlertService turns auth security alerts into member emails. Members who
// switched off email notifications, or have no address, are skipped.
type AlertService struct {
	sender   Sender
	members  MemberLookup
	location *time.Location
}

func NewAlertService(sender Sender, members MemberLookup) *AlertService {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		loc = time.FixedZone("CST", 8*60*60)
	}
	return &AlertService{sender: sender, members: members, location: loc}
}

var _ auth.Alerter = (*AlertService)(nil)

func (s *AlertService) SecurityAlert(ctx context.Context, alert auth.SecurityAlert) error {
	var noticeType notification.NoticeType
	switch alert.Kind {
	case auth.AlertNewDevice:
		noticeType = NewDeviceNotice
	case auth.AlertSuspiciousLogin:
		noticeType = SuspiciousLoginNotice
	default:
		return fmt.Errorf("unknown alert kind %q", alert.Kind)
	}

	m, err := s.members.GetMember(ctx, alert.MemberID)
	if err != nil {
		return fmt.Errorf("failed to look up member: %w", err)
	}
	if m.Email == "" {
		slog.Debug("Member has no email, alert skipped", "memberID", m.ID, "kind", alert.Kind)
		return nil
	}
	settings, err := s.members.GetSettings(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("failed to look up member settings: %w", err)
	}
	if !settings.NotifyEmail {
		slog.Debug("Email notifications disabled, alert skipped", "memberID", m.ID, "kind", alert.Kind)
		return nil
	}

	deviceName := alert.DeviceName
	if deviceName == "" {
		deviceName = "Unknown device"
	}
	ip := alert.IP
	if ip == "" {
		ip = "unknown"
	}
	return s.sender.Send(ctx, noticeType, notification.NotificationData{
		To: m.Email,
		Data: map[string]string{
			"Name":       m.DisplayName,
			"DeviceName": deviceName,
			"OS":         alert.OS,
			"IP":         ip,
			"Time":       alert.At.In(s.location).Format("2006-01-02 15:04 MST"),
		},
	})
}
