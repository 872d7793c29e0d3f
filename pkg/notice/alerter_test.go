package notice

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukhsc/ukhsc-system-backend/pkg/auth"
	"github.com/ukhsc/ukhsc-system-backend/pkg/member"
	"github.com/ukhsc/ukhsc-system-backend/pkg/notification"
)

func setupAlertService(t *testing.T) (*AlertService, *notification.MockNotifier, *member.MemberService) {
	nm := notification.NewNotificationManager("https://app.ukhsc.org")
	mock := &notification.MockNotifier{}
	nm.RegisterNotifier(notification.EmailSystem, mock)
	require.NoError(t, RegisterTemplates(nm))

	members := member.NewMemberService(member.NewInMemMemberRepository())
	return NewAlertService(nm, members), mock, members
}

func createMember(t *testing.T, members *member.MemberService, email string) member.Member {
	m, err := members.CreateMember(context.Background(), member.CreateMemberParams{
		SchoolID: uuid.New(), DisplayName: "Student", Email: email,
	})
	require.NoError(t, err)
	return m
}

func TestTemplatesLoad(t *testing.T) {
	for _, name := range []string{
		"templates/email/new_device.txt",
		"templates/email/new_device.html",
		"templates/email/suspicious_login.txt",
		"templates/email/suspicious_login.html",
	} {
		assert.NotEmpty(t, loadTemplate(name), name)
	}
}

func TestSecurityAlertSendsEmail(t *testing.T) {
	svc, mock, members := setupAlertService(t)
	m := createMember(t, members, "student@example.edu.tw")

	at := time.Date(2026, 3, 1, 4, 30, 0, 0, time.UTC)
	err := svc.SecurityAlert(context.Background(), auth.SecurityAlert{
		Kind:       auth.AlertSuspiciousLogin,
		MemberID:   m.ID,
		DeviceName: "Firefox",
		OS:         "Windows",
		IP:         "198.51.100.4",
		At:         at,
	})
	require.NoError(t, err)

	sent := mock.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, SuspiciousLoginNotice, sent[0].Type)
	assert.Equal(t, "student@example.edu.tw", sent[0].Notification.To)
	data := sent[0].Notification.Data
	assert.Equal(t, "Student", data["Name"])
	assert.Equal(t, "Firefox", data["DeviceName"])
	assert.Equal(t, "198.51.100.4", data["IP"])
	assert.Equal(t, "2026-03-01 12:30 CST", data["Time"])
	assert.Equal(t, "https://app.ukhsc.org", data["BaseURL"])
}

func TestSecurityAlertDefaults(t *testing.T) {
	svc, mock, members := setupAlertService(t)
	m := createMember(t, members, "student@example.edu.tw")

	err := svc.SecurityAlert(context.Background(), auth.SecurityAlert{
		Kind: auth.AlertNewDevice, MemberID: m.ID, At: time.Now(),
	})
	require.NoError(t, err)
	sent := mock.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, NewDeviceNotice, sent[0].Type)
	assert.Equal(t, "Unknown device", sent[0].Notification.Data["DeviceName"])
	assert.Equal(t, "unknown", sent[0].Notification.Data["IP"])
}

func TestSecurityAlertSkips(t *testing.T) {
	ctx := context.Background()
	svc, mock, members := setupAlertService(t)

	noEmail := createMember(t, members, "")
	require.NoError(t, svc.SecurityAlert(ctx, auth.SecurityAlert{Kind: auth.AlertNewDevice, MemberID: noEmail.ID}))

	optedOut := createMember(t, members, "quiet@example.edu.tw")
	settings := member.DefaultSettings(optedOut.ID)
	settings.NotifyEmail = false
	_, err := members.UpdateSettings(ctx, settings)
	require.NoError(t, err)
	require.NoError(t, svc.SecurityAlert(ctx, auth.SecurityAlert{Kind: auth.AlertNewDevice, MemberID: optedOut.ID}))

	assert.Empty(t, mock.Sent())

	err = svc.SecurityAlert(ctx, auth.SecurityAlert{Kind: "bogus", MemberID: optedOut.ID})
	assert.Error(t, err)
	err = svc.SecurityAlert(ctx, auth.SecurityAlert{Kind: auth.AlertNewDevice, MemberID: uuid.New()})
	assert.Error(t, err)
}
