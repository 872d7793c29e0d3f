package member

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

type Member struct {
	ID          uuid.UUID `json:"id"`
	SchoolID    uuid.UUID `json:"school_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Settings struct {
	MemberID          uuid.UUID `json:"member_id"`
	NotifyEmail       bool      `json:"notify_email"`
	Locale            string    `json:"locale"`
	ShareWithPartners bool      `json:"share_with_partners"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DefaultSettings are reported for members who never saved settings.
func DefaultSettings(memberID uuid.UUID) Settings {
	return Settings{
		MemberID:    memberID,
		NotifyEmail: true,
		Locale:      "zh-TW",
	}
}

type CreateMemberParams struct {
	SchoolID    uuid.UUID
	DisplayName string
	Email       string
	Role        Role
}

var (
	ErrMemberNotFound   = errors.New("member not found")
	ErrSettingsNotFound = errors.New("member settings not found")
	ErrUnknownSchool    = errors.New("school does not exist")
)

type MemberRepository interface {
	CreateMember(ctx context.Context, params CreateMemberParams) (Member, error)
	GetMember(ctx context.Context, id uuid.UUID) (Member, error)
	ListMembersBySchool(ctx context.Context, schoolID uuid.UUID) ([]Member, error)
	// GetSettings returns ErrSettingsNotFound when none were saved.
	GetSettings(ctx context.Context, memberID uuid.UUID) (Settings, error)
	UpsertSettings(ctx context.Context, settings Settings) (Settings, error)
}
