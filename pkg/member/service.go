package member

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/ukhsc/ukhsc-system-backend/pkg/errors"
)

type MemberService struct {
	repo MemberRepository
}

func NewMemberService(repo MemberRepository) *MemberService {
	return &MemberService{repo: repo}
}

// CreateMember registers a member of schoolID. An empty role means
// RoleMember.
func (s *MemberService) CreateMember(ctx context.Context, params CreateMemberParams) (Member, error) {
	params.DisplayName = strings.TrimSpace(params.DisplayName)
	if params.DisplayName == "" {
		return Member{}, apperrors.InvalidInput("display_name", "must not be empty")
	}
	if params.SchoolID == uuid.Nil {
		return Member{}, apperrors.InvalidInput("school_id", "must be set")
	}
	switch params.Role {
	case "":
		params.Role = RoleMember
	case RoleMember, RoleAdmin:
	default:
		return Member{}, apperrors.InvalidInput("role", string(params.Role))
	}

	m, err := s.repo.CreateMember(ctx, params)
	if err != nil {
		if errors.Is(err, ErrUnknownSchool) {
			return Member{}, apperrors.NotFound("school", params.SchoolID.String())
		}
		return Member{}, apperrors.InternalWrap(err, "failed to create member")
	}
	return m, nil
}

func (s *MemberService) GetMember(ctx context.Context, id uuid.UUID) (Member, error) {
	m, err := s.repo.GetMember(ctx, id)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return Member{}, apperrors.NotFound("member", id.String())
		}
		return Member{}, apperrors.InternalWrap(err, "failed to get member")
	}
	return m, nil
}

func (s *MemberService) ListMembersBySchool(ctx context.Context, schoolID uuid.UUID) ([]Member, error) {
	members, err := s.repo.ListMembersBySchool(ctx, schoolID)
	if err != nil {
		return nil, apperrors.InternalWrap(err, "failed to list members")
	}
	return members, nil
}

// GetSettings returns the saved settings or DefaultSettings.
func (s *MemberService) GetSettings(ctx context.Context, memberID uuid.UUID) (Settings, error) {
	settings, err := s.repo.GetSettings(ctx, memberID)
	if err != nil {
		if errors.Is(err, ErrSettingsNotFound) {
			return DefaultSettings(memberID), nil
		}
		return Settings{}, apperrors.InternalWrap(err, "failed to get settings")
	}
	return settings, nil
}

func (s *MemberService) UpdateSettings(ctx context.Context, settings Settings) (Settings, error) {
	saved, err := s.repo.UpsertSettings(ctx, settings)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return Settings{}, apperrors.NotFound("member", settings.MemberID.String())
		}
		return Settings{}, apperrors.InternalWrap(err, "failed to update settings")
	}
	return saved, nil
}
