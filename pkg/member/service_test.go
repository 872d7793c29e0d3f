package member

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/ukhsc/ukhsc-system-backend/pkg/errors"
)

func TestCreateMember(t *testing.T) {
	ctx := context.Background()
	s := NewMemberService(NewInMemMemberRepository())
	schoolID := uuid.New()

	m, err := s.CreateMember(ctx, CreateMemberParams{SchoolID: schoolID, DisplayName: "  Student ", Email: "s@example.edu.tw"})
	require.NoError(t, err)
	assert.Equal(t, "Student", m.DisplayName)
	assert.Equal(t, RoleMember, m.Role)

	got, err := s.GetMember(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	tests := []struct {
		name   string
		params CreateMemberParams
	}{
		{"blank name", CreateMemberParams{SchoolID: schoolID, DisplayName: "  "}},
		{"no school", CreateMemberParams{DisplayName: "Student"}},
		{"bad role", CreateMemberParams{SchoolID: schoolID, DisplayName: "Student", Role: "owner"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateMember(ctx, tt.params)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidInput))
		})
	}

	_, err = s.GetMember(ctx, uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))

	members, err := s.ListMembersBySchool(ctx, schoolID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := NewMemberService(NewInMemMemberRepository())
	m, err := s.CreateMember(ctx, CreateMemberParams{SchoolID: uuid.New(), DisplayName: "Student"})
	require.NoError(t, err)

	settings, err := s.GetSettings(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(m.ID), settings)

	settings.Locale = "en-US"
	settings.NotifyEmail = false
	saved, err := s.UpdateSettings(ctx, settings)
	require.NoError(t, err)
	assert.False(t, saved.UpdatedAt.IsZero())

	got, err := s.GetSettings(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "en-US", got.Locale)
	assert.False(t, got.NotifyEmail)

	_, err = s.UpdateSettings(ctx, DefaultSettings(uuid.New()))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}
