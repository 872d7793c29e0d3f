package school

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type School struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ShortName string    `json:"short_name"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SchoolParams are the writable fields of a school.
type SchoolParams struct {
	Name      string
	ShortName string
	Domain    string
}

var (
	ErrSchoolNotFound = errors.New("school not found")
	ErrShortNameTaken = errors.New("school short name already taken")
	ErrSchoolInUse    = errors.New("school still has members")
)

type SchoolRepository interface {
	ListSchools(ctx context.Context) ([]School, error)
	GetSchool(ctx context.Context, id uuid.UUID) (School, error)
	CreateSchool(ctx context.Context, params SchoolParams) (School, error)
	UpdateSchool(ctx context.Context, id uuid.UUID, params SchoolParams) (School, error)
	DeleteSchool(ctx context.Context, id uuid.UUID) error
}
