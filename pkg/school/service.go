package school

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/ukhsc/ukhsc-system-backend/pkg/errors"
)

// SchoolService applies the school rules over a SchoolRepository and
// returns structured errors.
type SchoolService struct {
	repo SchoolRepository
}

func NewSchoolService(repo SchoolRepository) *SchoolService {
	return &SchoolService{repo: repo}
}

func normalize(params SchoolParams) SchoolParams {
	return SchoolParams{
		Name:      strings.TrimSpace(params.Name),
		ShortName: strings.ToLower(strings.TrimSpace(params.ShortName)),
		Domain:    strings.ToLower(strings.TrimSpace(params.Domain)),
	}
}

func mapError(err error, id string) error {
	switch {
	case errors.Is(err, ErrSchoolNotFound):
		return apperrors.NotFound("school", id)
	case errors.Is(err, ErrShortNameTaken):
		return apperrors.AlreadyExists("school", id)
	case errors.Is(err, ErrSchoolInUse):
		return apperrors.New(apperrors.ErrCodeInvalidInput, "school still has members").WithDetail("school_id", id)
	default:
		return apperrors.InternalWrap(err, "school storage failure")
	}
}

func (s *SchoolService) List(ctx context.Context) ([]School, error) {
	schools, err := s.repo.ListSchools(ctx)
	if err != nil {
		return nil, mapError(err, "")
	}
	return schools, nil
}

func (s *SchoolService) Get(ctx context.Context, id uuid.UUID) (School, error) {
	school, err := s.repo.GetSchool(ctx, id)
	if err != nil {
		return School{}, mapError(err, id.String())
	}
	return school, nil
}

func (s *SchoolService) Create(ctx context.Context, params SchoolParams) (School, error) {
	params = normalize(params)
	school, err := s.repo.CreateSchool(ctx, params)
	if err != nil {
		return School{}, mapError(err, params.ShortName)
	}
	return school, nil
}

func (s *SchoolService) Update(ctx context.Context, id uuid.UUID, params SchoolParams) (School, error) {
	params = normalize(params)
	school, err := s.repo.UpdateSchool(ctx, id, params)
	if err != nil {
		if errors.Is(err, ErrShortNameTaken) {
			return School{}, mapError(err, params.ShortName)
		}
		return School{}, mapError(err, id.String())
	}
	return school, nil
}

func (s *SchoolService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteSchool(ctx, id); err != nil {
		return mapError(err, id.String())
	}
	return nil
}

// FindByEmailDomain returns the school whose domain matches the email's
// domain, if any.
func (s *SchoolService) FindByEmailDomain(ctx context.Context, email string) (School, bool, error) {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return School{}, false, nil
	}
	domain := strings.ToLower(email[at+1:])

	schools, err := s.List(ctx)
	if err != nil {
		return School{}, false, err
	}
	for _, school := range schools {
		if school.Domain != "" && (domain == school.Domain || strings.HasSuffix(domain, "."+school.Domain)) {
			return school, true, nil
		}
	}
	return School{}, false, nil
}
