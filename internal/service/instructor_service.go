package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/freecs/freecs-api/internal/models"
	appErrors "github.com/freecs/freecs-api/pkg/errors"
)

type instructorRepository interface {
	List(ctx context.Context) ([]models.InstructorDetail, error)
	FindByID(ctx context.Context, id string) (*models.InstructorDetail, error)
	Update(ctx context.Context, id string, req models.UpdateInstructorRequest) error
}

// InstructorService provides instructor listing and profile updates.
type InstructorService struct {
	repo      instructorRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstructorService constructs an InstructorService instance.
func NewInstructorService(repo instructorRepository, validate *validator.Validate, logger *zap.Logger) *InstructorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &InstructorService{repo: repo, validator: validate, logger: logger}
}

// List returns all instructors with member and user data.
func (s *InstructorService) List(ctx context.Context) ([]models.InstructorInfo, error) {
	details, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}

	infos := make([]models.InstructorInfo, 0, len(details))
	for _, detail := range details {
		infos = append(infos, models.ToInstructorInfo(detail))
	}
	return infos, nil
}

// Update applies a partial update to an instructor profile and returns the
// updated record.
func (s *InstructorService) Update(ctx context.Context, id string, req models.UpdateInstructorRequest) (*models.InstructorInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}

	if err := s.repo.Update(ctx, id, req); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update instructor")
	}

	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	info := models.ToInstructorInfo(*detail)
	return &info, nil
}
