package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/freecs/freecs-api/internal/models"
	"github.com/freecs/freecs-api/internal/repository"
	appErrors "github.com/freecs/freecs-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context) ([]models.EnrollmentDetail, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
}

type memberLookup interface {
	FindMemberByID(ctx context.Context, id string) (*models.Member, error)
}

type courseLookup interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// EnrollmentService provides enrollment listing and creation.
type EnrollmentService struct {
	repo      enrollmentRepository
	members   memberLookup
	courses   courseLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService instance.
func NewEnrollmentService(repo enrollmentRepository, members memberLookup, courses courseLookup, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EnrollmentService{repo: repo, members: members, courses: courses, validator: validate, logger: logger}
}

// List returns all enrollments.
func (s *EnrollmentService) List(ctx context.Context) ([]models.EnrollmentInfo, error) {
	details, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	infos := make([]models.EnrollmentInfo, 0, len(details))
	for _, detail := range details {
		infos = append(infos, models.ToEnrollmentInfo(detail))
	}
	return infos, nil
}

// Create enrolls a member in a course. A course already holding an enrollment
// rejects further ones.
func (s *EnrollmentService) Create(ctx context.Context, req models.CreateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	if _, err := s.members.FindMemberByID(ctx, req.MemberID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrollment := &models.Enrollment{MemberID: req.MemberID, CourseID: req.CourseID}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course already has an enrollment")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	return enrollment, nil
}
