package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/freecs/freecs-api/internal/models"
	"github.com/freecs/freecs-api/internal/repository"
	appErrors "github.com/freecs/freecs-api/pkg/errors"
)

type preferenceRepository interface {
	Create(ctx context.Context, preference *models.Preference, categoryIDs []string) error
	CategoriesFor(ctx context.Context, preferenceID string) ([]models.Category, error)
}

// PreferenceService manages member category preferences.
type PreferenceService struct {
	repo       preferenceRepository
	categories categoryRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewPreferenceService constructs a PreferenceService instance.
func NewPreferenceService(repo preferenceRepository, categories categoryRepository, validate *validator.Validate, logger *zap.Logger) *PreferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PreferenceService{repo: repo, categories: categories, validator: validate, logger: logger}
}

// Create stores the caller's preference. Each member holds at most one.
func (s *PreferenceService) Create(ctx context.Context, memberID string, req models.CreatePreferenceRequest) (*models.PreferenceInfo, error) {
	if memberID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user must be a member to create preferences")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference payload")
	}

	count, err := s.categories.CountByIDs(ctx, req.CategoryIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify categories")
	}
	if count != len(req.CategoryIDs) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "one or more categories do not exist")
	}

	preference := &models.Preference{MemberID: memberID}
	if err := s.repo.Create(ctx, preference, req.CategoryIDs); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "preference already exists for this member")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create preference")
	}

	categories, err := s.repo.CategoriesFor(ctx, preference.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preference categories")
	}

	return &models.PreferenceInfo{ID: preference.ID, MemberID: memberID, Categories: categories}, nil
}
