package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/freecs/freecs-api/internal/models"
	appErrors "github.com/freecs/freecs-api/pkg/errors"
)

type categoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	CountByIDs(ctx context.Context, ids []string) (int, error)
}

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	ListAll(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course, categoryIDs []string, instructorID string) error
	CategoriesByCourse(ctx context.Context, courseIDs []string) (map[string][]models.Category, error)
	InstructorsByCourse(ctx context.Context, courseIDs []string) (map[string][]models.InstructorDetail, error)
	PreferredByMember(ctx context.Context, memberID string) ([]models.Course, error)
	SearchByPattern(ctx context.Context, pattern string) ([]models.Course, error)
	SearchInstructorSkills(ctx context.Context, pattern string) ([]models.Instructor, error)
}

type instructorLookup interface {
	FindByMemberID(ctx context.Context, memberID string) (*models.Instructor, error)
}

// CatalogService provides category, course and search use cases.
type CatalogService struct {
	categories  categoryRepository
	courses     courseRepository
	instructors instructorLookup
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCatalogService constructs a CatalogService instance.
func NewCatalogService(categories categoryRepository, courses courseRepository, instructors instructorLookup, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CatalogService{
		categories:  categories,
		courses:     courses,
		instructors: instructors,
		validator:   validate,
		logger:      logger,
	}
}

// ListCategories returns all categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

// CreateCategory creates a category.
func (s *CatalogService) CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	category := &models.Category{Name: req.Name}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}
	return category, nil
}

// ListCourses returns a page of courses with nested category and instructor
// data plus the total count.
func (s *CatalogService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.CourseInfo, *models.Pagination, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	infos, err := s.assembleCourses(ctx, courses)
	if err != nil {
		return nil, nil, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	return infos, &models.Pagination{Limit: limit, Offset: offset, TotalCount: total}, nil
}

// CreateCourse creates a course owned by the calling instructor. The
// instructor set is always exactly the caller, regardless of input.
func (s *CatalogService) CreateCourse(ctx context.Context, claims *models.JWTClaims, req models.CreateCourseRequest) (*models.CourseInfo, error) {
	if claims == nil || claims.MemberID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "user must be a member to create courses")
	}
	if !claims.IsInstructor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only instructors can create courses")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	instructor, err := s.instructors.FindByMemberID(ctx, claims.MemberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only instructors can create courses")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	if err := s.requireCategories(ctx, req.CategoryIDs); err != nil {
		return nil, err
	}

	course := &models.Course{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Duration:    req.Duration,
	}
	if err := s.courses.Create(ctx, course, req.CategoryIDs, instructor.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	infos, err := s.assembleCourses(ctx, []models.Course{*course})
	if err != nil {
		return nil, err
	}
	return &infos[0], nil
}

// PreferredCourses returns the union of courses tagged with any of the
// member's preference categories. A member without a preference gets an empty
// result.
func (s *CatalogService) PreferredCourses(ctx context.Context, memberID string) ([]models.CourseInfo, error) {
	courses, err := s.courses.PreferredByMember(ctx, memberID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preferred courses")
	}
	return s.assembleCourses(ctx, courses)
}

// Search performs a case-insensitive regex search over course names and
// category names. Instructor skills are matched as well; those hits only feed
// the log, mirroring the upstream behavior.
func (s *CatalogService) Search(ctx context.Context, searchText string) ([]models.CourseInfo, error) {
	if searchText == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no search text provided")
	}
	if _, err := regexp.Compile("(?i)" + searchText); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid search pattern")
	}

	courses, err := s.courses.SearchByPattern(ctx, searchText)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "search failed")
	}

	if instructors, err := s.courses.SearchInstructorSkills(ctx, searchText); err != nil {
		s.logger.Warn("instructor skill search failed", zap.Error(err))
	} else {
		s.logger.Debug("instructor skill search", zap.Int("matches", len(instructors)))
	}

	return s.assembleCourses(ctx, courses)
}

func (s *CatalogService) requireCategories(ctx context.Context, ids []string) error {
	count, err := s.categories.CountByIDs(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify categories")
	}
	if count != len(ids) {
		return appErrors.Clone(appErrors.ErrValidation, "one or more categories do not exist")
	}
	return nil
}

func (s *CatalogService) assembleCourses(ctx context.Context, courses []models.Course) ([]models.CourseInfo, error) {
	infos := make([]models.CourseInfo, 0, len(courses))
	if len(courses) == 0 {
		return infos, nil
	}

	ids := make([]string, len(courses))
	for i, course := range courses {
		ids[i] = course.ID
	}

	categoriesByCourse, err := s.courses.CategoriesByCourse(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course categories")
	}
	instructorsByCourse, err := s.courses.InstructorsByCourse(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course instructors")
	}

	for _, course := range courses {
		categories := categoriesByCourse[course.ID]
		if categories == nil {
			categories = []models.Category{}
		}
		instructorDetails := instructorsByCourse[course.ID]
		instructors := make([]models.InstructorInfo, 0, len(instructorDetails))
		for _, detail := range instructorDetails {
			instructors = append(instructors, models.ToInstructorInfo(detail))
		}

		infos = append(infos, models.CourseInfo{
			ID:          course.ID,
			Name:        course.Name,
			Description: course.Description,
			Price:       course.Price,
			Duration:    course.Duration,
			Categories:  categories,
			Instructors: instructors,
		})
	}

	return infos, nil
}
