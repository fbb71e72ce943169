package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freecs/freecs-api/internal/models"
	appErrors "github.com/freecs/freecs-api/pkg/errors"
)

type mockCategoryRepo struct {
	categories []models.Category
	countByIDs int
	listErr    error
	createErr  error
}

func (m *mockCategoryRepo) List(ctx context.Context) ([]models.Category, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.categories, nil
}

func (m *mockCategoryRepo) Create(ctx context.Context, category *models.Category) error {
	if m.createErr != nil {
		return m.createErr
	}
	category.ID = "cat-new"
	m.categories = append(m.categories, *category)
	return nil
}

func (m *mockCategoryRepo) CountByIDs(ctx context.Context, ids []string) (int, error) {
	return m.countByIDs, nil
}

type mockCourseRepo struct {
	courses      []models.Course
	total        int
	created      *models.Course
	createdCats  []string
	createdInstr string
	searchHits   []models.Course
	searchedWith string
	preferred    []models.Course
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	return m.courses, m.total, nil
}

func (m *mockCourseRepo) ListAll(ctx context.Context) ([]models.Course, error) {
	return m.courses, nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	for i := range m.courses {
		if m.courses[i].ID == id {
			return &m.courses[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course, categoryIDs []string, instructorID string) error {
	course.ID = "course-new"
	m.created = course
	m.createdCats = categoryIDs
	m.createdInstr = instructorID
	return nil
}

func (m *mockCourseRepo) CategoriesByCourse(ctx context.Context, courseIDs []string) (map[string][]models.Category, error) {
	out := make(map[string][]models.Category)
	for _, id := range courseIDs {
		out[id] = []models.Category{{ID: "cat-1", Name: "Programming"}}
	}
	return out, nil
}

func (m *mockCourseRepo) InstructorsByCourse(ctx context.Context, courseIDs []string) (map[string][]models.InstructorDetail, error) {
	out := make(map[string][]models.InstructorDetail)
	for _, id := range courseIDs {
		out[id] = []models.InstructorDetail{{ID: "inst-1", MemberID: "m1", Username: "jane", IsInstructor: true}}
	}
	return out, nil
}

func (m *mockCourseRepo) PreferredByMember(ctx context.Context, memberID string) ([]models.Course, error) {
	return m.preferred, nil
}

func (m *mockCourseRepo) SearchByPattern(ctx context.Context, pattern string) ([]models.Course, error) {
	m.searchedWith = pattern
	hits := make([]models.Course, 0)
	for _, c := range m.searchHits {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(pattern)) {
			hits = append(hits, c)
		}
	}
	return hits, nil
}

func (m *mockCourseRepo) SearchInstructorSkills(ctx context.Context, pattern string) ([]models.Instructor, error) {
	return nil, nil
}

type mockInstructorLookup struct {
	instructor *models.Instructor
	err        error
}

func (m *mockInstructorLookup) FindByMemberID(ctx context.Context, memberID string) (*models.Instructor, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.instructor == nil {
		return nil, sql.ErrNoRows
	}
	return m.instructor, nil
}

func newCatalogService(categories *mockCategoryRepo, courses *mockCourseRepo, instructors *mockInstructorLookup) *CatalogService {
	return NewCatalogService(categories, courses, instructors, nil, nil)
}

func instructorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "u1", MemberID: "m1", Username: "jane", IsInstructor: true}
}

func TestListCoursesAssemblesNestedData(t *testing.T) {
	courses := &mockCourseRepo{
		courses: []models.Course{{ID: "c1", Name: "Go Basics", Price: 49.9, Duration: 10}},
		total:   1,
	}
	svc := newCatalogService(&mockCategoryRepo{}, courses, &mockInstructorLookup{})

	infos, pagination, err := svc.ListCourses(context.Background(), models.CourseFilter{Limit: 5})
	require.NoError(t, err)

	require.Len(t, infos, 1)
	assert.Equal(t, "Go Basics", infos[0].Name)
	require.Len(t, infos[0].Categories, 1)
	assert.Equal(t, "Programming", infos[0].Categories[0].Name)
	require.Len(t, infos[0].Instructors, 1)
	assert.Equal(t, "jane", infos[0].Instructors[0].Member.User.Username)

	require.NotNil(t, pagination)
	assert.Equal(t, 5, pagination.Limit)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestListCoursesDefaultsPagination(t *testing.T) {
	svc := newCatalogService(&mockCategoryRepo{}, &mockCourseRepo{}, &mockInstructorLookup{})

	infos, pagination, err := svc.ListCourses(context.Background(), models.CourseFilter{Limit: -3, Offset: -1})
	require.NoError(t, err)

	assert.Empty(t, infos)
	assert.Equal(t, 20, pagination.Limit)
	assert.Equal(t, 0, pagination.Offset)
}

func TestCreateCourseForcesCallerAsInstructor(t *testing.T) {
	courses := &mockCourseRepo{}
	instructors := &mockInstructorLookup{instructor: &models.Instructor{ID: "inst-1", MemberID: "m1"}}
	svc := newCatalogService(&mockCategoryRepo{countByIDs: 1}, courses, instructors)

	info, err := svc.CreateCourse(context.Background(), instructorClaims(), models.CreateCourseRequest{
		Name:        "Advanced Go",
		CategoryIDs: []string{"cat-1"},
		Price:       99,
		Duration:    20,
	})
	require.NoError(t, err)

	assert.Equal(t, "inst-1", courses.createdInstr)
	assert.Equal(t, []string{"cat-1"}, courses.createdCats)
	assert.Equal(t, "Advanced Go", info.Name)
}

func TestCreateCourseRejectsNonMember(t *testing.T) {
	svc := newCatalogService(&mockCategoryRepo{}, &mockCourseRepo{}, &mockInstructorLookup{})

	_, err := svc.CreateCourse(context.Background(), nil, models.CreateCourseRequest{Name: "X", CategoryIDs: []string{"cat-1"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Status, appErrors.FromError(err).Status)
}

func TestCreateCourseRejectsNonInstructor(t *testing.T) {
	svc := newCatalogService(&mockCategoryRepo{}, &mockCourseRepo{}, &mockInstructorLookup{})

	claims := &models.JWTClaims{UserID: "u1", MemberID: "m1", IsInstructor: false}
	_, err := svc.CreateCourse(context.Background(), claims, models.CreateCourseRequest{Name: "X", CategoryIDs: []string{"cat-1"}})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Status, appErr.Status)
	assert.Equal(t, "only instructors can create courses", appErr.Message)
}

func TestCreateCourseRejectsMissingInstructorRecord(t *testing.T) {
	svc := newCatalogService(&mockCategoryRepo{countByIDs: 1}, &mockCourseRepo{}, &mockInstructorLookup{})

	_, err := svc.CreateCourse(context.Background(), instructorClaims(), models.CreateCourseRequest{Name: "X", CategoryIDs: []string{"cat-1"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Status, appErrors.FromError(err).Status)
}

func TestCreateCourseRejectsUnknownCategory(t *testing.T) {
	instructors := &mockInstructorLookup{instructor: &models.Instructor{ID: "inst-1"}}
	svc := newCatalogService(&mockCategoryRepo{countByIDs: 0}, &mockCourseRepo{}, instructors)

	_, err := svc.CreateCourse(context.Background(), instructorClaims(), models.CreateCourseRequest{Name: "X", CategoryIDs: []string{"ghost"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSearchEmptyTextReturnsNotFound(t *testing.T) {
	svc := newCatalogService(&mockCategoryRepo{}, &mockCourseRepo{}, &mockInstructorLookup{})

	_, err := svc.Search(context.Background(), "")
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Status, appErr.Status)
	assert.Equal(t, "no search text provided", appErr.Message)
}

func TestSearchInvalidPatternRejected(t *testing.T) {
	svc := newCatalogService(&mockCategoryRepo{}, &mockCourseRepo{}, &mockInstructorLookup{})

	_, err := svc.Search(context.Background(), "[unclosed")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSearchReturnsMatches(t *testing.T) {
	courses := &mockCourseRepo{
		searchHits: []models.Course{
			{ID: "c1", Name: "Go Basics"},
			{ID: "c2", Name: "Rust Basics"},
		},
	}
	svc := newCatalogService(&mockCategoryRepo{}, courses, &mockInstructorLookup{})

	infos, err := svc.Search(context.Background(), "go")
	require.NoError(t, err)

	assert.Equal(t, "go", courses.searchedWith)
	require.Len(t, infos, 1)
	assert.Equal(t, "Go Basics", infos[0].Name)
}

func TestPreferredCoursesEmptyWithoutPreference(t *testing.T) {
	svc := newCatalogService(&mockCategoryRepo{}, &mockCourseRepo{}, &mockInstructorLookup{})

	infos, err := svc.PreferredCourses(context.Background(), "m1")
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestCreateCategory(t *testing.T) {
	categories := &mockCategoryRepo{}
	svc := newCatalogService(categories, &mockCourseRepo{}, &mockInstructorLookup{})

	category, err := svc.CreateCategory(context.Background(), models.CreateCategoryRequest{Name: "Databases"})
	require.NoError(t, err)

	assert.Equal(t, "cat-new", category.ID)
	assert.Equal(t, "Databases", category.Name)
}

func TestCreateCategoryRejectsEmptyName(t *testing.T) {
	svc := newCatalogService(&mockCategoryRepo{}, &mockCourseRepo{}, &mockInstructorLookup{})

	_, err := svc.CreateCategory(context.Background(), models.CreateCategoryRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
