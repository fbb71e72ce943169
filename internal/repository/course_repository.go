package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/freecs/freecs-api/internal/models"
)

// CourseRepository handles persistence of courses and their category and
// instructor links.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, name, description, price, duration`

// List returns a page of courses with the total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + courseColumns + ` FROM courses ORDER BY name ASC LIMIT $1 OFFSET $2`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM courses`); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	return courses, total, nil
}

// ListAll returns every course, used by catalog exports.
func (r *CourseRepository) ListAll(ctx context.Context) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses ORDER BY name ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list all courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a single course.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// Create inserts a course with its category links and the single owning
// instructor inside one transaction.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course, categoryIDs []string, instructorID string) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create course: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx, `INSERT INTO courses (id, name, description, price, duration)
		VALUES (:id, :name, :description, :price, :duration)`, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}

	for _, categoryID := range categoryIDs {
		if _, err = tx.ExecContext(ctx, `INSERT INTO course_categories (course_id, category_id) VALUES ($1, $2)`, course.ID, categoryID); err != nil {
			return fmt.Errorf("link course category: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO course_instructors (course_id, instructor_id) VALUES ($1, $2)`, course.ID, instructorID); err != nil {
		return fmt.Errorf("link course instructor: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create course: %w", err)
	}
	return nil
}

type courseCategoryRow struct {
	CourseID string `db:"course_id"`
	ID       string `db:"id"`
	Name     string `db:"name"`
}

// CategoriesByCourse returns the categories of each given course.
func (r *CourseRepository) CategoriesByCourse(ctx context.Context, courseIDs []string) (map[string][]models.Category, error) {
	result := make(map[string][]models.Category, len(courseIDs))
	if len(courseIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT cc.course_id, c.id, c.name
FROM course_categories cc
JOIN categories c ON c.id = cc.category_id
WHERE cc.course_id IN (?)
ORDER BY c.name ASC`, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("build course categories query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []courseCategoryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("load course categories: %w", err)
	}

	for _, row := range rows {
		result[row.CourseID] = append(result[row.CourseID], models.Category{ID: row.ID, Name: row.Name})
	}
	return result, nil
}

type courseInstructorRow struct {
	CourseID string `db:"course_id"`
	models.InstructorDetail
}

// InstructorsByCourse returns the instructors of each given course with
// member and user data.
func (r *CourseRepository) InstructorsByCourse(ctx context.Context, courseIDs []string) (map[string][]models.InstructorDetail, error) {
	result := make(map[string][]models.InstructorDetail, len(courseIDs))
	if len(courseIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT ci.course_id,
       i.id, i.member_id, i.skills, i.bio, i.experience, i.rate_per_hour,
       m.is_instructor,
       u.id AS user_id, u.username, u.email, u.first_name, u.last_name
FROM course_instructors ci
JOIN instructors i ON i.id = ci.instructor_id
JOIN members m ON m.id = i.member_id
JOIN users u ON u.id = m.user_id
WHERE ci.course_id IN (?)
ORDER BY u.username ASC`, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("build course instructors query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []courseInstructorRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("load course instructors: %w", err)
	}

	for _, row := range rows {
		result[row.CourseID] = append(result[row.CourseID], row.InstructorDetail)
	}
	return result, nil
}

// PreferredByMember returns the deduplicated set of courses tagged with any
// category of the member's preference. An empty slice means the member has no
// preference or no category matches.
func (r *CourseRepository) PreferredByMember(ctx context.Context, memberID string) ([]models.Course, error) {
	const query = `SELECT DISTINCT c.id, c.name, c.description, c.price, c.duration
FROM courses c
JOIN course_categories cc ON cc.course_id = c.id
JOIN preference_categories pc ON pc.category_id = cc.category_id
JOIN preferences p ON p.id = pc.preference_id
WHERE p.member_id = $1
ORDER BY c.name ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, memberID); err != nil {
		return nil, fmt.Errorf("preferred courses: %w", err)
	}
	return courses, nil
}

// SearchByPattern performs a case-insensitive regex match of the pattern
// against course names and their category names.
func (r *CourseRepository) SearchByPattern(ctx context.Context, pattern string) ([]models.Course, error) {
	const query = `SELECT DISTINCT c.id, c.name, c.description, c.price, c.duration
FROM courses c
LEFT JOIN course_categories cc ON cc.course_id = c.id
LEFT JOIN categories cat ON cat.id = cc.category_id
WHERE c.name ~* $1 OR cat.name ~* $1
ORDER BY c.name ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, pattern); err != nil {
		return nil, fmt.Errorf("search courses: %w", err)
	}
	return courses, nil
}

// SearchInstructorSkills matches the pattern against instructor skill maps.
func (r *CourseRepository) SearchInstructorSkills(ctx context.Context, pattern string) ([]models.Instructor, error) {
	const query = `SELECT id, member_id, skills, bio, experience, rate_per_hour, updated_at
FROM instructors
WHERE skills::text ~* $1`
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, pattern); err != nil {
		return nil, fmt.Errorf("search instructor skills: %w", err)
	}
	return instructors, nil
}
