package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/freecs/freecs-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns all enrollments with member and course names.
func (r *EnrollmentRepository) List(ctx context.Context) ([]models.EnrollmentDetail, error) {
	const query = `
SELECT e.id, e.member_id, e.course_id, e.enrolled_at,
       c.name AS course_name,
       u.username
FROM enrollments e
JOIN courses c ON c.id = e.course_id
JOIN members m ON m.id = e.member_id
JOIN users u ON u.id = m.user_id
ORDER BY e.enrolled_at DESC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// Create inserts an enrollment. The enrollment timestamp is set here and
// never updated. A second enrollment against the same course trips the unique
// constraint and surfaces as ErrDuplicate.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	enrollment.EnrolledAt = time.Now().UTC()

	const query = `INSERT INTO enrollments (id, member_id, course_id, enrolled_at)
		VALUES (:id, :member_id, :course_id, :enrolled_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return translateUnique(err)
	}
	return nil
}
