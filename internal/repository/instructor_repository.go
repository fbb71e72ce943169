package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/freecs/freecs-api/internal/models"
)

// InstructorRepository handles persistence of instructor profiles.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository creates a new repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

const instructorDetailQuery = `
SELECT i.id, i.member_id, i.skills, i.bio, i.experience, i.rate_per_hour,
       m.is_instructor,
       u.id AS user_id, u.username, u.email, u.first_name, u.last_name
FROM instructors i
JOIN members m ON m.id = i.member_id
JOIN users u ON u.id = m.user_id`

// List returns all instructors with member and user data.
func (r *InstructorRepository) List(ctx context.Context) ([]models.InstructorDetail, error) {
	query := instructorDetailQuery + ` ORDER BY u.username ASC`
	var instructors []models.InstructorDetail
	if err := r.db.SelectContext(ctx, &instructors, query); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	return instructors, nil
}

// FindByID returns one instructor with member and user data.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.InstructorDetail, error) {
	query := instructorDetailQuery + ` WHERE i.id = $1 LIMIT 1`
	var instructor models.InstructorDetail
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find instructor by id: %w", err)
	}
	return &instructor, nil
}

// FindByMemberID returns the instructor row owned by a member.
func (r *InstructorRepository) FindByMemberID(ctx context.Context, memberID string) (*models.Instructor, error) {
	const query = `SELECT id, member_id, skills, bio, experience, rate_per_hour, updated_at FROM instructors WHERE member_id = $1 LIMIT 1`
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, memberID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find instructor by member id: %w", err)
	}
	return &instructor, nil
}

// Update applies a partial update of instructor profile fields.
func (r *InstructorRepository) Update(ctx context.Context, id string, req models.UpdateInstructorRequest) error {
	var sets []string
	var args []interface{}
	args = append(args, id)

	if len(req.Skills) > 0 {
		sets = append(sets, fmt.Sprintf("skills = $%d", len(args)+1))
		args = append(args, []byte(req.Skills))
	}
	if req.Bio != nil {
		sets = append(sets, fmt.Sprintf("bio = $%d", len(args)+1))
		args = append(args, *req.Bio)
	}
	if req.Experience != nil {
		sets = append(sets, fmt.Sprintf("experience = $%d", len(args)+1))
		args = append(args, *req.Experience)
	}
	if req.RatePerHour != nil {
		sets = append(sets, fmt.Sprintf("rate_per_hour = $%d", len(args)+1))
		args = append(args, *req.RatePerHour)
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)+1))
	args = append(args, time.Now().UTC())

	query := fmt.Sprintf("UPDATE instructors SET %s WHERE id = $1", strings.Join(sets, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update instructor: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
