package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/freecs/freecs-api/internal/models"
)

// PreferenceRepository handles persistence of member preferences.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository creates a new repository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Create inserts a preference with its category links in one transaction. A
// member's second preference trips the unique constraint and surfaces as
// ErrDuplicate.
func (r *PreferenceRepository) Create(ctx context.Context, preference *models.Preference, categoryIDs []string) error {
	if preference.ID == "" {
		preference.ID = uuid.NewString()
	}
	if preference.CreatedAt.IsZero() {
		preference.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create preference: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx, `INSERT INTO preferences (id, member_id, created_at)
		VALUES (:id, :member_id, :created_at)`, preference); err != nil {
		err = translateUnique(err)
		return err
	}

	for _, categoryID := range categoryIDs {
		if _, err = tx.ExecContext(ctx, `INSERT INTO preference_categories (preference_id, category_id) VALUES ($1, $2)`, preference.ID, categoryID); err != nil {
			return fmt.Errorf("link preference category: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create preference: %w", err)
	}
	return nil
}

// FindByMemberID returns a member's preference.
func (r *PreferenceRepository) FindByMemberID(ctx context.Context, memberID string) (*models.Preference, error) {
	const query = `SELECT id, member_id, created_at FROM preferences WHERE member_id = $1 LIMIT 1`
	var preference models.Preference
	if err := r.db.GetContext(ctx, &preference, query, memberID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find preference by member id: %w", err)
	}
	return &preference, nil
}

// CategoriesFor returns the categories attached to a preference.
func (r *PreferenceRepository) CategoriesFor(ctx context.Context, preferenceID string) ([]models.Category, error) {
	const query = `SELECT c.id, c.name
FROM preference_categories pc
JOIN categories c ON c.id = pc.category_id
WHERE pc.preference_id = $1
ORDER BY c.name ASC`
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query, preferenceID); err != nil {
		return nil, fmt.Errorf("load preference categories: %w", err)
	}
	return categories, nil
}
