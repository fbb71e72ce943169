package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freecs/freecs-api/internal/models"
	appErrors "github.com/freecs/freecs-api/pkg/errors"
)

type mockInstructorRepo struct {
	details   map[string]*models.InstructorDetail
	updated   map[string]models.UpdateInstructorRequest
	updateErr error
}

func newMockInstructorRepo() *mockInstructorRepo {
	return &mockInstructorRepo{
		details: make(map[string]*models.InstructorDetail),
		updated: make(map[string]models.UpdateInstructorRequest),
	}
}

func (m *mockInstructorRepo) List(ctx context.Context) ([]models.InstructorDetail, error) {
	out := make([]models.InstructorDetail, 0, len(m.details))
	for _, d := range m.details {
		out = append(out, *d)
	}
	return out, nil
}

func (m *mockInstructorRepo) FindByID(ctx context.Context, id string) (*models.InstructorDetail, error) {
	d, ok := m.details[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return d, nil
}

func (m *mockInstructorRepo) Update(ctx context.Context, id string, req models.UpdateInstructorRequest) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	d, ok := m.details[id]
	if !ok {
		return sql.ErrNoRows
	}
	if req.Bio != nil {
		d.Bio = *req.Bio
	}
	if req.Experience != nil {
		d.Experience = *req.Experience
	}
	if req.RatePerHour != nil {
		d.RatePerHour = *req.RatePerHour
	}
	if len(req.Skills) > 0 {
		d.Skills = req.Skills
	}
	m.updated[id] = req
	return nil
}

func TestInstructorListNestsMemberData(t *testing.T) {
	repo := newMockInstructorRepo()
	repo.details["inst-1"] = &models.InstructorDetail{
		ID: "inst-1", MemberID: "m1", IsInstructor: true,
		UserID: "u1", Username: "jane", Email: "jane@example.com",
	}
	svc := NewInstructorService(repo, nil, nil)

	infos, err := svc.List(context.Background())
	require.NoError(t, err)

	require.Len(t, infos, 1)
	assert.Equal(t, "m1", infos[0].Member.ID)
	assert.Equal(t, "jane", infos[0].Member.User.Username)
	// Absent skills serialize as an empty object, not null.
	assert.Equal(t, json.RawMessage(`{}`), infos[0].Skills)
}

func TestInstructorUpdatePartial(t *testing.T) {
	repo := newMockInstructorRepo()
	repo.details["inst-1"] = &models.InstructorDetail{ID: "inst-1", MemberID: "m1", Bio: "old", Experience: 2}
	svc := NewInstructorService(repo, nil, nil)

	bio := "teaches Go"
	info, err := svc.Update(context.Background(), "inst-1", models.UpdateInstructorRequest{Bio: &bio})
	require.NoError(t, err)

	assert.Equal(t, "teaches Go", info.Bio)
	assert.Equal(t, 2, info.Experience)
}

func TestInstructorUpdateUnknownID(t *testing.T) {
	svc := NewInstructorService(newMockInstructorRepo(), nil, nil)

	_, err := svc.Update(context.Background(), "ghost", models.UpdateInstructorRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Status, appErrors.FromError(err).Status)
}

func TestInstructorUpdateRejectsNegativeRate(t *testing.T) {
	repo := newMockInstructorRepo()
	repo.details["inst-1"] = &models.InstructorDetail{ID: "inst-1"}
	svc := NewInstructorService(repo, nil, nil)

	rate := -10.0
	_, err := svc.Update(context.Background(), "inst-1", models.UpdateInstructorRequest{RatePerHour: &rate})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
