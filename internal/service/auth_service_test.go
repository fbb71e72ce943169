package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/freecs/freecs-api/internal/models"
	"github.com/freecs/freecs-api/internal/repository"
	appErrors "github.com/freecs/freecs-api/pkg/errors"
	"github.com/freecs/freecs-api/pkg/jobs"
	"github.com/freecs/freecs-api/pkg/mail"
	"github.com/freecs/freecs-api/pkg/token"
)

type mockAuthRepo struct {
	usersByID         map[string]*models.User
	membersByUserID   map[string]*models.Member
	refreshTokens     map[string]*models.RefreshToken
	createAccountErr  error
	createdInstructor *models.Instructor
	revokedUserIDs    []string
	passwordUpdated   bool
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		usersByID:       make(map[string]*models.User),
		membersByUserID: make(map[string]*models.Member),
		refreshTokens:   make(map[string]*models.RefreshToken),
	}
}

func (m *mockAuthRepo) addUser(user *models.User, member *models.Member) {
	m.usersByID[user.ID] = user
	if member != nil {
		member.UserID = user.ID
		m.membersByUserID[user.ID] = member
	}
}

func (m *mockAuthRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.usersByID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.usersByID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.usersByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthRepo) FindMemberByUserID(ctx context.Context, userID string) (*models.Member, error) {
	member, ok := m.membersByUserID[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return member, nil
}

func (m *mockAuthRepo) CreateAccount(ctx context.Context, user *models.User, member *models.Member, instructor *models.Instructor) error {
	if m.createAccountErr != nil {
		return m.createAccountErr
	}
	user.ID = uuid.NewString()
	member.ID = uuid.NewString()
	member.UserID = user.ID
	m.usersByID[user.ID] = user
	m.membersByUserID[user.ID] = member
	if instructor != nil {
		instructor.ID = uuid.NewString()
		instructor.MemberID = member.ID
		m.createdInstructor = instructor
	}
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	u, ok := m.usersByID[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	m.passwordUpdated = true
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, rt *models.RefreshToken) error {
	m.refreshTokens[rt.Token] = rt
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, tok string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[tok]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, rt := range m.refreshTokens {
		if rt.ID == id {
			rt.Revoked = true
			rt.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedUserIDs = append(m.revokedUserIDs, userID)
	return nil
}

type mockResetStore struct {
	consumed map[string]bool
	err      error
}

func (m *mockResetStore) Consume(ctx context.Context, userID, resetToken string, ttl time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.consumed == nil {
		m.consumed = make(map[string]bool)
	}
	key := userID + ":" + resetToken
	if m.consumed[key] {
		return false, nil
	}
	m.consumed[key] = true
	return true, nil
}

type mockMailQueue struct {
	jobs []jobs.Job
	err  error
}

func (m *mockMailQueue) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func newAuthService(repo *mockAuthRepo, store *mockResetStore, queue *mockMailQueue) *AuthService {
	signer := token.NewResetSigner("test-reset-secret", time.Hour)
	return NewAuthService(repo, validator.New(), zap.NewNop(), signer, store, queue, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "freecs-api",
		ResetTokenTTL:      time.Hour,
		ResetLinkBaseURL:   "http://127.0.0.1:8000",
	})
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return string(hash)
}

func TestSignUpCreatesInstructorRecord(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo, &mockResetStore{}, &mockMailQueue{})

	res, err := svc.SignUp(context.Background(), models.SignUpRequest{
		Username:     "jane",
		Password:     "secret123",
		Email:        "jane@example.com",
		FirstName:    "Jane",
		LastName:     "Doe",
		IsInstructor: true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Token.Access)
	assert.NotEmpty(t, res.Token.Refresh)
	assert.True(t, res.Data.IsInstructor)
	require.NotNil(t, repo.createdInstructor)
	assert.Equal(t, res.Data.ID, repo.createdInstructor.MemberID)
}

func TestSignUpPlainMemberSkipsInstructor(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo, &mockResetStore{}, &mockMailQueue{})

	res, err := svc.SignUp(context.Background(), models.SignUpRequest{
		Username:  "john",
		Password:  "secret123",
		Email:     "john@example.com",
		FirstName: "John",
		LastName:  "Doe",
	})
	require.NoError(t, err)

	assert.False(t, res.Data.IsInstructor)
	assert.Nil(t, repo.createdInstructor)
}

func TestSignUpDuplicateReturnsConflict(t *testing.T) {
	repo := newMockAuthRepo()
	repo.createAccountErr = repository.ErrDuplicate
	svc := newAuthService(repo, &mockResetStore{}, &mockMailQueue{})

	_, err := svc.SignUp(context.Background(), models.SignUpRequest{
		Username:  "jane",
		Password:  "secret123",
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Status, appErr.Status)
}

func TestSignUpRejectsInvalidPayload(t *testing.T) {
	svc := newAuthService(newMockAuthRepo(), &mockResetStore{}, &mockMailQueue{})

	_, err := svc.SignUp(context.Background(), models.SignUpRequest{Username: "jane"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLoginSuccess(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(
		&models.User{ID: "u1", Username: "jane", Email: "jane@example.com", PasswordHash: hashPassword(t, "secret123")},
		&models.Member{ID: "m1", IsInstructor: true},
	)
	svc := newAuthService(repo, &mockResetStore{}, &mockMailQueue{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "jane", Password: "secret123"})
	require.NoError(t, err)

	assert.Equal(t, "Login successful", res.Message)

	claims, err := svc.ValidateToken(res.Token.Access)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "m1", claims.MemberID)
	assert.True(t, claims.IsInstructor)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(
		&models.User{ID: "u1", Username: "jane", Email: "jane@example.com", PasswordHash: hashPassword(t, "secret123")},
		&models.Member{ID: "m1"},
	)
	svc := newAuthService(repo, &mockResetStore{}, &mockMailQueue{})

	_, unknownErr := svc.Login(context.Background(), models.LoginRequest{Username: "nobody", Password: "secret123"})
	_, wrongErr := svc.Login(context.Background(), models.LoginRequest{Username: "jane", Password: "wrong"})

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, appErrors.FromError(unknownErr).Message, appErrors.FromError(wrongErr).Message)
	assert.Equal(t, appErrors.FromError(unknownErr).Status, appErrors.FromError(wrongErr).Status)
}

func TestRefreshTokenRotatesStoredToken(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(
		&models.User{ID: "u1", Username: "jane", Email: "jane@example.com", PasswordHash: hashPassword(t, "secret123")},
		&models.Member{ID: "m1"},
	)
	svc := newAuthService(repo, &mockResetStore{}, &mockMailQueue{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "jane", Password: "secret123"})
	require.NoError(t, err)

	pair, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: res.Token.Refresh})
	require.NoError(t, err)
	assert.NotEqual(t, res.Token.Refresh, pair.Refresh)

	// The used token is revoked and cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: res.Token.Refresh})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Status, appErrors.FromError(err).Status)
}

func TestRefreshTokenUnknownTokenRejected(t *testing.T) {
	svc := newAuthService(newMockAuthRepo(), &mockResetStore{}, &mockMailQueue{})

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Status, appErrors.FromError(err).Status)
}

func TestChangePasswordMismatchRejected(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(
		&models.User{ID: "u1", Username: "jane", Email: "jane@example.com", PasswordHash: hashPassword(t, "old-secret")},
		&models.Member{ID: "m1"},
	)
	svc := newAuthService(repo, &mockResetStore{}, &mockMailQueue{})

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		Password:        "new-secret",
		ConfirmPassword: "different",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.False(t, repo.passwordUpdated)
}

func TestChangePasswordRevokesRefreshTokens(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(
		&models.User{ID: "u1", Username: "jane", Email: "jane@example.com", PasswordHash: hashPassword(t, "old-secret")},
		&models.Member{ID: "m1"},
	)
	svc := newAuthService(repo, &mockResetStore{}, &mockMailQueue{})

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		Password:        "new-secret",
		ConfirmPassword: "new-secret",
	})
	require.NoError(t, err)

	assert.True(t, repo.passwordUpdated)
	assert.Contains(t, repo.revokedUserIDs, "u1")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.usersByID["u1"].PasswordHash), []byte("new-secret")))
}

func TestRequestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	queue := &mockMailQueue{}
	svc := newAuthService(newMockAuthRepo(), &mockResetStore{}, queue)

	err := svc.RequestPasswordReset(context.Background(), models.SendResetRequest{Email: "ghost@example.com"})
	require.NoError(t, err)
	assert.Empty(t, queue.jobs)
}

func TestRequestPasswordResetQueuesEmailWithLink(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(
		&models.User{ID: "u1", Username: "jane", Email: "jane@example.com", PasswordHash: hashPassword(t, "secret123")},
		&models.Member{ID: "m1"},
	)
	queue := &mockMailQueue{}
	svc := newAuthService(repo, &mockResetStore{}, queue)

	err := svc.RequestPasswordReset(context.Background(), models.SendResetRequest{Email: "jane@example.com"})
	require.NoError(t, err)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "password_reset_email", queue.jobs[0].Type)

	msg, ok := queue.jobs[0].Payload.(mail.Message)
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", msg.To)
	assert.Contains(t, msg.Body, "http://127.0.0.1:8000/send-reset/"+token.EncodeUID("u1")+"/")
}

func TestConfirmPasswordResetSuccess(t *testing.T) {
	repo := newMockAuthRepo()
	user := &models.User{ID: "u1", Username: "jane", Email: "jane@example.com", PasswordHash: hashPassword(t, "secret123")}
	repo.addUser(user, &models.Member{ID: "m1"})
	queue := &mockMailQueue{}
	svc := newAuthService(repo, &mockResetStore{}, queue)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), models.SendResetRequest{Email: "jane@example.com"}))
	uid, resetToken := extractResetLink(t, queue)

	err := svc.ConfirmPasswordReset(context.Background(), models.ConfirmResetRequest{
		Password:        "brand-new",
		ConfirmPassword: "brand-new",
		UID:             uid,
		Token:           resetToken,
	})
	require.NoError(t, err)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("brand-new")))
	assert.Contains(t, repo.revokedUserIDs, "u1")
}

func TestConfirmPasswordResetTokenIsSingleUse(t *testing.T) {
	repo := newMockAuthRepo()
	user := &models.User{ID: "u1", Username: "jane", Email: "jane@example.com", PasswordHash: hashPassword(t, "secret123")}
	repo.addUser(user, &models.Member{ID: "m1"})
	queue := &mockMailQueue{}
	store := &mockResetStore{}
	svc := newAuthService(repo, store, queue)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), models.SendResetRequest{Email: "jane@example.com"}))
	uid, resetToken := extractResetLink(t, queue)

	req := models.ConfirmResetRequest{
		Password:        "brand-new",
		ConfirmPassword: "brand-new",
		UID:             uid,
		Token:           resetToken,
	}
	require.NoError(t, svc.ConfirmPasswordReset(context.Background(), req))

	// Replaying the same token fails with the generic reset error. The hash
	// binding alone would already reject it, and the consumption marker
	// covers resets that do not change the effective hash.
	err := svc.ConfirmPasswordReset(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidResetToken.Code, appErrors.FromError(err).Code)
}

func TestConfirmPasswordResetBadUID(t *testing.T) {
	svc := newAuthService(newMockAuthRepo(), &mockResetStore{}, &mockMailQueue{})

	err := svc.ConfirmPasswordReset(context.Background(), models.ConfirmResetRequest{
		Password:        "brand-new",
		ConfirmPassword: "brand-new",
		UID:             "%%%not-base64%%%",
		Token:           "1700000000.deadbeef",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidResetToken.Code, appErrors.FromError(err).Code)
}

func TestConfirmPasswordResetWrongUserToken(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(&models.User{ID: "u1", Username: "jane", Email: "jane@example.com", PasswordHash: hashPassword(t, "secret123")}, &models.Member{ID: "m1"})
	repo.addUser(&models.User{ID: "u2", Username: "john", Email: "john@example.com", PasswordHash: hashPassword(t, "secret456")}, &models.Member{ID: "m2"})
	queue := &mockMailQueue{}
	svc := newAuthService(repo, &mockResetStore{}, queue)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), models.SendResetRequest{Email: "jane@example.com"}))
	_, resetToken := extractResetLink(t, queue)

	// Jane's token presented with John's uid must fail.
	err := svc.ConfirmPasswordReset(context.Background(), models.ConfirmResetRequest{
		Password:        "brand-new",
		ConfirmPassword: "brand-new",
		UID:             token.EncodeUID("u2"),
		Token:           resetToken,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidResetToken.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(
		&models.User{ID: "u1", Username: "jane", Email: "jane@example.com", PasswordHash: hashPassword(t, "secret123")},
		&models.Member{ID: "m1"},
	)
	svc := newAuthService(repo, &mockResetStore{}, &mockMailQueue{})

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "jane", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(res.Token.Access + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Status, appErrors.FromError(err).Status)
}

func extractResetLink(t *testing.T, queue *mockMailQueue) (uid, resetToken string) {
	t.Helper()
	require.NotEmpty(t, queue.jobs)
	msg, ok := queue.jobs[len(queue.jobs)-1].Payload.(mail.Message)
	require.True(t, ok)

	lines := strings.Split(msg.Body, "\n")
	link := lines[len(lines)-1]
	parts := strings.Split(strings.Trim(link, "/"), "/")
	require.GreaterOrEqual(t, len(parts), 2)
	return parts[len(parts)-2], parts[len(parts)-1]
}
