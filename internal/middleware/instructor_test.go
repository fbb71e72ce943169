package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/freecs/freecs-api/internal/models"
)

func runRequireInstructor(t *testing.T, claims interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/courses/add", nil)
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}

	RequireInstructor()(c)
	return w
}

func TestRequireInstructorAllowsInstructor(t *testing.T) {
	w := runRequireInstructor(t, &models.JWTClaims{UserID: "u1", MemberID: "m1", IsInstructor: true})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireInstructorRejectsNonInstructor(t *testing.T) {
	w := runRequireInstructor(t, &models.JWTClaims{UserID: "u1", MemberID: "m1"})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireInstructorRejectsMissingClaims(t *testing.T) {
	w := runRequireInstructor(t, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireInstructorRejectsUnexpectedClaimType(t *testing.T) {
	// A stray value under the context key must produce 401, not a panic.
	w := runRequireInstructor(t, "not-claims")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
