package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"bookstore/api/internal/models"
	"bookstore/api/internal/repository"
	"bookstore/api/internal/security"
)

type fakeUserSource struct {
	users map[string]models.User
}

func (f *fakeUserSource) GetByID(_ context.Context, id string) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func newAuthTestRouter(t *testing.T, issuer *security.TokenIssuer, users *fakeUserSource, extra ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	chain := append([]gin.HandlerFunc{Auth(issuer, users)}, extra...)
	chain = append(chain, func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no_user_in_context"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": user.Email})
	})
	r.GET("/protected", chain...)
	return r
}

func doGet(r *gin.Engine, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func testIssuer(t *testing.T) *security.TokenIssuer {
	t.Helper()
	issuer, err := security.NewTokenIssuer("test-secret", 15*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	return issuer
}

func activeUser(id string, role models.UserRole) models.User {
	return models.User{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: "Test",
		Role:        role,
		Status:      models.UserStatusActive,
	}
}

func TestAuthMissingHeader(t *testing.T) {
	issuer := testIssuer(t)
	r := newAuthTestRouter(t, issuer, &fakeUserSource{users: map[string]models.User{}})

	w := doGet(r, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "missing_token") {
		t.Fatalf("expected missing_token code, got %s", w.Body.String())
	}
}

func TestAuthInvalidToken(t *testing.T) {
	issuer := testIssuer(t)
	r := newAuthTestRouter(t, issuer, &fakeUserSource{users: map[string]models.User{}})

	w := doGet(r, "garbage")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid_token") {
		t.Fatalf("expected invalid_token code, got %s", w.Body.String())
	}
}

func TestAuthExpiredTokenDistinctCode(t *testing.T) {
	issuer, err := security.NewTokenIssuer("test-secret", time.Nanosecond, time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	users := &fakeUserSource{users: map[string]models.User{"u1": activeUser("u1", models.UserRoleUser)}}
	r := newAuthTestRouter(t, issuer, users)

	token, err := issuer.IssueAccessToken("u1", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	w := doGet(r, token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "token_expired") {
		t.Fatalf("expected token_expired code, got %s", w.Body.String())
	}
}

func TestAuthRejectsRefreshTokenOnProtectedRoute(t *testing.T) {
	issuer := testIssuer(t)
	users := &fakeUserSource{users: map[string]models.User{"u1": activeUser("u1", models.UserRoleUser)}}
	r := newAuthTestRouter(t, issuer, users)

	refresh, err := issuer.IssueRefreshToken("u1", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	w := doGet(r, refresh)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthUnknownUser(t *testing.T) {
	issuer := testIssuer(t)
	r := newAuthTestRouter(t, issuer, &fakeUserSource{users: map[string]models.User{}})

	token, err := issuer.IssueAccessToken("ghost", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	w := doGet(r, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "user_not_found") {
		t.Fatalf("expected user_not_found code, got %s", w.Body.String())
	}
}

// Deactivation is checked on every request, so an already-issued access
// token stops working the moment the account goes INACTIVE.
func TestAuthInactiveUserRejectedImmediately(t *testing.T) {
	issuer := testIssuer(t)
	user := activeUser("u1", models.UserRoleUser)
	users := &fakeUserSource{users: map[string]models.User{"u1": user}}
	r := newAuthTestRouter(t, issuer, users)

	token, err := issuer.IssueAccessToken("u1", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if w := doGet(r, token); w.Code != http.StatusOK {
		t.Fatalf("expected 200 while active, got %d", w.Code)
	}

	user.Status = models.UserStatusInactive
	users.users["u1"] = user

	w := doGet(r, token)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 after deactivation, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "user_inactive") {
		t.Fatalf("expected user_inactive code, got %s", w.Body.String())
	}
}

func TestRequireRolesForbidsUser(t *testing.T) {
	issuer := testIssuer(t)
	users := &fakeUserSource{users: map[string]models.User{
		"u1": activeUser("u1", models.UserRoleUser),
		"a1": activeUser("a1", models.UserRoleAdmin),
	}}
	r := newAuthTestRouter(t, issuer, users, RequireRoles(models.UserRoleAdmin))

	userToken, err := issuer.IssueAccessToken("u1", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	adminToken, err := issuer.IssueAccessToken("a1", "ADMIN")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	w := doGet(r, userToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("USER on admin route: expected 403, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "forbidden") {
		t.Fatalf("expected forbidden code, got %s", w.Body.String())
	}

	if w := doGet(r, adminToken); w.Code != http.StatusOK {
		t.Fatalf("ADMIN on admin route: expected 200, got %d", w.Code)
	}
}
