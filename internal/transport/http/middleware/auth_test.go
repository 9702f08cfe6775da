package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treelinux/leafregistry/internal/domain"
)

const testSecret = "test-secret"

type stubUserRepo struct {
	user *domain.User
}

func (s *stubUserRepo) Create(ctx context.Context, user *domain.User) error { return nil }
func (s *stubUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, nil
}
func (s *stubUserRepo) GetByHandle(ctx context.Context, handle uuid.UUID) (*domain.User, error) {
	if s.user != nil && s.user.Handle == handle {
		cp := *s.user
		return &cp, nil
	}
	return nil, nil
}
func (s *stubUserRepo) SearchByUsername(ctx context.Context, query string, limit int) ([]domain.User, error) {
	return nil, nil
}
func (s *stubUserRepo) UpdateBio(ctx context.Context, id int64, bio *string) error       { return nil }
func (s *stubUserRepo) UpdateAvatar(ctx context.Context, id int64, avatar *string) error { return nil }
func (s *stubUserRepo) UpdateRole(ctx context.Context, id int64, role domain.Role) error { return nil }
func (s *stubUserRepo) UpdateBan(ctx context.Context, id int64, permanent bool, until *time.Time) error {
	return nil
}
func (s *stubUserRepo) UpdateUsername(ctx context.Context, id int64, username string, changedAt time.Time) error {
	return nil
}

func signToken(t *testing.T, handle uuid.UUID) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": handle.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, repo *stubUserRepo, authorization string) (*httptest.ResponseRecorder, *domain.User) {
	t.Helper()
	var seen *domain.User
	handler := Auth(testSecret, repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func TestAuthHappyPath(t *testing.T) {
	handle := uuid.New()
	repo := &stubUserRepo{user: &domain.User{ID: 1, Username: "alice", Handle: handle, Role: domain.RoleMember}}

	rec, seen := doRequest(t, repo, "Bearer "+signToken(t, handle))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "alice", seen.Username)
}

func TestAuthMissingOrMalformedToken(t *testing.T) {
	repo := &stubUserRepo{}

	rec, _ := doRequest(t, repo, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doRequest(t, repo, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthUnknownHandle(t *testing.T) {
	repo := &stubUserRepo{}
	rec, _ := doRequest(t, repo, "Bearer "+signToken(t, uuid.New()))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// A ban takes effect on the very next request: the record is re-read from
// the store, not trusted from the token.
func TestAuthBanAppliesImmediately(t *testing.T) {
	handle := uuid.New()
	repo := &stubUserRepo{user: &domain.User{ID: 1, Username: "alice", Handle: handle, Role: domain.RoleMember}}
	token := "Bearer " + signToken(t, handle)

	rec, _ := doRequest(t, repo, token)
	require.Equal(t, http.StatusOK, rec.Code)

	until := time.Now().Add(time.Hour)
	repo.user.BanUntil = &until

	rec, _ = doRequest(t, repo, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// Role changes are likewise visible without re-login.
func TestAuthRoleRefresh(t *testing.T) {
	handle := uuid.New()
	repo := &stubUserRepo{user: &domain.User{ID: 1, Username: "alice", Handle: handle, Role: domain.RoleMember}}
	token := "Bearer " + signToken(t, handle)

	_, seen := doRequest(t, repo, token)
	require.NotNil(t, seen)
	assert.Equal(t, domain.RoleMember, seen.Role)

	repo.user.Role = domain.RoleAdmin
	_, seen = doRequest(t, repo, token)
	require.NotNil(t, seen)
	assert.Equal(t, domain.RoleAdmin, seen.Role)
}
