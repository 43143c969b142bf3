package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/annboard/annboard/internal/config"
	"github.com/annboard/annboard/internal/models"
	"github.com/annboard/annboard/internal/repository"
	"github.com/annboard/annboard/internal/service"
)

type stubUserStore struct {
	users map[string]*models.User
}

func (s *stubUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserStore) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, repository.ErrNotFound
}

func (s *stubUserStore) Create(context.Context, *models.User) error  { return nil }
func (s *stubUserStore) Update(context.Context, *models.User) error  { return nil }
func (s *stubUserStore) Delete(context.Context, string) error        { return nil }
func (s *stubUserStore) List(context.Context, string) ([]models.User, error) {
	return nil, nil
}

type stubRevoker struct {
	revoked map[string]bool
}

func (s *stubRevoker) Revoke(_ context.Context, jti string, _ time.Time) error {
	s.revoked[jti] = true
	return nil
}

func (s *stubRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], nil
}

type fixture struct {
	middleware *AuthMiddleware
	jwtService *service.JWTService
	revoker    *stubRevoker
	users      *stubUserStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	jwtService, err := service.NewJWTService(&config.JWTConfig{
		SecretKey:     "0123456789abcdef0123456789abcdef",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
	}, logger)
	require.NoError(t, err)

	revoker := &stubRevoker{revoked: make(map[string]bool)}
	users := &stubUserStore{users: make(map[string]*models.User)}

	return &fixture{
		middleware: NewAuthMiddleware(
			jwtService,
			revoker,
			users,
			service.NewAdminEmailAuthorizer("admin@example.com"),
			logger,
		),
		jwtService: jwtService,
		revoker:    revoker,
		users:      users,
	}
}

func callProtected(handler http.Handler, token string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func okHandler(sawIdentity *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); ok {
			*sawIdentity = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_ValidAccessToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	access, err := f.jwtService.GenerateAccessToken("user-1")
	require.NoError(t, err)

	var sawIdentity bool
	w := callProtected(f.middleware.RequireAuth(okHandler(&sawIdentity)), access)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, sawIdentity)
}

func TestRequireAuth_MissingToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	var sawIdentity bool
	w := callProtected(f.middleware.RequireAuth(okHandler(&sawIdentity)), "")

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"message":"Token not provided"}`, w.Body.String())
	require.False(t, sawIdentity)
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	var sawIdentity bool
	w := callProtected(f.middleware.RequireAuth(okHandler(&sawIdentity)), "not.a.jwt")

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"message":"Invalid or expired token"}`, w.Body.String())
}

func TestRequireAuth_RejectsRefreshToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, refresh, err := f.jwtService.GenerateTokenPair("user-1")
	require.NoError(t, err)

	var sawIdentity bool
	w := callProtected(f.middleware.RequireAuth(okHandler(&sawIdentity)), refresh)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"message":"Invalid token type"}`, w.Body.String())
	require.False(t, sawIdentity)
}

func TestRequireAuth_RejectsRevokedToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	access, err := f.jwtService.GenerateAccessToken("user-1")
	require.NoError(t, err)
	claims, err := f.jwtService.VerifyToken(access)
	require.NoError(t, err)
	require.NoError(t, f.revoker.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))

	var sawIdentity bool
	w := callProtected(f.middleware.RequireAuth(okHandler(&sawIdentity)), access)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"message":"Invalid or expired token"}`, w.Body.String())
	require.False(t, sawIdentity)
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.users.users["admin-id"] = &models.User{ID: "admin-id", Email: "admin@example.com"}
	f.users.users["user-id"] = &models.User{ID: "user-id", Email: "user@example.com"}

	chain := f.middleware.RequireAuth(f.middleware.RequireAdmin(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	))

	adminToken, err := f.jwtService.GenerateAccessToken("admin-id")
	require.NoError(t, err)
	w := callProtected(chain, adminToken)
	require.Equal(t, http.StatusOK, w.Code)

	userToken, err := f.jwtService.GenerateAccessToken("user-id")
	require.NoError(t, err)
	w = callProtected(chain, userToken)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.JSONEq(t, `{"message":"Forbidden"}`, w.Body.String())

	ghostToken, err := f.jwtService.GenerateAccessToken("ghost-id")
	require.NoError(t, err)
	w = callProtected(chain, ghostToken)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		header    string
		wantToken string
		wantOK    bool
	}{
		{"well formed", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"missing", "", "", false},
		{"no scheme", "abc.def.ghi", "", false},
		{"wrong scheme", "Basic abc", "", false},
		{"extra parts", "Bearer a b", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			token, ok := BearerToken(r)
			if ok != tt.wantOK || token != tt.wantToken {
				t.Fatalf("BearerToken = (%q, %v), want (%q, %v)", token, ok, tt.wantToken, tt.wantOK)
			}
		})
	}
}
