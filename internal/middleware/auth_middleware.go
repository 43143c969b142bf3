package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/annboard/annboard/internal/repository"
	"github.com/annboard/annboard/internal/service"
)

type contextKey string

const (
	claimsKey contextKey = "claims"
	userIDKey contextKey = "user_id"
)

// WithIdentity stamps the verified claims and subject onto the context.
// RequireAuth calls it for every admitted request.
func WithIdentity(ctx context.Context, claims *service.Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	return context.WithValue(ctx, userIDKey, claims.Subject)
}

// ClaimsFromContext returns the verified access-token claims placed on the
// request by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*service.Claims)
	return claims, ok
}

// UserIDFromContext returns the authenticated subject.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

type AuthMiddleware struct {
	jwtService *service.JWTService
	revoker    service.TokenRevoker
	users      repository.UserStore
	authorizer service.Authorizer
	logger     *logrus.Logger
}

func NewAuthMiddleware(
	jwtService *service.JWTService,
	revoker service.TokenRevoker,
	users repository.UserStore,
	authorizer service.Authorizer,
	logger *logrus.Logger,
) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		revoker:    revoker,
		users:      users,
		authorizer: authorizer,
		logger:     logger,
	}
}

// BearerToken extracts the token from an Authorization: Bearer header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}

	return parts[1], true
}

// RequireAuth admits only requests carrying a valid, unrevoked access
// token. Refresh tokens are rejected here regardless of validity.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := BearerToken(r)
		if !ok {
			m.respondUnauthorized(w, "Token not provided")
			return
		}

		claims, err := m.jwtService.VerifyToken(tokenString)
		if err != nil {
			m.logger.WithError(err).Debug("Token verification failed")
			m.respondUnauthorized(w, "Invalid or expired token")
			return
		}

		if claims.Type != service.TokenTypeAccess {
			m.respondUnauthorized(w, "Invalid token type")
			return
		}

		revoked, err := m.revoker.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			m.logger.WithError(err).Error("Failed to check token revocation")
			m.respondUnauthorized(w, "Invalid or expired token")
			return
		}
		if revoked {
			m.respondUnauthorized(w, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims)))
	})
}

// RequireAdmin gates the admin surface behind the authorizer predicate.
// Must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			m.respondUnauthorized(w, "Token not provided")
			return
		}

		user, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				m.logger.WithError(err).Error("Failed to load user for admin check")
			}
			m.respondUnauthorized(w, "Invalid or expired token")
			return
		}

		if !m.authorizer.Authorize(user, service.ActionManage) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"message": "Forbidden"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
