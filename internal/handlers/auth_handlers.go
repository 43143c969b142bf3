package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/annboard/annboard/internal/middleware"
	"github.com/annboard/annboard/internal/models"
	"github.com/annboard/annboard/internal/repository"
	"github.com/annboard/annboard/internal/service"
)

type AuthHandlers struct {
	users      repository.UserStore
	jwtService *service.JWTService
	revoker    service.TokenRevoker
	authorizer service.Authorizer
	logger     *logrus.Logger
}

func NewAuthHandlers(
	users repository.UserStore,
	jwtService *service.JWTService,
	revoker service.TokenRevoker,
	authorizer service.Authorizer,
	logger *logrus.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		users:      users,
		jwtService: jwtService,
		revoker:    revoker,
		authorizer: authorizer,
		logger:     logger,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials, applies the admin gate, and issues an access
// and refresh token pair plus an opaque CSRF token. Tokens are only issued
// after the gate passes, so a rejected login leaves no usable session.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)

	errs := map[string][]string{}
	if req.Email == "" {
		errs["email"] = append(errs["email"], "The email field is required.")
	} else if !isValidEmail(req.Email) {
		errs["email"] = append(errs["email"], "The email must be a valid email address.")
	}
	if req.Password == "" {
		errs["password"] = append(errs["password"], "The password field is required.")
	}
	if len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			h.logger.WithError(err).Error("Failed to look up user for login")
		}
		h.respondBadCredentials(w)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.respondBadCredentials(w)
		return
	}

	if !h.authorizer.Authorize(user, service.ActionLogin) {
		respondMessage(w, http.StatusForbidden, "Only admin can login")
		return
	}

	accessToken, refreshToken, err := h.jwtService.GenerateTokenPair(user.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate tokens")
		respondMessage(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	csrfToken, err := service.GenerateCSRFToken()
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate CSRF token")
		respondMessage(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondWithJSON(w, http.StatusOK, models.LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		CSRFToken:    csrfToken,
	})
}

// Refresh mints a new access token from a presented refresh token. The
// refresh token itself is not rotated; it stays valid until its own expiry.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	tokenString, ok := middleware.BearerToken(r)
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Token not provided")
		return
	}

	claims, err := h.jwtService.VerifyToken(tokenString)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	if claims.Type != service.TokenTypeRefresh {
		respondMessage(w, http.StatusUnauthorized, "Invalid token type")
		return
	}

	user, err := h.users.GetByID(r.Context(), claims.Subject)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			h.logger.WithError(err).Error("Failed to resolve refresh subject")
		}
		respondMessage(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(user.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate access token")
		respondMessage(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	csrfToken, err := service.GenerateCSRFToken()
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate CSRF token")
		respondMessage(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondWithJSON(w, http.StatusOK, models.RefreshResult{
		AccessToken: accessToken,
		CSRFToken:   csrfToken,
	})
}

func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Token not provided")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

// Logout denylists the presented access token for its remaining lifetime.
// Revoking an already-revoked token succeeds, so logout is idempotent.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Token not provided")
		return
	}

	if err := h.revoker.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		h.logger.WithError(err).Error("Failed to revoke access token")
	}

	respondMessage(w, http.StatusOK, "Logged out")
}

func (h *AuthHandlers) respondBadCredentials(w http.ResponseWriter) {
	respondValidation(w, map[string][]string{
		"email": {"The provided credentials are incorrect."},
	})
}
