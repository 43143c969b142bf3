package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/annboard/annboard/internal/middleware"
	"github.com/annboard/annboard/internal/models"
	"github.com/annboard/annboard/internal/repository"
)

const defaultUsersPerPage = 15

type UserHandlers struct {
	users  repository.UserStore
	logger *logrus.Logger
}

func NewUserHandlers(users repository.UserStore, logger *logrus.Logger) *UserHandlers {
	return &UserHandlers{
		users:  users,
		logger: logger,
	}
}

func (h *UserHandlers) Index(w http.ResponseWriter, r *http.Request) {
	perPage := queryInt(r, "per_page", defaultUsersPerPage)
	page := queryInt(r, "page", 1)
	search := r.URL.Query().Get("search")

	users, err := h.users.List(r.Context(), search)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list users")
		respondMessage(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	respondWithJSON(w, http.StatusOK, models.Paginate(users, page, perPage))
}

func (h *UserHandlers) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

type storeUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandlers) Store(w http.ResponseWriter, r *http.Request) {
	var req storeUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	errs := map[string][]string{}
	validateUserName(req.Name, errs)
	validateUserEmail(req.Email, errs)
	validateUserPassword(req.Password, errs)
	if len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		respondMessage(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			respondValidation(w, map[string][]string{
				"email": {"The email has already been taken."},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to create user")
		respondMessage(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	respondWithJSON(w, http.StatusCreated, user)
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (h *UserHandlers) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	errs := map[string][]string{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		validateUserName(name, errs)
		user.Name = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		validateUserEmail(email, errs)
		user.Email = email
	}
	if req.Password != nil {
		validateUserPassword(*req.Password, errs)
		if len(errs["password"]) == 0 {
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				h.logger.WithError(err).Error("Failed to hash password")
				respondMessage(w, http.StatusInternalServerError, "Failed to update user")
				return
			}
			user.PasswordHash = string(hash)
		}
	}
	if len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	if err := h.users.Update(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			respondValidation(w, map[string][]string{
				"email": {"The email has already been taken."},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to update user")
		respondMessage(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

// Destroy deletes a user. Deleting the caller's own account is rejected.
func (h *UserHandlers) Destroy(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}

	if callerID, ok := middleware.UserIDFromContext(r.Context()); ok && callerID == user.ID {
		respondMessage(w, http.StatusUnprocessableEntity, "Cannot delete self")
		return
	}

	if err := h.users.Delete(r.Context(), user.ID); err != nil {
		h.logger.WithError(err).Error("Failed to delete user")
		respondMessage(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	respondMessage(w, http.StatusOK, "Deleted")
}

func (h *UserHandlers) load(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id := mux.Vars(r)["id"]

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, "Not found")
			return nil, false
		}
		h.logger.WithError(err).Error("Failed to get user")
		respondMessage(w, http.StatusInternalServerError, "Failed to get user")
		return nil, false
	}

	return user, true
}

func validateUserName(name string, errs map[string][]string) {
	if name == "" {
		errs["name"] = append(errs["name"], "The name field is required.")
	} else if len(name) > 255 {
		errs["name"] = append(errs["name"], "The name may not be greater than 255 characters.")
	}
}

func validateUserEmail(email string, errs map[string][]string) {
	if email == "" {
		errs["email"] = append(errs["email"], "The email field is required.")
	} else if !isValidEmail(email) {
		errs["email"] = append(errs["email"], "The email must be a valid email address.")
	}
}

func validateUserPassword(password string, errs map[string][]string) {
	if password == "" {
		errs["password"] = append(errs["password"], "The password field is required.")
	} else if len(password) < 8 {
		errs["password"] = append(errs["password"], "The password must be at least 8 characters.")
	}
}
