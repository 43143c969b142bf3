package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/annboard/annboard/internal/middleware"
	"github.com/annboard/annboard/internal/models"
	"github.com/annboard/annboard/internal/repository"
	"github.com/annboard/annboard/internal/service"
)

const defaultAnnouncementsPerPage = 10

type AnnouncementHandlers struct {
	announcements repository.AnnouncementStore
	assets        repository.AssetStore
	users         repository.UserStore
	assetService  *service.AssetService
	maxFileSize   int64
	logger        *logrus.Logger
}

func NewAnnouncementHandlers(
	announcements repository.AnnouncementStore,
	assets repository.AssetStore,
	users repository.UserStore,
	assetService *service.AssetService,
	maxFileSize int64,
	logger *logrus.Logger,
) *AnnouncementHandlers {
	return &AnnouncementHandlers{
		announcements: announcements,
		assets:        assets,
		users:         users,
		assetService:  assetService,
		maxFileSize:   maxFileSize,
		logger:        logger,
	}
}

func (h *AnnouncementHandlers) Index(w http.ResponseWriter, r *http.Request) {
	perPage := queryInt(r, "per_page", defaultAnnouncementsPerPage)
	page := queryInt(r, "page", 1)
	search := r.URL.Query().Get("search")

	announcements, err := h.announcements.List(r.Context(), search)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list announcements")
		respondMessage(w, http.StatusInternalServerError, "Failed to list announcements")
		return
	}

	allAssets, err := h.assets.List(r.Context(), "", "")
	if err != nil {
		h.logger.WithError(err).Error("Failed to list assets")
		respondMessage(w, http.StatusInternalServerError, "Failed to list announcements")
		return
	}

	authors := map[string]*models.UserSummary{}
	for i := range announcements {
		h.compose(r, &announcements[i], allAssets, authors)
	}

	respondWithJSON(w, http.StatusOK, models.Paginate(announcements, page, perPage))
}

func (h *AnnouncementHandlers) Show(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	announcement, err := h.announcements.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, "Not found")
			return
		}
		h.logger.WithError(err).Error("Failed to get announcement")
		respondMessage(w, http.StatusInternalServerError, "Failed to get announcement")
		return
	}

	assets, err := h.assets.List(r.Context(), "", id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list assets for announcement")
		respondMessage(w, http.StatusInternalServerError, "Failed to get announcement")
		return
	}

	announcement.Assets = assets
	h.attachAuthor(r, announcement, map[string]*models.UserSummary{})

	respondWithJSON(w, http.StatusOK, announcement)
}

// Store creates an announcement from a multipart form: title, content, and
// optional asset files uploaded under the "assets" field.
func (h *AnnouncementHandlers) Store(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	content := strings.TrimSpace(r.FormValue("content"))

	errs := map[string][]string{}
	if title == "" {
		errs["title"] = append(errs["title"], "The title field is required.")
	} else if len(title) > 255 {
		errs["title"] = append(errs["title"], "The title may not be greater than 255 characters.")
	}
	if content == "" {
		errs["content"] = append(errs["content"], "The content field is required.")
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["assets"] {
			if !service.AllowedFile(fh.Filename) {
				errs["assets"] = append(errs["assets"], "Each asset must be a jpg, jpeg, png, gif, svg, or pdf file.")
				continue
			}
			if fh.Size > h.maxFileSize {
				errs["assets"] = append(errs["assets"], "Each asset may not be greater than 5 MB.")
				continue
			}
			files = append(files, fh)
		}
	}

	if len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	authorID, _ := middleware.UserIDFromContext(r.Context())

	announcement := &models.Announcement{
		ID:       uuid.New().String(),
		Title:    title,
		Content:  content,
		AuthorID: authorID,
	}

	if err := h.announcements.Create(r.Context(), announcement); err != nil {
		h.logger.WithError(err).Error("Failed to create announcement")
		respondMessage(w, http.StatusInternalServerError, "Failed to create announcement")
		return
	}

	var saved []models.Asset
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			h.logger.WithError(err).Error("Failed to open uploaded file")
			continue
		}

		stored, err := h.assetService.Store(r.Context(), fh.Filename, f)
		f.Close()
		if err != nil {
			h.logger.WithError(err).Error("Failed to store uploaded asset")
			continue
		}

		asset := &models.Asset{
			ID:              uuid.New().String(),
			FileName:        stored.FileName,
			FilePath:        stored.FilePath,
			FileType:        stored.FileType,
			AnnouncementIDs: []string{announcement.ID},
		}
		if err := h.assets.Create(r.Context(), asset); err != nil {
			h.logger.WithError(err).Error("Failed to create asset record")
			h.assetService.Delete(r.Context(), stored.FilePath)
			continue
		}

		saved = append(saved, *asset)
	}

	announcement.Assets = saved
	h.attachAuthor(r, announcement, map[string]*models.UserSummary{})

	respondWithJSON(w, http.StatusCreated, announcement)
}

type updateAnnouncementRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (h *AnnouncementHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	announcement, err := h.announcements.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, "Not found")
			return
		}
		h.logger.WithError(err).Error("Failed to get announcement")
		respondMessage(w, http.StatusInternalServerError, "Failed to update announcement")
		return
	}

	var req updateAnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	errs := map[string][]string{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			errs["title"] = append(errs["title"], "The title field is required.")
		} else if len(title) > 255 {
			errs["title"] = append(errs["title"], "The title may not be greater than 255 characters.")
		} else {
			announcement.Title = title
		}
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			errs["content"] = append(errs["content"], "The content field is required.")
		} else {
			announcement.Content = content
		}
	}
	if len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	if err := h.announcements.Update(r.Context(), announcement); err != nil {
		h.logger.WithError(err).Error("Failed to update announcement")
		respondMessage(w, http.StatusInternalServerError, "Failed to update announcement")
		return
	}

	assets, err := h.assets.List(r.Context(), "", id)
	if err == nil {
		announcement.Assets = assets
	}
	h.attachAuthor(r, announcement, map[string]*models.UserSummary{})

	respondWithJSON(w, http.StatusOK, announcement)
}

func (h *AnnouncementHandlers) Destroy(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := h.announcements.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, "Not found")
			return
		}
		h.logger.WithError(err).Error("Failed to get announcement")
		respondMessage(w, http.StatusInternalServerError, "Failed to delete announcement")
		return
	}

	if err := h.announcements.Delete(r.Context(), id); err != nil {
		h.logger.WithError(err).Error("Failed to delete announcement")
		respondMessage(w, http.StatusInternalServerError, "Failed to delete announcement")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AnnouncementHandlers) compose(r *http.Request, announcement *models.Announcement, allAssets []models.Asset, authors map[string]*models.UserSummary) {
	var linked []models.Asset
	for _, a := range allAssets {
		if a.LinkedTo(announcement.ID) {
			linked = append(linked, a)
		}
	}
	announcement.Assets = linked

	h.attachAuthor(r, announcement, authors)
}

func (h *AnnouncementHandlers) attachAuthor(r *http.Request, announcement *models.Announcement, cache map[string]*models.UserSummary) {
	if announcement.AuthorID == "" {
		return
	}

	if summary, ok := cache[announcement.AuthorID]; ok {
		announcement.Author = summary
		return
	}

	user, err := h.users.GetByID(r.Context(), announcement.AuthorID)
	if err != nil {
		cache[announcement.AuthorID] = nil
		return
	}

	summary := user.Summary()
	cache[announcement.AuthorID] = &summary
	announcement.Author = &summary
}

