package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/annboard/annboard/internal/httprange"
	"github.com/annboard/annboard/internal/models"
	"github.com/annboard/annboard/internal/repository"
	"github.com/annboard/annboard/internal/service"
	"github.com/annboard/annboard/internal/storage"
)

const defaultAssetsPerPage = 10

type AssetHandlers struct {
	assets        repository.AssetStore
	announcements repository.AnnouncementStore
	assetService  *service.AssetService
	streamer      *httprange.Streamer
	maxFileSize   int64
	logger        *logrus.Logger
}

func NewAssetHandlers(
	assets repository.AssetStore,
	announcements repository.AnnouncementStore,
	assetService *service.AssetService,
	streamer *httprange.Streamer,
	maxFileSize int64,
	logger *logrus.Logger,
) *AssetHandlers {
	return &AssetHandlers{
		assets:        assets,
		announcements: announcements,
		assetService:  assetService,
		streamer:      streamer,
		maxFileSize:   maxFileSize,
		logger:        logger,
	}
}

func (h *AssetHandlers) Index(w http.ResponseWriter, r *http.Request) {
	perPage := queryInt(r, "per_page", defaultAssetsPerPage)
	page := queryInt(r, "page", 1)
	search := r.URL.Query().Get("search")
	announcementID := r.URL.Query().Get("announcement_id")

	assets, err := h.assets.List(r.Context(), search, announcementID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list assets")
		respondMessage(w, http.StatusInternalServerError, "Failed to list assets")
		return
	}

	for i := range assets {
		h.attachAnnouncements(r, &assets[i])
	}

	respondWithJSON(w, http.StatusOK, models.Paginate(assets, page, perPage))
}

func (h *AssetHandlers) Show(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.load(w, r)
	if !ok {
		return
	}

	h.attachAnnouncements(r, asset)
	respondWithJSON(w, http.StatusOK, asset)
}

// Stream serves the asset's bytes honoring single-range Range headers.
// Public: browsers issue unauthenticated range requests for video
// scrubbing and inline PDF viewing.
func (h *AssetHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.load(w, r)
	if !ok {
		return
	}

	contentType := storage.ContentTypeFor(asset.FilePath)
	h.streamer.Serve(w, r, asset.FilePath, contentType)
}

// Store uploads a standalone asset: a required "file" part and an optional
// "file_name" override.
func (h *AssetHandlers) Store(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	file, fh, err := r.FormFile("file")
	if err != nil {
		respondValidation(w, map[string][]string{
			"file": {"The file field is required."},
		})
		return
	}
	defer file.Close()

	if !service.AllowedFile(fh.Filename) {
		respondValidation(w, map[string][]string{
			"file": {"The file must be a jpg, jpeg, png, gif, svg, or pdf file."},
		})
		return
	}
	if fh.Size > h.maxFileSize {
		respondValidation(w, map[string][]string{
			"file": {"The file may not be greater than 5 MB."},
		})
		return
	}

	stored, err := h.assetService.Store(r.Context(), fh.Filename, file)
	if err != nil {
		h.logger.WithError(err).Error("Failed to store uploaded asset")
		respondMessage(w, http.StatusInternalServerError, "Failed to store asset")
		return
	}

	fileName := strings.TrimSpace(r.FormValue("file_name"))
	if fileName == "" {
		fileName = stored.FileName
	}

	asset := &models.Asset{
		ID:       uuid.New().String(),
		FileName: fileName,
		FilePath: stored.FilePath,
		FileType: stored.FileType,
	}

	if err := h.assets.Create(r.Context(), asset); err != nil {
		h.logger.WithError(err).Error("Failed to create asset record")
		h.assetService.Delete(r.Context(), stored.FilePath)
		respondMessage(w, http.StatusInternalServerError, "Failed to store asset")
		return
	}

	respondWithJSON(w, http.StatusCreated, asset)
}

// Update renames the asset and/or replaces its file. Replacing deletes the
// old blob before storing the new one.
func (h *AssetHandlers) Update(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.load(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if fileName := strings.TrimSpace(r.FormValue("file_name")); fileName != "" {
		asset.FileName = fileName
	}

	if file, fh, err := r.FormFile("file"); err == nil {
		defer file.Close()

		if !service.AllowedFile(fh.Filename) {
			respondValidation(w, map[string][]string{
				"file": {"The file must be a jpg, jpeg, png, gif, svg, or pdf file."},
			})
			return
		}
		if fh.Size > h.maxFileSize {
			respondValidation(w, map[string][]string{
				"file": {"The file may not be greater than 5 MB."},
			})
			return
		}

		h.assetService.Delete(r.Context(), asset.FilePath)
		stored, err := h.assetService.Store(r.Context(), fh.Filename, file)
		if err != nil {
			h.logger.WithError(err).Error("Failed to store replacement file")
			respondMessage(w, http.StatusInternalServerError, "Failed to update asset")
			return
		}

		asset.FilePath = stored.FilePath
		asset.FileType = stored.FileType
	}

	if err := h.assets.Update(r.Context(), asset); err != nil {
		h.logger.WithError(err).Error("Failed to update asset")
		respondMessage(w, http.StatusInternalServerError, "Failed to update asset")
		return
	}

	h.attachAnnouncements(r, asset)
	respondWithJSON(w, http.StatusOK, asset)
}

func (h *AssetHandlers) Destroy(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.load(w, r)
	if !ok {
		return
	}

	h.assetService.Delete(r.Context(), asset.FilePath)

	if err := h.assets.Delete(r.Context(), asset.ID); err != nil {
		h.logger.WithError(err).Error("Failed to delete asset")
		respondMessage(w, http.StatusInternalServerError, "Failed to delete asset")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AssetHandlers) load(w http.ResponseWriter, r *http.Request) (*models.Asset, bool) {
	id := mux.Vars(r)["id"]

	asset, err := h.assets.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, "Not found")
			return nil, false
		}
		h.logger.WithError(err).Error("Failed to get asset")
		respondMessage(w, http.StatusInternalServerError, "Failed to get asset")
		return nil, false
	}

	return asset, true
}

func (h *AssetHandlers) attachAnnouncements(r *http.Request, asset *models.Asset) {
	var summaries []models.AnnouncementSummary
	for _, id := range asset.AnnouncementIDs {
		announcement, err := h.announcements.GetByID(r.Context(), id)
		if err != nil {
			continue
		}
		summaries = append(summaries, announcement.Summary())
	}
	asset.Announcements = summaries
}
