package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/annboard/annboard/internal/httprange"
	"github.com/annboard/annboard/internal/models"
	"github.com/annboard/annboard/internal/repository"
	"github.com/annboard/annboard/internal/service"
)

type assetFixture struct {
	handlers      *AssetHandlers
	assets        *fakeAssetStore
	announcements *fakeAnnouncementStore
	files         *memFileStore
}

func newAssetFixture(t *testing.T) *assetFixture {
	t.Helper()

	assets := &fakeAssetStore{}
	announcements := &fakeAnnouncementStore{}
	files := newMemFileStore()

	return &assetFixture{
		handlers: NewAssetHandlers(
			assets,
			announcements,
			service.NewAssetService(files, testLogger()),
			httprange.NewStreamer(files, testLogger()),
			5<<20,
			testLogger(),
		),
		assets:        assets,
		announcements: announcements,
		files:         files,
	}
}

func (f *assetFixture) seedAsset(t *testing.T, id, fileName, filePath, fileType string, content []byte, announcementIDs ...string) *models.Asset {
	t.Helper()

	asset := &models.Asset{
		ID:              id,
		FileName:        fileName,
		FilePath:        filePath,
		FileType:        fileType,
		AnnouncementIDs: announcementIDs,
	}
	require.NoError(t, f.assets.Create(context.Background(), asset))
	if content != nil {
		f.files.objects[filePath] = content
	}
	return asset
}

func assetRequest(method, path, id string) *http.Request {
	r := httptest.NewRequest(method, path, nil)
	if id != "" {
		r = mux.SetURLVars(r, map[string]string{"id": id})
	}
	return r
}

func TestAssetStream_FullObject(t *testing.T) {
	t.Parallel()

	f := newAssetFixture(t)
	content := []byte("the quick brown fox jumps over the lazy dog")
	f.seedAsset(t, "as1", "phrase.pdf", "assets/pdfs/phrase.pdf", "pdf", content)

	w := httptest.NewRecorder()
	f.handlers.Stream(w, assetRequest(http.MethodGet, "/api/public/assets/as1/stream", "as1"))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
	require.Equal(t, content, w.Body.Bytes())
}

func TestAssetStream_RangeRequest(t *testing.T) {
	t.Parallel()

	f := newAssetFixture(t)
	content := []byte("0123456789abcdefghij")
	f.seedAsset(t, "as1", "data.png", "assets/images/data.png", "image", content)

	r := assetRequest(http.MethodGet, "/api/public/assets/as1/stream", "as1")
	r.Header.Set("Range", "bytes=5-9")
	w := httptest.NewRecorder()
	f.handlers.Stream(w, r)

	require.Equal(t, http.StatusPartialContent, w.Code)
	require.Equal(t, "bytes 5-9/20", w.Header().Get("Content-Range"))
	require.Equal(t, []byte("56789"), w.Body.Bytes())
}

func TestAssetStream_MissingBlob(t *testing.T) {
	t.Parallel()

	f := newAssetFixture(t)
	f.seedAsset(t, "as1", "gone.pdf", "assets/pdfs/gone.pdf", "pdf", nil)

	w := httptest.NewRecorder()
	f.handlers.Stream(w, assetRequest(http.MethodGet, "/api/public/assets/as1/stream", "as1"))

	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"message":"File not found"}`, w.Body.String())
}

func TestAssetStream_UnknownAsset(t *testing.T) {
	t.Parallel()

	f := newAssetFixture(t)

	w := httptest.NewRecorder()
	f.handlers.Stream(w, assetRequest(http.MethodGet, "/api/public/assets/missing/stream", "missing"))

	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"message":"Not found"}`, w.Body.String())
}

func TestAssetStore_Upload(t *testing.T) {
	t.Parallel()

	f := newAssetFixture(t)

	body, contentType := multipartBody(t, map[string]string{
		"file_name": "Renamed notice",
	}, "file", "notice.pdf")

	r := httptest.NewRequest(http.MethodPost, "/api/admin/assets", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.handlers.Store(w, r)

	require.Equal(t, http.StatusCreated, w.Code)

	var got models.Asset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "Renamed notice", got.FileName)
	require.Equal(t, service.FileTypePDF, got.FileType)
	require.Contains(t, f.files.objects, got.FilePath)
}

func TestAssetStore_MissingFile(t *testing.T) {
	t.Parallel()

	f := newAssetFixture(t)

	body, contentType := multipartBody(t, map[string]string{"file_name": "x"}, "file")

	r := httptest.NewRequest(http.MethodPost, "/api/admin/assets", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.handlers.Store(w, r)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.JSONEq(t, `{
		"message": "The given data was invalid.",
		"errors": {"file": ["The file field is required."]}
	}`, w.Body.String())
}

func TestAssetStore_DisallowedExtension(t *testing.T) {
	t.Parallel()

	f := newAssetFixture(t)

	body, contentType := multipartBody(t, nil, "file", "script.exe")

	r := httptest.NewRequest(http.MethodPost, "/api/admin/assets", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.handlers.Store(w, r)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Empty(t, f.files.objects)
}

func TestAssetUpdate_Rename(t *testing.T) {
	t.Parallel()

	f := newAssetFixture(t)
	f.seedAsset(t, "as1", "old.pdf", "assets/pdfs/old.pdf", "pdf", []byte("x"))

	body, contentType := multipartBody(t, map[string]string{"file_name": "new name"}, "file")

	r := httptest.NewRequest(http.MethodPut, "/api/admin/assets/as1", body)
	r.Header.Set("Content-Type", contentType)
	r = mux.SetURLVars(r, map[string]string{"id": "as1"})
	w := httptest.NewRecorder()
	f.handlers.Update(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	updated, err := f.assets.GetByID(context.Background(), "as1")
	require.NoError(t, err)
	require.Equal(t, "new name", updated.FileName)
	require.Equal(t, "assets/pdfs/old.pdf", updated.FilePath)
	require.Contains(t, f.files.objects, "assets/pdfs/old.pdf")
}

func TestAssetUpdate_ReplaceFile(t *testing.T) {
	t.Parallel()

	f := newAssetFixture(t)
	f.seedAsset(t, "as1", "old.pdf", "assets/pdfs/old.pdf", "pdf", []byte("old"))

	body, contentType := multipartBody(t, nil, "file", "new.png")

	r := httptest.NewRequest(http.MethodPut, "/api/admin/assets/as1", body)
	r.Header.Set("Content-Type", contentType)
	r = mux.SetURLVars(r, map[string]string{"id": "as1"})
	w := httptest.NewRecorder()
	f.handlers.Update(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	updated, err := f.assets.GetByID(context.Background(), "as1")
	require.NoError(t, err)
	require.Equal(t, service.FileTypeImage, updated.FileType)
	require.NotEqual(t, "assets/pdfs/old.pdf", updated.FilePath)
	require.NotContains(t, f.files.objects, "assets/pdfs/old.pdf")
	require.Contains(t, f.files.objects, updated.FilePath)
}

func TestAssetDestroy_RemovesBlobAndRecord(t *testing.T) {
	t.Parallel()

	f := newAssetFixture(t)
	f.seedAsset(t, "as1", "old.pdf", "assets/pdfs/old.pdf", "pdf", []byte("x"))

	w := httptest.NewRecorder()
	f.handlers.Destroy(w, assetRequest(http.MethodDelete, "/api/admin/assets/as1", "as1"))

	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotContains(t, f.files.objects, "assets/pdfs/old.pdf")

	_, err := f.assets.GetByID(context.Background(), "as1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAssetIndex_FilterByAnnouncement(t *testing.T) {
	t.Parallel()

	f := newAssetFixture(t)
	require.NoError(t, f.announcements.Create(context.Background(), &models.Announcement{
		ID: "a1", Title: "Linked announcement", Content: "x",
	}))
	f.seedAsset(t, "as1", "linked.pdf", "assets/pdfs/linked.pdf", "pdf", nil, "a1")
	f.seedAsset(t, "as2", "loose.png", "assets/images/loose.png", "image", nil)

	r := httptest.NewRequest(http.MethodGet, "/api/admin/assets?announcement_id=a1", nil)
	w := httptest.NewRecorder()
	f.handlers.Index(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var page models.Page[models.Asset]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, 1, page.Total)
	require.Equal(t, "as1", page.Data[0].ID)
	require.Len(t, page.Data[0].Announcements, 1)
	require.Equal(t, "Linked announcement", page.Data[0].Announcements[0].Title)
}
