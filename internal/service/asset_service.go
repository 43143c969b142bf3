package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/annboard/annboard/internal/storage"
)

const (
	FileTypePDF   = "pdf"
	FileTypeImage = "image"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".svg":  true,
	".pdf":  true,
}

// StoredFile describes an uploaded file after it has been written to the
// file store.
type StoredFile struct {
	FileName string
	FilePath string
	FileType string
}

// AssetService writes uploaded files into the file store, classifying them
// as pdf or image and generating unique storage keys.
type AssetService struct {
	store  storage.FileStore
	logger *logrus.Logger
}

func NewAssetService(store storage.FileStore, logger *logrus.Logger) *AssetService {
	return &AssetService{
		store:  store,
		logger: logger,
	}
}

// AllowedFile reports whether the original file name carries an accepted
// extension.
func AllowedFile(fileName string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(fileName))]
}

// Store saves the uploaded content under a fresh key and returns the
// stored metadata. The returned FileName is the client's original name.
func (s *AssetService) Store(ctx context.Context, fileName string, r io.Reader) (*StoredFile, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if ext == "" {
		return nil, fmt.Errorf("file %q has no extension", fileName)
	}

	fileType := FileTypeImage
	dir := "assets/images"
	if ext == "pdf" {
		fileType = FileTypePDF
		dir = "assets/pdfs"
	}

	key := fmt.Sprintf("%s/%s_%d.%s", dir, uuid.New().String(), time.Now().Unix(), ext)

	if err := s.store.Save(ctx, key, r); err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to store uploaded file")
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	return &StoredFile{
		FileName: fileName,
		FilePath: key,
		FileType: fileType,
	}, nil
}

// Delete removes the stored object. Failures are logged and swallowed so a
// missing blob never blocks deleting the owning record.
func (s *AssetService) Delete(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Failed to delete stored file")
	}
}
