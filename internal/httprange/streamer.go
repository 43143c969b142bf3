package httprange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// ObjectStore is the slice of the file store the streamer needs: existence,
// size, and windowed reads.
type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Size(ctx context.Context, key string) (int64, error)
	ReadRange(ctx context.Context, key string, start, length int64) (io.ReadCloser, error)
}

// Streamer serves stored objects over HTTP honoring single-range Range
// headers: 200 for full requests, 206 for satisfiable ranges, 416 for
// malformed or out-of-bounds ones.
type Streamer struct {
	store  ObjectStore
	logger *logrus.Logger
}

func NewStreamer(store ObjectStore, logger *logrus.Logger) *Streamer {
	return &Streamer{
		store:  store,
		logger: logger,
	}
}

// Serve streams the object at key. contentType is supplied by the caller;
// the streamer does not inspect object bytes.
func (s *Streamer) Serve(w http.ResponseWriter, r *http.Request, key, contentType string) {
	ctx := r.Context()

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to stat object")
		s.respondMessage(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	if !exists {
		s.respondMessage(w, http.StatusNotFound, "File not found")
		return
	}

	size, err := s.store.Size(ctx, key)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to read object size")
		s.respondMessage(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		s.serveWindow(ctx, w, key, contentType, 0, size, size, http.StatusOK)
		return
	}

	spec := Parse(rangeHeader)
	if spec.Kind == Malformed {
		s.respondUnsatisfiable(w, size, "Invalid Range")
		return
	}

	start, end, ok := spec.Resolve(size)
	if !ok {
		s.respondUnsatisfiable(w, size, "Requested Range Not Satisfiable")
		return
	}

	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	s.serveWindow(ctx, w, key, contentType, start, end-start+1, size, http.StatusPartialContent)
}

// serveWindow writes headers and streams exactly length bytes from start.
// Once the body has started, read failures only terminate the stream.
func (s *Streamer) serveWindow(ctx context.Context, w http.ResponseWriter, key, contentType string, start, length, size int64, status int) {
	rc, err := s.store.ReadRange(ctx, key, start, length)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to open object")
		s.respondMessage(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", length))
	w.Header().Set("Accept-Ranges", "bytes")
	w.WriteHeader(status)

	if err := copyChunks(w, rc, length); err != nil {
		s.logger.WithError(err).WithField("key", key).Debug("Stream ended early")
	}
}

// copyChunks copies exactly length bytes in chunks of at most ChunkSize,
// stopping even if src has more data.
func copyChunks(dst io.Writer, src io.Reader, length int64) error {
	buf := make([]byte, ChunkSize)
	remaining := length

	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}

		read, err := src.Read(buf[:n])
		if read > 0 {
			if _, werr := dst.Write(buf[:read]); werr != nil {
				return werr
			}
			remaining -= int64(read)
		}
		if err != nil {
			if err == io.EOF && remaining == 0 {
				return nil
			}
			return err
		}
	}

	return nil
}

func (s *Streamer) respondUnsatisfiable(w http.ResponseWriter, size int64, message string) {
	w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
	s.respondMessage(w, http.StatusRequestedRangeNotSatisfiable, message)
}

func (s *Streamer) respondMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
