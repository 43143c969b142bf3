package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()

	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestLocalStore_SaveAndRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestLocalStore(t)

	require.NoError(t, store.Save(ctx, "assets/images/a.png", strings.NewReader("0123456789")))

	ok, err := store.Exists(ctx, "assets/images/a.png")
	require.NoError(t, err)
	require.True(t, ok)

	size, err := store.Size(ctx, "assets/images/a.png")
	require.NoError(t, err)
	require.Equal(t, int64(10), size)

	rc, err := store.ReadRange(ctx, "assets/images/a.png", 2, 5)
	require.NoError(t, err)
	defer rc.Close()

	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "23456", string(b))
}

func TestLocalStore_ReadRangeFromStart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestLocalStore(t)

	require.NoError(t, store.Save(ctx, "a.txt", strings.NewReader("hello world")))

	rc, err := store.ReadRange(ctx, "a.txt", 0, 5)
	require.NoError(t, err)
	defer rc.Close()

	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))
}

func TestLocalStore_MissingObject(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestLocalStore(t)

	ok, err := store.Exists(ctx, "missing.txt")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = store.Size(ctx, "missing.txt")
	require.True(t, errors.Is(err, ErrNotFound))

	_, err = store.ReadRange(ctx, "missing.txt", 0, 10)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStore_Overwrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestLocalStore(t)

	require.NoError(t, store.Save(ctx, "a.txt", strings.NewReader("first")))
	require.NoError(t, store.Save(ctx, "a.txt", strings.NewReader("second")))

	size, err := store.Size(ctx, "a.txt")
	require.NoError(t, err)
	require.Equal(t, int64(len("second")), size)
}

func TestLocalStore_DeleteIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestLocalStore(t)

	require.NoError(t, store.Save(ctx, "a.txt", strings.NewReader("x")))
	require.NoError(t, store.Delete(ctx, "a.txt"))

	ok, err := store.Exists(ctx, "a.txt")
	require.NoError(t, err)
	require.False(t, ok)

	// Deleting again is not an error.
	require.NoError(t, store.Delete(ctx, "a.txt"))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestLocalStore(t)

	for _, key := range []string{"../escape.txt", "a/../../escape.txt", "/etc/passwd"} {
		_, err := store.Exists(ctx, key)
		require.Error(t, err, "key %q", key)

		err = store.Save(ctx, key, strings.NewReader("x"))
		require.Error(t, err, "key %q", key)
	}
}

func TestContentTypeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want string
	}{
		{"assets/pdfs/a.pdf", "application/pdf"},
		{"assets/images/a.png", "image/png"},
		{"assets/images/a.jpg", "image/jpeg"},
		{"assets/images/a.gif", "image/gif"},
		{"assets/images/a.svg", "image/svg+xml"},
		{"assets/misc/a.unknownext", "application/octet-stream"},
	}

	for _, tt := range tests {
		got := ContentTypeFor(tt.key)
		if !strings.HasPrefix(got, tt.want) {
			t.Fatalf("ContentTypeFor(%q) = %q, want prefix %q", tt.key, got, tt.want)
		}
	}
}
