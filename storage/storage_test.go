package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixClock(t *testing.T) {
	t.Helper()
	nowFunc = func() time.Time { return time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = time.Now })
}

func TestArtifactPath(t *testing.T) {
	fixClock(t)
	id := uuid.MustParse("0b7e4c1e-8f4a-4d55-9b37-3f4bcf1e2a10")

	assert.Equal(t, "2026/10/18/"+id.String()+"_error_screenshot.png", artifactPath(id, "error screenshot.PNG"))
	assert.Equal(t, "2026/10/18/"+id.String()+"_page.html", artifactPath(id, "../../page.html"))
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"shot.png":    "image/png",
		"page.HTML":   "text/html; charset=utf-8",
		"dump.json":   "application/json",
		"trace.log":   "text/plain; charset=utf-8",
		"blob.bin":    "application/octet-stream",
		"noextension": "application/octet-stream",
	}
	for name, want := range tests {
		assert.Equal(t, want, ContentType(name), name)
	}
}

func TestLocalStorageRoundTrip(t *testing.T) {
	fixClock(t)
	ctx := context.Background()
	dir := t.TempDir()

	store, err := New(ctx, Config{Type: TypeLocal, LocalPath: dir})
	require.NoError(t, err)

	storagePath, err := store.Upload(ctx, uuid.New(), "no_results_screenshot.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(storagePath, "2026/10/18/"))
	assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(storagePath)))

	rc, err := store.Download(ctx, storagePath)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, storagePath))
	require.NoError(t, store.Delete(ctx, storagePath))

	_, err = store.Download(ctx, storagePath)
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Download(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.NotErrorIs(t, err, ErrArtifactNotFound)
	assert.ErrorIs(t, store.Delete(context.Background(), "/etc/passwd"), ErrInvalidPath)
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(context.Background(), Config{Type: "ftp"})
	assert.EqualError(t, err, "unknown storage type: ftp")
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{Type: TypeS3})
	assert.Error(t, err)
}

func TestNewLocalCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "artifacts")
	_, err := NewLocalStorage(dir)
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestS3KeyStaysBelowPrefix(t *testing.T) {
	s := &S3Storage{bucket: "lextutor", prefix: "artifacts"}

	key, err := s.key("2026/10/18/x_no_results.png")
	require.NoError(t, err)
	assert.Equal(t, "artifacts/2026/10/18/x_no_results.png", key)

	for _, p := range []string{"../other/secret", "/etc/passwd", ".."} {
		_, err := s.key(p)
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
}
