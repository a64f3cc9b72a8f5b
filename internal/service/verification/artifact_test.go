package verification

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestAcquireArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")

	art, err := acquireArtifact(dir, ".png", bytes.NewReader([]byte("image")), 1024)
	require.NoError(t, err)
	assert.Equal(t, int64(5), art.size)
	assert.Equal(t, dir, filepath.Dir(art.path))
	assert.True(t, strings.HasSuffix(art.path, ".png"))

	content, err := os.ReadFile(art.path)
	require.NoError(t, err)
	assert.Equal(t, "image", string(content))

	require.NoError(t, art.release())
	_, err = os.Stat(art.path)
	assert.True(t, os.IsNotExist(err))

	// Releasing twice is harmless.
	assert.NoError(t, art.release())
}

func TestAcquireArtifact_UniqueNames(t *testing.T) {
	dir := t.TempDir()

	a, err := acquireArtifact(dir, ".jpg", bytes.NewReader([]byte("a")), 0)
	require.NoError(t, err)
	b, err := acquireArtifact(dir, ".jpg", bytes.NewReader([]byte("b")), 0)
	require.NoError(t, err)

	assert.NotEqual(t, a.path, b.path)
	require.NoError(t, a.release())
	require.NoError(t, b.release())
}

func TestAcquireArtifact_LeavesNothingOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		body     func() *bytes.Reader
		maxBytes int64
		wantErr  error
	}{
		{name: "empty", body: func() *bytes.Reader { return bytes.NewReader(nil) }, wantErr: ErrMissingUpload},
		{name: "too large", body: func() *bytes.Reader { return bytes.NewReader([]byte("123456")) }, maxBytes: 5, wantErr: ErrUploadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := acquireArtifact(dir, ".png", tt.body(), tt.maxBytes)
			assert.ErrorIs(t, err, tt.wantErr)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}

	t.Run("read error", func(t *testing.T) {
		dir := t.TempDir()
		_, err := acquireArtifact(dir, ".png", failingReader{}, 0)
		require.Error(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestNormalizedExtension(t *testing.T) {
	ext, err := NormalizedExtension("Photo.JPG")
	require.NoError(t, err)
	assert.Equal(t, ".jpg", ext)

	_, err = NormalizedExtension("photo.bmp")
	assert.ErrorIs(t, err, ErrInvalidExtension)

	_, err = NormalizedExtension("")
	assert.ErrorIs(t, err, ErrInvalidExtension)
}
