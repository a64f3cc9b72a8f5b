package verification

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// allowedExtensions lists accepted image types, including the variants
// some phone camera pipelines produce.
var allowedExtensions = map[string]struct{}{
	".png":   {},
	".jpg":   {},
	".jpeg":  {},
	".jfif":  {},
	".pjpeg": {},
	".pjp":   {},
}

// NormalizedExtension returns the lowercase extension of filename if it is
// an accepted image type.
func NormalizedExtension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		if ext == "" {
			return "", fmt.Errorf("%w: %q has no extension", ErrInvalidExtension, filename)
		}
		return "", fmt.Errorf("%w: %s", ErrInvalidExtension, ext)
	}
	return ext, nil
}

// artifact is an uploaded image written to disk for the duration of one
// verification.
type artifact struct {
	path string
	size int64
}

// acquireArtifact writes body into dir under a unique name. On error no
// file is left behind.
func acquireArtifact(dir, ext string, body io.Reader, maxBytes int64) (*artifact, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString(), ext)
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}

	src := body
	if maxBytes > 0 {
		src = io.LimitReader(body, maxBytes+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	a := &artifact{path: path, size: n}
	switch {
	case copyErr != nil:
		_ = a.release()
		return nil, fmt.Errorf("failed to store upload: %w", copyErr)
	case closeErr != nil:
		_ = a.release()
		return nil, fmt.Errorf("failed to store upload: %w", closeErr)
	case n == 0:
		_ = a.release()
		return nil, ErrMissingUpload
	case maxBytes > 0 && n > maxBytes:
		_ = a.release()
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrUploadTooLarge, maxBytes)
	}
	return a, nil
}

// release deletes the artifact. A file that is already gone is not an error.
func (a *artifact) release() error {
	if err := os.Remove(a.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
