package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PublicPrefix is the URL prefix the upload directory is served under.
const PublicPrefix = "/uploads/"

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("only images (jpeg, jpg, png, gif) are allowed")
)

var allowedExtensions = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Store keeps product images on local disk.
type Store struct {
	Dir      string
	MaxBytes int64
	now      func() time.Time
}

func NewStore(dir string, maxBytes int64) *Store {
	return &Store{Dir: dir, MaxBytes: maxBytes, now: time.Now}
}

// Save validates and writes the uploaded file, returning the public path
// (for example /uploads/image-1700000000000-1a2b3c4d.png).
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", ErrUnsupportedType
	}
	if s.MaxBytes > 0 && fh.Size > s.MaxBytes {
		return "", ErrTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	wantType, ok := allowedExtensions[ext]
	if !ok {
		return "", ErrUnsupportedType
	}
	if ct := fh.Header.Get("Content-Type"); ct != "" && ct != wantType {
		if !(ext == ".jpg" || ext == ".jpeg") || ct != "image/jpg" {
			return "", ErrUnsupportedType
		}
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := fmt.Sprintf("image-%d-%s%s", s.now().UnixMilli(), uuid.NewString()[:8], ext)
	dest, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		os.Remove(dest.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return PublicPrefix + name, nil
}

// Remove deletes a file previously returned by Save. Missing files and
// paths outside the upload prefix are ignored.
func (s *Store) Remove(publicPath string) error {
	if !strings.HasPrefix(publicPath, PublicPrefix) {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(publicPath, PublicPrefix))
	if name == "." || name == "/" || name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
