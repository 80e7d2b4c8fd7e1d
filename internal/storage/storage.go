// Package storage keeps uploaded media on disk and validates image payloads.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"fitcraft/internal/observability"

	"github.com/google/uuid"
)

// ErrInvalidKey is returned for keys that escape the storage root.
var ErrInvalidKey = errors.New("invalid blob key")

// BlobStore persists opaque blobs under slash-separated keys.
type BlobStore interface {
	Save(ctx context.Context, dir, filename string, content []byte) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// ProfileDir is the directory holding a user's avatar uploads.
func ProfileDir(userID uint) string {
	return fmt.Sprintf("profiles/user_%d", userID)
}

// PostDir is the directory holding a user's post images.
func PostDir(userID uint) string {
	return fmt.Sprintf("posts/user_%d", userID)
}

// LocalStore writes blobs below Root and serves them from BaseURL.
type LocalStore struct {
	Root    string
	BaseURL string
}

// NewLocalStore returns a store rooted at root. An empty baseURL serves from "/media".
func NewLocalStore(root, baseURL string) *LocalStore {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = "/media"
	}
	return &LocalStore{Root: root, BaseURL: baseURL}
}

// Save writes content as dir/filename. An existing file is never overwritten:
// a short random suffix is inserted before the extension instead.
func (s *LocalStore) Save(ctx context.Context, dir, filename string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := SanitizeFilename(filename)
	dir = path.Clean(strings.Trim(dir, "/"))
	if dir == "." || strings.HasPrefix(dir, "..") {
		return "", ErrInvalidKey
	}

	absDir := filepath.Join(s.Root, filepath.FromSlash(dir))
	if err := os.MkdirAll(absDir, 0o750); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}

	candidate := name
	for attempt := 0; attempt < 5; attempt++ {
		f, err := os.OpenFile(filepath.Join(absDir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
		if errors.Is(err, fs.ErrExist) {
			candidate = withSuffix(name, uuid.NewString()[:7])
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create blob: %w", err)
		}

		if _, err := f.Write(content); err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
			return "", fmt.Errorf("write blob: %w", err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(f.Name())
			return "", fmt.Errorf("close blob: %w", err)
		}

		kind, _, _ := strings.Cut(dir, "/")
		observability.BlobBytesWritten.WithLabelValues(kind).Add(float64(len(content)))
		return dir + "/" + candidate, nil
	}
	return "", fmt.Errorf("could not find a free name for %q in %s", name, dir)
}

// Delete removes the blob. Missing blobs are not an error.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	abs, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// URL returns the public URL of key, or "" for an empty key.
func (s *LocalStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.BaseURL + "/" + strings.TrimLeft(key, "/")
}

func (s *LocalStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.Root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// SanitizeFilename reduces an uploaded name to a safe base name.
func SanitizeFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, name)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "upload"
	}
	return name
}

func withSuffix(name, suffix string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + suffix + ext
}
