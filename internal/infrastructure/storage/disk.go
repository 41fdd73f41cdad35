// Package storage keeps uploaded images on local disk or in an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultUploadDir is served publicly under /images.
const DefaultUploadDir = "public/images"

var ErrInvalidName = errors.New("invalid image name")

// DiskStore writes images below dir and serves them from baseURL.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates dir if needed. baseURL is the public prefix images are
// reachable at, for example "http://localhost:8080/images".
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if dir == "" {
		dir = DefaultUploadDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the directory images are written to.
func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) Put(_ context.Context, name string, content []byte, _ string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

// Remove deletes name. A missing file is not an error.
func (s *DiskStore) Remove(_ context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

func (s *DiskStore) URL(name string) string {
	if name == "" {
		return ""
	}
	return s.baseURL + "/" + name
}

func (s *DiskStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}
