// Package storage persists uploaded blobs such as lock-in beats.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// BeatsBucket holds user-uploaded lock-in beats.
const BeatsBucket = "beats"

var (
	// ErrInvalidPath is returned for bucket or object paths that escape the root.
	ErrInvalidPath = errors.New("invalid blob path")
	// ErrTooLarge is returned when an upload exceeds the store limit.
	ErrTooLarge = errors.New("blob too large")
)

// BlobStore uploads objects and resolves their public URLs.
type BlobStore interface {
	Upload(ctx context.Context, bucket, objectPath string, r io.Reader, contentType string) error
	PublicURL(bucket, objectPath string) string
}

// DiskStore writes blobs under Root/<bucket>/<path> and serves them from
// BaseURL/blobs/<bucket>/<path>.
type DiskStore struct {
	Root    string
	BaseURL string
	MaxSize int64
}

var _ BlobStore = (*DiskStore)(nil)

// NewDiskStore creates root if needed.
func NewDiskStore(root, baseURL string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create blob dir: %w", err)
	}
	return &DiskStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/"), MaxSize: maxSize}, nil
}

func (s *DiskStore) resolve(bucket, objectPath string) (string, error) {
	clean := path.Clean("/" + bucket + "/" + objectPath)
	parts := strings.SplitN(strings.TrimPrefix(clean, "/"), "/", 2)
	if bucket == "" || objectPath == "" || len(parts) != 2 || parts[0] != bucket || strings.Contains(bucket, "/") {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.Root, filepath.FromSlash(clean)), nil
}

// Upload streams r to disk. The file appears atomically once fully written.
func (s *DiskStore) Upload(ctx context.Context, bucket, objectPath string, r io.Reader, contentType string) error {
	dest, err := s.resolve(bucket, objectPath)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("failed to create blob dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create blob: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	src := r
	if s.MaxSize > 0 {
		src = io.LimitReader(r, s.MaxSize+1)
	}
	n, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if s.MaxSize > 0 && n > s.MaxSize {
		return ErrTooLarge
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to store blob: %w", err)
	}
	return nil
}

// PublicURL returns where the blob is served.
func (s *DiskStore) PublicURL(bucket, objectPath string) string {
	u := s.BaseURL + "/blobs/" + url.PathEscape(bucket)
	for _, seg := range strings.Split(objectPath, "/") {
		u += "/" + url.PathEscape(seg)
	}
	return u
}

// Handler serves stored blobs; mount it under /blobs/.
func (s *DiskStore) Handler() http.Handler {
	return http.StripPrefix("/blobs/", http.FileServer(noListFS{http.Dir(s.Root)}))
}

// noListFS hides directory listings.
type noListFS struct{ fs http.FileSystem }

func (n noListFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}

// AudioExtension maps allowed beat content types to a file extension.
func AudioExtension(contentType string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "audio/mpeg", "audio/mp3":
		return ".mp3", true
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav", true
	case "audio/ogg":
		return ".ogg", true
	case "audio/mp4", "audio/aac", "audio/x-m4a":
		return ".m4a", true
	case "audio/flac":
		return ".flac", true
	default:
		return "", false
	}
}
