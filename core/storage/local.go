package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalSpool writes bodies to temporary files in a directory.
type LocalSpool struct {
	dir     string
	maxSize int64
}

var _ Spool = (*LocalSpool)(nil)

// LocalOption configures a LocalSpool.
type LocalOption func(*LocalSpool)

// WithMaxSize limits the size of a spooled body. Zero means unlimited.
func WithMaxSize(n int64) LocalOption {
	return func(s *LocalSpool) {
		s.maxSize = n
	}
}

// NewLocalSpool creates a spool in dir, creating it if needed.
// An empty dir uses the system temp directory.
func NewLocalSpool(dir string, opts ...LocalOption) (*LocalSpool, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}

	s := &LocalSpool{dir: abs}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the spool directory.
func (s *LocalSpool) Dir() string {
	return s.dir
}

// Put copies r into a new temp file and returns its path as the location.
func (s *LocalSpool) Put(ctx context.Context, r io.Reader, contentType string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(s.dir, "body-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpoolFailed, err)
	}

	size, err := CopyLimited(f, r, s.maxSize)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("%w: %w", ErrSpoolFailed, cerr)
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return nil, err
	}

	return &Object{
		Location:    f.Name(),
		ContentType: contentType,
		Size:        size,
	}, nil
}

// Open opens a spooled file for reading.
func (s *LocalSpool) Open(_ context.Context, location string) (io.ReadCloser, error) {
	if !s.owns(location) {
		return nil, ErrInvalidLocation
	}

	f, err := os.Open(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return f, nil
}

// Remove deletes a spooled file.
func (s *LocalSpool) Remove(_ context.Context, location string) error {
	if !s.owns(location) {
		return ErrInvalidLocation
	}
	if err := os.Remove(location); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// owns reports whether location is a file directly inside the spool directory.
func (s *LocalSpool) owns(location string) bool {
	clean := filepath.Clean(location)
	return filepath.Dir(clean) == s.dir && strings.HasPrefix(filepath.Base(clean), "body-")
}

// CopyLimited copies src to dst, failing with ErrObjectTooLarge once more than
// max bytes have been read. A non-positive max disables the limit.
func CopyLimited(dst io.Writer, src io.Reader, max int64) (int64, error) {
	if src == nil {
		return 0, nil
	}
	if max <= 0 {
		n, err := io.Copy(dst, src)
		if err != nil {
			return n, fmt.Errorf("%w: %w", ErrSpoolFailed, err)
		}
		return n, nil
	}

	n, err := io.Copy(dst, io.LimitReader(src, max+1))
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrSpoolFailed, err)
	}
	if n > max {
		return n, fmt.Errorf("%w: max %d bytes", ErrObjectTooLarge, max)
	}
	return n, nil
}
