package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalStore keeps pictures as files in one directory of fs.
type LocalStore struct {
	fs  afero.Fs
	dir string
}

// NewLocalStore returns a store rooted at dir on the OS filesystem.
func NewLocalStore(dir string) *LocalStore {
	return NewLocalStoreFs(afero.NewOsFs(), dir)
}

func NewLocalStoreFs(fsys afero.Fs, dir string) *LocalStore {
	return &LocalStore{fs: fsys, dir: dir}
}

// Save writes content to dir/name, creating dir if it does not exist yet.
func (s *LocalStore) Save(_ context.Context, name string, content io.Reader) error {
	if !validName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating picture directory: %w", err)
	}

	f, err := s.fs.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating picture file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing picture file: %w", err)
	}
	return f.Close()
}

func (s *LocalStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if !validName(name) {
		return nil, ErrPictureNotFound
	}
	f, err := s.fs.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrPictureNotFound
		}
		return nil, fmt.Errorf("opening picture file: %w", err)
	}
	return f, nil
}
