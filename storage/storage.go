package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrPictureNotFound = errors.New("picture not found")
	ErrInvalidName     = errors.New("invalid picture name")
)

// PictureStore persists profile pictures under flat, generated names.
type PictureStore interface {
	Save(ctx context.Context, name string, content io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// GenerateName returns a random 32 hex character name that keeps the
// extension of original.
func GenerateName(original string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + filepath.Ext(original)
}

// validName rejects anything that could escape the store's namespace.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}
