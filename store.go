package gridshift

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// File is an open grid file. Implementations must allow concurrent ReadAt
// calls; every read names its own offset.
type File interface {
	io.ReaderAt
	io.Closer
}

// Store opens grid files by name. Open returns an error wrapping
// ErrGridNotFound when the file does not exist. The context bounds every
// read made through the returned File.
type Store interface {
	Open(ctx context.Context, name string) (File, error)
}

// DirStore serves grid files from a local directory.
type DirStore struct {
	Root string
}

func (s DirStore) Open(ctx context.Context, name string) (File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.Root, name)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrGridNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}
