package bundle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"path"

	"github.com/vango-dev/pageroutes/pkg/deferred"
)

// DirSource loads bundles from a file system, typically os.DirFS during
// development.
type DirSource struct {
	fsys fs.FS
}

// NewDirSource creates a source reading from fsys.
func NewDirSource(fsys fs.FS) *DirSource {
	return &DirSource{fsys: fsys}
}

// Loader returns a deferred loader for name.
func (d *DirSource) Loader(name string) deferred.Loader {
	return func(ctx context.Context) (deferred.Component, error) {
		return d.Fetch(ctx, name)
	}
}

// Fetch reads the bundle at name.
func (d *DirSource) Fetch(ctx context.Context, name string) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := fs.ReadFile(d.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return &Bundle{
		Key:         name,
		ContentType: mime.TypeByExtension(path.Ext(name)),
		Body:        body,
	}, nil
}
