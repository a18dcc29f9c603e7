package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cardsync/internal/existing"
	"cardsync/internal/fileutil"
	"cardsync/internal/keys"
)

// Local writes artifacts beneath a root directory, one file per key.
type Local struct {
	root string
	list listing
}

// NewLocal constructs a Local store rooted at dir.
func NewLocal(dir string) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("local store directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Local{root: dir}, nil
}

// Root returns the store directory.
func (l *Local) Root() string {
	return l.root
}

// Path returns the filesystem location of key.
func (l *Local) Path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(l.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Put writes data atomically, replacing any existing file.
func (l *Local) Put(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := l.Path(key)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(target, data, 0o644)
}

// ListExisting pages keys under the root that match the query pattern.
func (l *Local) ListExisting(ctx context.Context, q existing.Query) ([]string, error) {
	return l.list.page(ctx, q, l.walk)
}

func (l *Local) walk(ctx context.Context, pattern string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || fileutil.IsTempName(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if pattern == "" || keys.Match(pattern, name) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return names, fmt.Errorf("walk %s: %w", l.root, err)
	}
	return names, nil
}
