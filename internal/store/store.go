// Package store persists encoded artifacts under their object key and lists
// what is already there.
//
// Every backend overwrites on Put, so repeating a write is harmless.
package store

import (
	"context"
	"sort"
	"sync"

	"cardsync/internal/existing"
)

// Writer persists one artifact.
type Writer interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Store is a Writer that can also serve as an existence index.
type Store interface {
	Writer
	existing.Index
}

// listing caches one full, sorted listing per pattern and pages it for
// existing.Index callers. Offset 0 refreshes the cache.
type listing struct {
	mu      sync.Mutex
	pattern string
	names   []string
	loaded  bool
}

func (l *listing) page(ctx context.Context, q existing.Query, load func(context.Context, string) ([]string, error)) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if q.Offset == 0 || !l.loaded || q.Pattern != l.pattern {
		names, err := load(ctx, q.Pattern)
		sort.Strings(names)
		l.pattern = q.Pattern
		l.names = names
		l.loaded = err == nil
		if err != nil {
			return existing.Page(names, existing.Query{Limit: len(names)}), err
		}
	}
	return existing.Page(l.names, q), nil
}
