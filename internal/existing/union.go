package existing

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Union merges several indexes into one sorted, deduplicated listing. All
// members are consulted; if any member fails the union returns the names it
// gathered together with the joined error, so the caller degrades.
type Union struct {
	members []Index

	cachedPattern string
	cached        []string
	cachedErr     error
}

// NewUnion builds a Union. Nil members are dropped.
func NewUnion(members ...Index) *Union {
	u := &Union{}
	for _, m := range members {
		if m != nil {
			u.members = append(u.members, m)
		}
	}
	return u
}

// ListExisting returns one page of the merged listing. Offset 0 refreshes
// the merged view.
func (u *Union) ListExisting(ctx context.Context, q Query) ([]string, error) {
	if q.Offset == 0 || q.Pattern != u.cachedPattern || u.cached == nil {
		u.refresh(ctx, q.Pattern)
	}
	if u.cachedErr != nil && q.Offset == 0 {
		// Surface the names gathered so far on the first page only.
		return page(u.cached, 0, len(u.cached)), u.cachedErr
	}
	return page(u.cached, q.Offset, q.Limit), nil
}

func (u *Union) refresh(ctx context.Context, pattern string) {
	seen := make(map[string]struct{})
	var errs []error
	for i, member := range u.members {
		names, err := drain(ctx, member, pattern)
		for _, name := range names {
			seen[name] = struct{}{}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("index %d: %w", i, err))
		}
	}
	merged := make([]string, 0, len(seen))
	for name := range seen {
		merged = append(merged, name)
	}
	sort.Strings(merged)
	u.cachedPattern = pattern
	u.cached = merged
	u.cachedErr = errors.Join(errs...)
}

func drain(ctx context.Context, index Index, pattern string) ([]string, error) {
	var out []string
	for offset := 0; ; offset += DefaultPageSize {
		names, err := index.ListExisting(ctx, Query{Pattern: pattern, Offset: offset, Limit: DefaultPageSize})
		out = append(out, names...)
		if err != nil {
			return out, err
		}
		if len(names) < DefaultPageSize {
			return out, nil
		}
	}
}

func page(names []string, offset, limit int) []string {
	if offset >= len(names) {
		return nil
	}
	end := len(names)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]string(nil), names[offset:end]...)
}

// Page slices a sorted listing for Index implementations that materialize
// the full listing up front.
func Page(names []string, q Query) []string {
	return page(names, q.Offset, q.Limit)
}
