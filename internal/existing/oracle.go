// Package existing builds the point-in-time set of target identifiers already
// present in the target store.
//
// The set is a hint: queries are best-effort, a failed page ends the scan with
// a degraded snapshot, and persistence downstream is overwrite-safe so an
// under-reported set only costs redundant work.
package existing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cardsync/internal/ident"
	"cardsync/internal/keys"
	"cardsync/internal/logging"
)

// DefaultPageSize is the index page size.
const DefaultPageSize = 1000

// Query selects one page of object names.
type Query struct {
	// Pattern is a wildcard pattern where "*" matches within one path segment.
	Pattern string
	Offset  int
	Limit   int
}

// Index lists object names. A page shorter than Limit ends the listing. An
// implementation may return the names it gathered together with an error.
type Index interface {
	ListExisting(ctx context.Context, q Query) ([]string, error)
}

// Snapshot is the existence result for one run.
type Snapshot struct {
	IDs      map[ident.TargetID]struct{}
	Names    int
	Pages    int
	Degraded bool
	Err      error
}

// Has reports whether id is present.
func (s Snapshot) Has(id ident.TargetID) bool {
	_, ok := s.IDs[id]
	return ok
}

// Len returns the number of known ids.
func (s Snapshot) Len() int {
	return len(s.IDs)
}

// Oracle pages an Index and parses ids owned by one source.
type Oracle struct {
	index    Index
	layout   keys.Layout
	mapper   ident.Mapper
	pageSize int
	logger   *slog.Logger
}

// NewOracle constructs an Oracle. pageSize <= 0 selects DefaultPageSize.
func NewOracle(index Index, layout keys.Layout, mapper ident.Mapper, pageSize int, logger *slog.Logger) *Oracle {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Oracle{
		index:    index,
		layout:   layout,
		mapper:   mapper,
		pageSize: pageSize,
		logger:   logging.NewComponentLogger(logger, "existing"),
	}
}

// ExistingIDs scans the index. It never fails: errors produce a partial,
// degraded snapshot.
func (o *Oracle) ExistingIDs(ctx context.Context) Snapshot {
	snap := Snapshot{IDs: make(map[ident.TargetID]struct{})}
	if o == nil || o.index == nil {
		snap.Degraded = true
		snap.Err = errors.New("existence index unavailable")
		return snap
	}
	pattern := o.layout.Pattern()
	for offset := 0; ; offset += o.pageSize {
		if err := ctx.Err(); err != nil {
			o.degrade(&snap, err)
			break
		}
		// Names returned alongside an error are still usable.
		names, err := o.index.ListExisting(ctx, Query{Pattern: pattern, Offset: offset, Limit: o.pageSize})
		snap.Names += len(names)
		for _, name := range names {
			id, ok := o.layout.Parse(name)
			if !ok || !o.mapper.Owns(id) {
				continue
			}
			snap.IDs[id] = struct{}{}
		}
		if err != nil {
			o.degrade(&snap, fmt.Errorf("list page at offset %d: %w", offset, err))
			break
		}
		snap.Pages++
		if len(names) < o.pageSize {
			break
		}
	}
	o.logger.Info("existing items scanned",
		logging.Int("pages", snap.Pages),
		logging.Int("names", snap.Names),
		logging.Int("existing", len(snap.IDs)),
		logging.Bool("degraded", snap.Degraded),
		logging.String(logging.FieldEventType, "existence_scanned"),
	)
	return snap
}

func (o *Oracle) degrade(snap *Snapshot, err error) {
	snap.Degraded = true
	snap.Err = err
	logging.WarnWithContext(o.logger, "existence query failed; continuing with partial set", "existence_query_failed",
		logging.Int("pages_read", snap.Pages),
		logging.Error(err),
		logging.Hint("check storage credentials and index reachability"),
		logging.Impact("already-present items may be downloaded again"),
	)
}
