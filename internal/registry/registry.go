// Package registry records landed artifacts in a downstream catalog so other
// systems can find them.
//
// Registration runs after the artifact is persisted. An already-registered
// record is success; any other failure leaves the artifact in place and is
// reported as a partial outcome by the caller.
package registry

import (
	"context"

	"cardsync/internal/ident"
)

// Record describes one landed artifact.
type Record struct {
	Target      ident.TargetID
	Source      string
	Language    string
	Key         string
	Bucket      string
	ContentType string
	Bytes       int64
	SourceID    int64
	GroupID     int64
	CardNumber  string
	RunID       string
}

// Registrar upserts records. Implementations must treat an existing record
// as success.
type Registrar interface {
	Upsert(ctx context.Context, rec Record) error
}

// Nop discards records.
type Nop struct{}

// Upsert implements Registrar.
func (Nop) Upsert(context.Context, Record) error { return nil }

// Multi fans a record out to several registrars, stopping at the first error.
type Multi []Registrar

// Upsert implements Registrar.
func (m Multi) Upsert(ctx context.Context, rec Record) error {
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Upsert(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
