package registry

import (
	"context"
	"fmt"

	"cardsync/internal/postgrest"
)

// Upserter is the PostgREST write surface the registrar needs.
type Upserter interface {
	Upsert(ctx context.Context, table string, row any) error
}

// PostgRESTRegistrar writes a storage object row and a language link row.
type PostgRESTRegistrar struct {
	client       Upserter
	objectsTable string
	linksTable   string
	cacheControl string
}

// NewPostgRESTRegistrar constructs a registrar. Empty tables default to
// "storage.objects" and "card_language_links".
func NewPostgRESTRegistrar(client Upserter, objectsTable, linksTable, cacheControl string) *PostgRESTRegistrar {
	if objectsTable == "" {
		objectsTable = "storage.objects"
	}
	if linksTable == "" {
		linksTable = "card_language_links"
	}
	return &PostgRESTRegistrar{
		client:       client,
		objectsTable: objectsTable,
		linksTable:   linksTable,
		cacheControl: cacheControl,
	}
}

type objectRow struct {
	BucketID string         `json:"bucket_id"`
	Name     string         `json:"name"`
	Version  *string        `json:"version"`
	Metadata objectMetadata `json:"metadata"`
}

type objectMetadata struct {
	Size         int64  `json:"size"`
	Mimetype     string `json:"mimetype"`
	CacheControl string `json:"cacheControl,omitempty"`
}

type linkRow struct {
	SyntheticProductID int64  `json:"synthetic_product_id"`
	LanguageCode       string `json:"language_code"`
}

// Upsert implements Registrar. A 409 from either table means the row is
// already present.
func (p *PostgRESTRegistrar) Upsert(ctx context.Context, rec Record) error {
	obj := objectRow{
		BucketID: rec.Bucket,
		Name:     rec.Key,
		Metadata: objectMetadata{
			Size:         rec.Bytes,
			Mimetype:     rec.ContentType,
			CacheControl: p.cacheControl,
		},
	}
	if err := p.client.Upsert(ctx, p.objectsTable, obj); err != nil && !postgrest.IsConflict(err) {
		return fmt.Errorf("register object %s: %w", rec.Key, err)
	}
	if rec.Language == "" {
		return nil
	}
	link := linkRow{SyntheticProductID: int64(rec.Target), LanguageCode: rec.Language}
	if err := p.client.Upsert(ctx, p.linksTable, link); err != nil && !postgrest.IsConflict(err) {
		return fmt.Errorf("register language link %d: %w", rec.Target, err)
	}
	return nil
}
