package existing

import (
	"context"
	"net/url"

	"cardsync/internal/keys"
)

// Selector is the subset of the PostgREST client used by PostgRESTIndex.
type Selector interface {
	Select(ctx context.Context, table string, query url.Values, offset, limit int, out any) error
}

// PostgRESTIndex lists names from the storage objects table of a bucket.
type PostgRESTIndex struct {
	client Selector
	table  string
	bucket string
}

// NewPostgRESTIndex constructs an index over table (e.g. "storage.objects").
func NewPostgRESTIndex(client Selector, table, bucket string) *PostgRESTIndex {
	if table == "" {
		table = "storage.objects"
	}
	return &PostgRESTIndex{client: client, table: table, bucket: bucket}
}

// ListExisting issues one ranged select with a LIKE filter on the name.
func (p *PostgRESTIndex) ListExisting(ctx context.Context, q Query) ([]string, error) {
	query := url.Values{}
	query.Set("select", "name")
	query.Set("bucket_id", "eq."+p.bucket)
	query.Set("name", "like."+keys.LikePattern(q.Pattern))
	query.Set("order", "name.asc")

	var rows []struct {
		Name string `json:"name"`
	}
	if err := p.client.Select(ctx, p.table, query, q.Offset, q.Limit, &rows); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	return names, nil
}
