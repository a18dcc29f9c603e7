// Package supabase reads a card catalog from PostgREST tables in two phases:
// the language link table lists the synthetic product ids for one language,
// then the products table is fetched in id batches with the group embedded.
package supabase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"cardsync/internal/catalog"
	"cardsync/internal/postgrest"
)

const (
	defaultLinksTable    = "card_language_links"
	defaultProductsTable = "products"
	defaultBatchSize     = 100
	linkPageSize         = 1000
)

// Selector is the subset of the PostgREST client the source uses.
type Selector interface {
	Select(ctx context.Context, table string, query url.Values, offset, limit int, out any) error
}

// Options configure a Source.
type Options struct {
	Language string
	// IDOffset is subtracted from product ids, which already carry the
	// source's offset base, so Item.SourceID is source-local.
	IDOffset      int64
	LinksTable    string
	ProductsTable string
	BatchSize     int
}

// Source implements catalog.Source. Page tokens are positions in the link list.
type Source struct {
	client Selector
	opts   Options

	mu     sync.Mutex
	ids    []int64
	loaded bool
}

var _ catalog.Source = (*Source)(nil)

// New constructs a Source.
func New(client Selector, opts Options) *Source {
	if opts.LinksTable == "" {
		opts.LinksTable = defaultLinksTable
	}
	if opts.ProductsTable == "" {
		opts.ProductsTable = defaultProductsTable
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &Source{client: client, opts: opts}
}

type linkRow struct {
	SyntheticProductID int64 `json:"synthetic_product_id"`
}

type productRow struct {
	ID         int64  `json:"id"`
	GroupID    int64  `json:"group_id"`
	CardNumber string `json:"card_number"`
	Groups     *struct {
		Name       string `json:"name"`
		CategoryID int64  `json:"category_id"`
	} `json:"groups"`
}

// List returns products for the links starting at the token position. A page
// keeps pulling id batches until it holds at least req.Size items, so only
// the final page comes back short.
func (s *Source) List(ctx context.Context, req catalog.PageRequest) (catalog.Page, error) {
	ids, err := s.linkIDs(ctx)
	if err != nil {
		return catalog.Page{}, err
	}
	pos := 0
	if req.Token != "" {
		pos, err = strconv.Atoi(req.Token)
		if err != nil || pos < 0 {
			return catalog.Page{}, fmt.Errorf("invalid page token %q", req.Token)
		}
	}
	size := req.Size
	if size <= 0 {
		size = catalog.DefaultPageSize
	}

	var page catalog.Page
	for pos < len(ids) && len(page.Items) < size {
		end := pos + s.opts.BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		items, err := s.products(ctx, ids[pos:end])
		if err != nil {
			return catalog.Page{}, err
		}
		page.Items = append(page.Items, items...)
		pos = end
	}
	if pos >= len(ids) {
		page.Done = true
	} else {
		page.Next = strconv.Itoa(pos)
	}
	return page, nil
}

func (s *Source) linkIDs(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.ids, nil
	}
	query := url.Values{}
	query.Set("select", "synthetic_product_id,language_code")
	query.Set("language_code", "eq."+s.opts.Language)
	query.Set("synthetic_product_id", "gte."+strconv.FormatInt(s.opts.IDOffset, 10))
	query.Set("order", "synthetic_product_id.asc")

	var ids []int64
	for offset := 0; ; offset += linkPageSize {
		var rows []linkRow
		if err := s.client.Select(ctx, s.opts.LinksTable, query, offset, linkPageSize, &rows); err != nil {
			return nil, fmt.Errorf("list %s links: %w", s.opts.Language, err)
		}
		for _, row := range rows {
			ids = append(ids, row.SyntheticProductID)
		}
		if len(rows) < linkPageSize {
			break
		}
	}
	s.ids = ids
	s.loaded = true
	return ids, nil
}

func (s *Source) products(ctx context.Context, ids []int64) ([]catalog.Item, error) {
	query := url.Values{}
	query.Set("select", "id,group_id,card_number,groups(name,category_id)")
	query.Set("id", postgrest.InList(ids))
	query.Set("order", "group_id.desc,card_number.asc")

	var rows []productRow
	if err := s.client.Select(ctx, s.opts.ProductsTable, query, 0, 0, &rows); err != nil {
		return nil, fmt.Errorf("fetch product batch: %w", err)
	}
	items := make([]catalog.Item, 0, len(rows))
	for _, row := range rows {
		item := catalog.Item{
			SourceID:   row.ID - s.opts.IDOffset,
			GroupID:    row.GroupID,
			CardNumber: row.CardNumber,
		}
		if row.Groups != nil {
			item.GroupName = row.Groups.Name
			item.CategoryID = row.Groups.CategoryID
			item.DisplayName = row.Groups.Name
		}
		items = append(items, item)
	}
	return items, nil
}
