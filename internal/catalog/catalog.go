package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cardsync/internal/logging"
)

// DefaultPageSize matches the PostgREST row cap.
const DefaultPageSize = 1000

// Item is one candidate card. Items are immutable once read.
type Item struct {
	SourceID    int64  `json:"source_id"`
	GroupID     int64  `json:"group_id"`
	CardNumber  string `json:"card_number"`
	DisplayName string `json:"display_name"`
	GroupName   string `json:"group_name,omitempty"`
	CategoryID  int64  `json:"category_id,omitempty"`
	// ImageRef is either a direct URL or left empty for locators that derive
	// the URL from other fields.
	ImageRef string `json:"image_ref,omitempty"`
}

// Label returns a short human description for logs and summaries.
func (i Item) Label() string {
	name := strings.TrimSpace(i.DisplayName)
	if name == "" {
		name = fmt.Sprintf("item %d", i.SourceID)
	}
	if num := strings.TrimSpace(i.CardNumber); num != "" {
		return name + " #" + num
	}
	return name
}

// PageRequest asks a Source for one page. An empty Token requests the first page.
type PageRequest struct {
	Token string
	Size  int
}

// Page is one slice of the raw feed. Done or an empty Next ends paging.
type Page struct {
	Items []Item
	Next  string
	Done  bool
}

// Source is a read-only paginated catalog.
type Source interface {
	List(ctx context.Context, req PageRequest) (Page, error)
}

// Filters narrow the candidate set after fetch. Zero values disable a filter.
type Filters struct {
	GroupIDs []int64
	SetCodes []string
	Limit    int
}

// Empty reports whether no filter is active.
func (f Filters) Empty() bool {
	return len(f.GroupIDs) == 0 && len(f.SetCodes) == 0 && f.Limit <= 0
}

// Result is the outcome of one FetchAll pass.
type Result struct {
	Items      []Item
	Pages      int
	Raw        int
	Duplicates int
	Filtered   int
	// Degraded is set when paging stopped on an error; Items may be incomplete.
	Degraded bool
	Err      error
}

// Reader pages a Source into a deduplicated, filtered item list.
type Reader struct {
	source   Source
	pageSize int
	logger   *slog.Logger
}

// NewReader constructs a Reader. pageSize <= 0 selects DefaultPageSize.
func NewReader(source Source, pageSize int, logger *slog.Logger) *Reader {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Reader{
		source:   source,
		pageSize: pageSize,
		logger:   logging.NewComponentLogger(logger, "catalog"),
	}
}

// FetchAll reads every page, keeping the first occurrence of each source id.
// It never returns an error: failures end the stream and set Degraded.
func (r *Reader) FetchAll(ctx context.Context, filters Filters) Result {
	var result Result
	if r == nil || r.source == nil {
		result.Degraded = true
		result.Err = errors.New("catalog source unavailable")
		return result
	}

	seen := make(map[int64]struct{})
	var items []Item
	token := ""
	visited := map[string]struct{}{}
	for {
		if err := ctx.Err(); err != nil {
			r.degrade(&result, err, result.Pages)
			break
		}
		page, err := r.source.List(ctx, PageRequest{Token: token, Size: r.pageSize})
		if err != nil {
			r.degrade(&result, err, result.Pages)
			break
		}
		result.Pages++
		result.Raw += len(page.Items)
		for _, item := range page.Items {
			if _, dup := seen[item.SourceID]; dup {
				result.Duplicates++
				continue
			}
			seen[item.SourceID] = struct{}{}
			items = append(items, item)
		}
		if page.Done || len(page.Items) == 0 || len(page.Items) < r.pageSize || page.Next == "" {
			break
		}
		if _, loop := visited[page.Next]; loop {
			r.degrade(&result, fmt.Errorf("page token %q repeated", page.Next), result.Pages)
			break
		}
		visited[page.Next] = struct{}{}
		token = page.Next
	}

	filtered := applyFilters(items, filters)
	result.Filtered = len(items) - len(filtered)
	result.Items = filtered

	r.logger.Info("catalog read",
		logging.Int("pages", result.Pages),
		logging.Int("raw", result.Raw),
		logging.Int("unique", len(items)),
		logging.Int("duplicates", result.Duplicates),
		logging.Int("candidates", len(filtered)),
		logging.Bool("degraded", result.Degraded),
		logging.String(logging.FieldEventType, "catalog_read"),
	)
	return result
}

func (r *Reader) degrade(result *Result, err error, pages int) {
	result.Degraded = true
	result.Err = err
	logging.WarnWithContext(r.logger, "catalog page failed; treating as end of stream", "catalog_page_failed",
		logging.Int("pages_read", pages),
		logging.Error(err),
		logging.Hint("check catalog.base_url, credentials, and network reachability"),
		logging.Impact("candidate set may be incomplete; a later run picks up the rest"),
	)
}

func applyFilters(items []Item, filters Filters) []Item {
	if filters.Empty() {
		return items
	}
	groups := make(map[int64]struct{}, len(filters.GroupIDs))
	for _, id := range filters.GroupIDs {
		groups[id] = struct{}{}
	}
	codes := make(map[string]struct{}, len(filters.SetCodes))
	for _, code := range filters.SetCodes {
		if normalized := NormalizeSetCode(code); normalized != "" {
			codes[strings.ToLower(normalized)] = struct{}{}
		}
	}

	out := make([]Item, 0, len(items))
	for _, item := range items {
		if len(groups) > 0 {
			if _, ok := groups[item.GroupID]; !ok {
				continue
			}
		}
		if len(codes) > 0 {
			code, ok := ExtractSetCode(item.GroupName)
			if !ok {
				continue
			}
			if _, ok := codes[strings.ToLower(code)]; !ok {
				continue
			}
		}
		out = append(out, item)
		if filters.Limit > 0 && len(out) >= filters.Limit {
			break
		}
	}
	return out
}
