// Package jsonfile serves a catalog export file through the paged
// catalog.Source contract.
//
// The file is a JSON array of product objects:
//
//	[{"id": 28954, "group_id": 24310, "card_number": "001/100",
//	  "product_name": "...", "group_name": "...", "image_url": "https://..."}]
//
// Rows may repeat the same id (one per presentation variant); the reader
// keeps the first.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"cardsync/internal/catalog"
)

// Source pages an exported catalog file loaded on first use.
type Source struct {
	path       string
	categoryID int64

	once  sync.Once
	items []catalog.Item
	err   error
}

var _ catalog.Source = (*Source)(nil)

// New constructs a Source for path. categoryID is stamped on every item.
func New(path string, categoryID int64) *Source {
	return &Source{path: path, categoryID: categoryID}
}

type row struct {
	ID          int64      `json:"id"`
	GroupID     int64      `json:"group_id"`
	CardNumber  flexString `json:"card_number"`
	ProductName string     `json:"product_name"`
	Name        string     `json:"name"`
	GroupName   string     `json:"group_name"`
	ImageURL    string     `json:"image_url"`
}

// flexString accepts both JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("card_number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// List returns the slice of items starting at the token offset.
func (s *Source) List(ctx context.Context, req catalog.PageRequest) (catalog.Page, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Page{}, err
	}
	s.once.Do(s.load)
	if s.err != nil {
		return catalog.Page{}, s.err
	}
	offset := 0
	if req.Token != "" {
		var err error
		offset, err = strconv.Atoi(req.Token)
		if err != nil || offset < 0 {
			return catalog.Page{}, fmt.Errorf("invalid page token %q", req.Token)
		}
	}
	size := req.Size
	if size <= 0 {
		size = catalog.DefaultPageSize
	}
	if offset >= len(s.items) {
		return catalog.Page{Done: true}, nil
	}
	end := offset + size
	if end > len(s.items) {
		end = len(s.items)
	}
	page := catalog.Page{Items: append([]catalog.Item(nil), s.items[offset:end]...)}
	if end >= len(s.items) {
		page.Done = true
	} else {
		page.Next = strconv.Itoa(end)
	}
	return page, nil
}

func (s *Source) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.err = fmt.Errorf("read catalog file: %w", err)
		return
	}
	var rows []row
	if err := json.Unmarshal(data, &rows); err != nil {
		s.err = fmt.Errorf("parse catalog file %s: %w", s.path, err)
		return
	}
	s.items = make([]catalog.Item, 0, len(rows))
	for _, r := range rows {
		name := strings.TrimSpace(r.ProductName)
		if name == "" {
			name = strings.TrimSpace(r.Name)
		}
		s.items = append(s.items, catalog.Item{
			SourceID:    r.ID,
			GroupID:     r.GroupID,
			CardNumber:  strings.TrimSpace(string(r.CardNumber)),
			DisplayName: name,
			GroupName:   strings.TrimSpace(r.GroupName),
			CategoryID:  s.categoryID,
			ImageRef:    strings.TrimSpace(r.ImageURL),
		})
	}
}
