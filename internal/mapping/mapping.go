// Package mapping maintains the JSON side artifact that maps source product
// ids to target ids and object keys for downstream registration.
package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"

	"cardsync/internal/fileutil"
	"cardsync/internal/logging"
)

// Entry is one mapped card.
type Entry struct {
	SourceID   int64  `json:"source_id"`
	TargetID   int64  `json:"target_id"`
	GroupID    int64  `json:"group_id"`
	CardNumber string `json:"card_number"`
	Name       string `json:"name"`
	Key        string `json:"key"`
	Bytes      int64  `json:"bytes"`
}

// File accumulates entries and merges them with an existing mapping file.
// Entries are keyed by target id; later entries replace earlier ones.
type File struct {
	path    string
	logger  *slog.Logger
	mu      sync.Mutex
	entries map[int64]Entry
}

// Open loads path if it exists. A missing or unreadable file starts empty.
func Open(path string, logger *slog.Logger) *File {
	logger = logging.NewComponentLogger(logger, "mapping")
	f := &File{path: path, logger: logger, entries: make(map[int64]Entry)}
	if path == "" {
		return f
	}
	if err := f.load(); err != nil {
		logging.WarnWithContext(logger, "failed to load mapping file",
			"mapping_load_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.Hint("fix or delete the file; it will be rewritten"),
			logging.Impact("earlier mappings are dropped from the rewritten file"))
		f.entries = make(map[int64]Entry)
	}
	return f
}

func (f *File) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read mapping: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse mapping: %w", err)
	}
	for _, e := range entries {
		f.entries[e.TargetID] = e
	}
	return nil
}

// Add records an entry. Safe for concurrent use.
func (f *File) Add(e Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[e.TargetID] = e
}

// Len returns the number of entries.
func (f *File) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Entries returns entries sorted by target id.
func (f *File) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetID < out[j].TargetID })
	return out
}

// Save writes the merged mapping atomically. It is a no-op without a path.
func (f *File) Save() error {
	if f.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(f.Entries(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	if err := fileutil.WriteFileAtomic(f.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	f.logger.Debug("mapping saved",
		logging.String("path", f.path),
		logging.Int("entries", f.Len()))
	return nil
}
