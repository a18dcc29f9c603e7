// Package catalog reads candidate card items from a paginated catalog source.
//
// Reader pages through a Source with a stable page size, deduplicates by
// source id (first occurrence wins), and applies group and set-code filters
// after the fetch because set codes are parsed out of display fields the
// source cannot query. Paging errors end the stream and mark the result as
// degraded rather than failing the run.
//
// Concrete sources live in subpackages: postgrest reads the two-phase
// language-link/product tables and jsonfile reads an exported catalog file.
package catalog
