// Package ingest turns a reconciled work list into landed artifacts.
//
// A Processor runs one item through locate, fetch, transform, persist, and
// register, short-circuiting on the first failure. A Driver fans work out to
// a fixed pool of workers and folds their Outcomes into a RunSummary on a
// single goroutine. A Runner wires the catalog read, the existence snapshot,
// and reconciliation in front of the Driver for one source.
//
// Every work item yields exactly one Outcome, including items abandoned by
// cancellation, so summaries always add up to the size of the work list.
package ingest
