// Package logging assembles structured slog loggers and formatting helpers used
// across cardsync.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run IDs, source names, and target identifiers. The package also
// provides a no-op logger for tests and wiring code that cannot fail, log
// retention pruning, and a progress sampler for long runs.
package logging
