// Package main hosts the cardsync CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the per-source
// pipeline through internal/ingestrun, and renders run summaries, existence
// snapshots, ledger contents, and preflight results. Keep this package thin:
// new behavior belongs in the internal packages and is surfaced here as
// commands or flags.
package main
