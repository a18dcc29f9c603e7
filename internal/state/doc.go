// Package state owns the local SQLite ledger of landed artifacts and run
// summaries.
//
// The ledger doubles as an existence index and as a registrar, so a run
// against a store that cannot be listed cheaply can still skip work it has
// already done. Writes retry briefly on SQLITE_BUSY because several cardsync
// processes (one per source) may share the file.
package state
