// Package preflight provides readiness checks for the filesystem paths and
// remote services a cardsync run depends on.
//
// The CLI "cardsync doctor" command prints every result. "cardsync run"
// calls RunAll before ingesting and refuses to start when a required check
// fails, so a misconfigured run does not burn through a catalog producing
// nothing but failures.
package preflight
