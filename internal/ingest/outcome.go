package ingest

import (
	"context"
	"errors"
	"time"

	"cardsync/internal/catalog"
	"cardsync/internal/ident"
	"cardsync/internal/services"
)

// OutcomeKind classifies how one item ended.
type OutcomeKind string

const (
	KindSuccess OutcomeKind = "success"
	KindFailure OutcomeKind = "failure"
	KindPartial OutcomeKind = "partial"
	KindSkipped OutcomeKind = "skipped"
)

// Reason names the step that ended an item, or why it was skipped.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonLocateFailed    Reason = "locate_failed"
	ReasonFetchFailed     Reason = "fetch_failed"
	ReasonTransformFailed Reason = "transform_failed"
	ReasonPersistFailed   Reason = "persist_failed"
	ReasonRegisterFailed  Reason = "register_failed"
	ReasonMapFailed       Reason = "map_failed"
	ReasonFailed          Reason = "failed"

	ReasonDryRun    Reason = "dry-run"
	ReasonCancelled Reason = "cancelled"
	ReasonExists    Reason = "exists"
)

// Outcome is the result of processing one work item.
type Outcome struct {
	Kind        OutcomeKind    `json:"kind"`
	Target      ident.TargetID `json:"target_id"`
	Item        catalog.Item   `json:"item"`
	Key         string         `json:"key,omitempty"`
	URL         string         `json:"url,omitempty"`
	Bytes       int64          `json:"bytes,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
	Reason      Reason         `json:"reason,omitempty"`
	Err         error          `json:"-"`
	Message     string         `json:"error,omitempty"`
	Elapsed     time.Duration  `json:"elapsed_ns,omitempty"`
}

// Label returns the item's display label.
func (o Outcome) Label() string {
	return o.Item.Label()
}

// Problem reports whether the outcome belongs in the problem list.
func (o Outcome) Problem() bool {
	return o.Kind == KindFailure || o.Kind == KindPartial
}

// Landed reports whether the artifact was written.
func (o Outcome) Landed() bool {
	return o.Kind == KindSuccess || o.Kind == KindPartial
}

func (o Outcome) withError(err error) Outcome {
	o.Kind, o.Reason = ReasonFor(err)
	o.Err = err
	if err != nil {
		o.Message = err.Error()
	}
	return o
}

func skipped(item catalog.Item, target ident.TargetID, reason Reason) Outcome {
	return Outcome{Kind: KindSkipped, Target: target, Item: item, Reason: reason}
}

// ReasonFor maps a processing error to its outcome kind and reason.
// Registration failures are partial because the artifact already landed.
func ReasonFor(err error) (OutcomeKind, Reason) {
	switch {
	case err == nil:
		return KindSuccess, ReasonNone
	case errors.Is(err, services.ErrRegister):
		return KindPartial, ReasonRegisterFailed
	case errors.Is(err, services.ErrPersist):
		return KindFailure, ReasonPersistFailed
	case errors.Is(err, services.ErrTransform):
		return KindFailure, ReasonTransformFailed
	case errors.Is(err, services.ErrFetch):
		return KindFailure, ReasonFetchFailed
	case errors.Is(err, services.ErrLocate):
		return KindFailure, ReasonLocateFailed
	case errors.Is(err, ident.ErrOverflow):
		return KindFailure, ReasonMapFailed
	case errors.Is(err, context.Canceled):
		return KindSkipped, ReasonCancelled
	default:
		return KindFailure, ReasonFailed
	}
}
