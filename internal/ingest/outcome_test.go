package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cardsync/internal/ident"
	"cardsync/internal/services"
)

func TestReasonFor(t *testing.T) {
	cause := errors.New("boom")
	cases := []struct {
		err    error
		kind   OutcomeKind
		reason Reason
	}{
		{nil, KindSuccess, ReasonNone},
		{services.Wrap(services.ErrLocate, "locate", "", "", cause), KindFailure, ReasonLocateFailed},
		{services.Wrap(services.ErrFetch, "fetch", "", "", cause), KindFailure, ReasonFetchFailed},
		{services.Wrap(services.ErrTransform, "transform", "", "", cause), KindFailure, ReasonTransformFailed},
		{services.Wrap(services.ErrPersist, "persist", "", "", cause), KindFailure, ReasonPersistFailed},
		{services.Wrap(services.ErrRegister, "register", "", "", cause), KindPartial, ReasonRegisterFailed},
		{fmt.Errorf("map: %w", ident.ErrOverflow), KindFailure, ReasonMapFailed},
		{context.Canceled, KindSkipped, ReasonCancelled},
		{cause, KindFailure, ReasonFailed},
	}
	for _, tc := range cases {
		kind, reason := ReasonFor(tc.err)
		if kind != tc.kind || reason != tc.reason {
			t.Fatalf("ReasonFor(%v) = %s/%s, want %s/%s", tc.err, kind, reason, tc.kind, tc.reason)
		}
	}
}

func TestSummaryAddKeepsProblemsInArrivalOrder(t *testing.T) {
	var s RunSummary
	s.Add(Outcome{Kind: KindSuccess, Bytes: 5})
	s.Add(Outcome{Kind: KindFailure, Target: 2})
	s.Add(Outcome{Kind: KindPartial, Target: 3, Bytes: 7})
	s.Add(Outcome{Kind: KindSkipped})

	if s.Total() != 4 || s.Bytes != 12 {
		t.Fatalf("unexpected totals %+v", s)
	}
	if len(s.Problems) != 2 || s.Problems[0].Target != 2 || s.Problems[1].Target != 3 {
		t.Fatalf("unexpected problems %+v", s.Problems)
	}
}
