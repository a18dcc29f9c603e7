// Package reconcile computes the work set: candidates whose target identifier
// is not already present.
package reconcile

import (
	"sort"
	"strconv"
	"strings"

	"cardsync/internal/catalog"
	"cardsync/internal/ident"
)

// WorkItem is a candidate paired with its target identifier.
type WorkItem struct {
	Item   catalog.Item
	Target ident.TargetID
}

// Rejected is a candidate whose identifier could not be mapped.
type Rejected struct {
	Item catalog.Item
	Err  error
}

// Plan is the reconciliation result.
type Plan struct {
	Work     []WorkItem
	Present  []WorkItem
	Rejected []Rejected
}

// Membership answers whether a target id already exists.
type Membership interface {
	Has(ident.TargetID) bool
}

// Reconcile keeps candidates whose mapped id is absent from existing,
// preserving candidate order. Candidates that fail to map are returned in
// Rejected rather than dropped.
func Reconcile(candidates []catalog.Item, existing Membership, mapper ident.Mapper) Plan {
	plan := Plan{Work: make([]WorkItem, 0, len(candidates))}
	for _, item := range candidates {
		target, err := mapper.Map(item.SourceID)
		if err != nil {
			plan.Rejected = append(plan.Rejected, Rejected{Item: item, Err: err})
			continue
		}
		wi := WorkItem{Item: item, Target: target}
		if existing != nil && existing.Has(target) {
			plan.Present = append(plan.Present, wi)
			continue
		}
		plan.Work = append(plan.Work, wi)
	}
	return plan
}

// SortNewestFirst orders work by group id descending, then card number
// ascending by numeric value (unparseable numbers sort as -1, first), then
// target id descending. The sort is stable.
func SortNewestFirst(items []WorkItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Item.GroupID != b.Item.GroupID {
			return a.Item.GroupID > b.Item.GroupID
		}
		na, nb := CardNumberValue(a.Item.CardNumber), CardNumberValue(b.Item.CardNumber)
		if na != nb {
			return na < nb
		}
		return a.Target > b.Target
	})
}

// CardNumberValue returns the numeric part before any "/" in a card number
// ("025/165" is 25), or -1 when it is missing or not a number.
func CardNumberValue(cardNumber string) int {
	head, _, _ := strings.Cut(strings.TrimSpace(cardNumber), "/")
	n, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return -1
	}
	return n
}
