// Package ident maps source-local catalog identifiers onto the shared target
// identifier space.
//
// Each source reserves a contiguous range starting at its offset base. The
// mapping is pure and injective within a source; keeping ranges of different
// sources disjoint is a deployment precondition enforced by configuration
// validation through ValidateRanges, not by Mapper itself.
package ident

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// ErrOverflow reports a source id that cannot be mapped without wrapping.
var ErrOverflow = errors.New("target identifier overflow")

// TargetID is the process-wide unique identifier of a landed artifact.
type TargetID int64

func (id TargetID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Mapper converts source ids to target ids for one source.
type Mapper struct {
	OffsetBase int64
	// RangeSize bounds the owned range; zero means unbounded above OffsetBase.
	RangeSize int64
}

// Map returns OffsetBase + sourceID. Negative ids and sums that would exceed
// the int64 range or the configured range size fail with ErrOverflow.
func (m Mapper) Map(sourceID int64) (TargetID, error) {
	if sourceID < 0 {
		return 0, fmt.Errorf("%w: source id %d is negative", ErrOverflow, sourceID)
	}
	if m.OffsetBase > math.MaxInt64-sourceID {
		return 0, fmt.Errorf("%w: source id %d exceeds int64 above offset %d", ErrOverflow, sourceID, m.OffsetBase)
	}
	if m.RangeSize > 0 && sourceID >= m.RangeSize {
		return 0, fmt.Errorf("%w: source id %d outside range of size %d", ErrOverflow, sourceID, m.RangeSize)
	}
	return TargetID(m.OffsetBase + sourceID), nil
}

// Owns reports whether id falls inside the mapper's range.
func (m Mapper) Owns(id TargetID) bool {
	v := int64(id)
	if v < m.OffsetBase {
		return false
	}
	if m.RangeSize > 0 && v-m.OffsetBase >= m.RangeSize {
		return false
	}
	return true
}

// SourceIDOf inverts Map. The second result is false when id is not owned.
func (m Mapper) SourceIDOf(id TargetID) (int64, bool) {
	if !m.Owns(id) {
		return 0, false
	}
	return int64(id) - m.OffsetBase, true
}

// Range names a reserved identifier range [Start, Start+Size).
type Range struct {
	Name  string
	Start int64
	Size  int64
}

// End returns the exclusive upper bound.
func (r Range) End() int64 {
	return r.Start + r.Size
}

// ValidateRanges returns an error naming the first pair of overlapping ranges.
func ValidateRanges(ranges []Range) error {
	sorted := append([]Range(nil), ranges...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Start < prev.End() {
			return fmt.Errorf("identifier ranges overlap: %s [%d, %d) and %s [%d, %d)",
				prev.Name, prev.Start, prev.End(), cur.Name, cur.Start, cur.End())
		}
	}
	return nil
}
