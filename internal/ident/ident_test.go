package ident_test

import (
	"errors"
	"math"
	"testing"

	"cardsync/internal/ident"
)

func TestMapIsInjectiveWithinSource(t *testing.T) {
	m := ident.Mapper{OffsetBase: 200_000_000, RangeSize: 100_000_000}
	seen := make(map[ident.TargetID]int64)
	for _, id := range []int64{0, 1, 2, 17, 999, 1000, 123456, 99_999_999} {
		target, err := m.Map(id)
		if err != nil {
			t.Fatalf("Map(%d) returned error: %v", id, err)
		}
		if prev, ok := seen[target]; ok {
			t.Fatalf("Map(%d) and Map(%d) collide at %d", prev, id, target)
		}
		seen[target] = id
		if back, ok := m.SourceIDOf(target); !ok || back != id {
			t.Fatalf("SourceIDOf(%d) = %d,%v want %d", target, back, ok, id)
		}
	}
	if got, _ := m.Map(5); got != 200_000_005 {
		t.Fatalf("unexpected mapping: %d", got)
	}
}

func TestMapFailsLoudlyOnOverflow(t *testing.T) {
	cases := []struct {
		name   string
		mapper ident.Mapper
		id     int64
	}{
		{"negative", ident.Mapper{OffsetBase: 10}, -1},
		{"int64 overflow", ident.Mapper{OffsetBase: math.MaxInt64 - 5}, 6},
		{"outside range", ident.Mapper{OffsetBase: 100, RangeSize: 10}, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.mapper.Map(tc.id); !errors.Is(err, ident.ErrOverflow) {
				t.Fatalf("expected ErrOverflow, got %v", err)
			}
		})
	}
	if _, err := (ident.Mapper{OffsetBase: math.MaxInt64 - 5}).Map(5); err != nil {
		t.Fatalf("boundary value should map: %v", err)
	}
}

func TestOwns(t *testing.T) {
	m := ident.Mapper{OffsetBase: 100, RangeSize: 10}
	for id, want := range map[ident.TargetID]bool{99: false, 100: true, 109: true, 110: false} {
		if got := m.Owns(id); got != want {
			t.Fatalf("Owns(%d) = %v want %v", id, got, want)
		}
	}
}

func TestValidateRanges(t *testing.T) {
	ok := []ident.Range{
		{Name: "chinese", Start: 200, Size: 100},
		{Name: "korean", Start: 100, Size: 100},
	}
	if err := ident.ValidateRanges(ok); err != nil {
		t.Fatalf("adjacent ranges should not overlap: %v", err)
	}
	bad := append(ok, ident.Range{Name: "japanese", Start: 250, Size: 10})
	if err := ident.ValidateRanges(bad); err == nil {
		t.Fatal("expected overlap error")
	}
}
