package gui

import (
	"errors"
	"testing"
)

func stone(key ItemKey) *Item {
	return NewItem(key, Stack{Material: "stone", Amount: 1}, nil)
}

func TestRegionPlaceGet(t *testing.T) {
	r, err := NewRegion(3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	it := stone("a")
	if err := r.Place(it, 2, 1); err != nil {
		t.Fatalf("unexpected place error: %v", err)
	}
	got, err := r.Get(2, 1)
	if err != nil || got != it {
		t.Fatalf("expected placed item back, got %v (%v)", got, err)
	}
	if err := r.Place(it, 3, 0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := r.Get(0, -1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := NewRegion(0, 4); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
}

func TestRegionSliceRowsAliases(t *testing.T) {
	r, _ := NewRegion(9, 7)
	tail, ok := r.SliceRows(3, 6)
	if !ok {
		t.Fatalf("expected slice to succeed")
	}
	if tail.Width() != 9 || tail.Height() != 4 {
		t.Fatalf("expected 9x4 slice, got %dx%d", tail.Width(), tail.Height())
	}
	it := stone("x")
	if err := tail.Place(it, 4, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := r.Get(4, 3); got != it {
		t.Fatalf("expected slice to alias source row 3")
	}
	if _, ok := r.SliceRows(5, 7); ok {
		t.Fatalf("expected out-of-range slice to fail")
	}
	if _, ok := r.SliceRows(4, 2); ok {
		t.Fatalf("expected inverted slice to fail")
	}
}

func TestRegionHasVisibleItem(t *testing.T) {
	r, _ := NewRegion(2, 2)
	if r.HasVisibleItem() {
		t.Fatalf("empty region reported a visible item")
	}
	hidden := stone("h")
	hidden.SetVisible(false)
	_ = r.Place(hidden, 0, 0)
	_ = r.Place(NewItem("air", Stack{}, nil), 1, 0)
	if r.HasVisibleItem() {
		t.Fatalf("hidden and empty items must not count as visible")
	}
	_ = r.Place(stone("v"), 1, 1)
	if !r.HasVisibleItem() {
		t.Fatalf("expected visible item to be found")
	}
}

func TestRegionWriteIntoDropsOverflow(t *testing.T) {
	r, _ := NewRegion(3, 2)
	for i := 0; i < 6; i++ {
		_ = r.Place(stone(ItemKey(rune('a'+i))), i%3, i/3)
	}
	dst := NewSlots(5)
	r.WriteInto(dst, 1)
	if dst[0] != nil {
		t.Fatalf("slot before start was written")
	}
	for i := 1; i < 5; i++ {
		if dst[i] == nil || dst[i].Key != ItemKey(rune('a'+i-1)) {
			t.Fatalf("slot %d: expected key %c, got %+v", i, 'a'+i-1, dst[i])
		}
	}
}
