package gui

import "fmt"

// Region is a width x height grid of item cells, addressed row-major.
type Region struct {
	width  int
	height int
	cells  []*Item
}

// NewRegion allocates an empty region.
func NewRegion(width, height int) (*Region, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: region %dx%d", ErrInvalidSize, width, height)
	}
	return &Region{
		width:  width,
		height: height,
		cells:  make([]*Item, width*height),
	}, nil
}

// Width returns the number of columns.
func (r *Region) Width() int { return r.width }

// Height returns the number of rows.
func (r *Region) Height() int { return r.height }

func (r *Region) contains(x, y int) bool {
	return x >= 0 && x < r.width && y >= 0 && y < r.height
}

// Place stores item at (x, y). A nil item clears the cell.
func (r *Region) Place(item *Item, x, y int) error {
	if !r.contains(x, y) {
		return fmt.Errorf("%w: (%d,%d) in %dx%d region", ErrOutOfRange, x, y, r.width, r.height)
	}
	r.cells[y*r.width+x] = item
	return nil
}

// Get returns the item at (x, y).
func (r *Region) Get(x, y int) (*Item, error) {
	if !r.contains(x, y) {
		return nil, fmt.Errorf("%w: (%d,%d) in %dx%d region", ErrOutOfRange, x, y, r.width, r.height)
	}
	return r.cells[y*r.width+x], nil
}

// put is the render-time write: cells outside the region are dropped.
func (r *Region) put(item *Item, x, y int) {
	if r.contains(x, y) {
		r.cells[y*r.width+x] = item
	}
}

// at is the render-time read: cells outside the region read as nil.
func (r *Region) at(x, y int) *Item {
	if !r.contains(x, y) {
		return nil
	}
	return r.cells[y*r.width+x]
}

// SliceRows returns the rows from..to (both inclusive) as a region sharing
// cells with r. A range outside r yields ok == false.
func (r *Region) SliceRows(from, to int) (*Region, bool) {
	if from < 0 || to >= r.height || from > to {
		return nil, false
	}
	return &Region{
		width:  r.width,
		height: to - from + 1,
		cells:  r.cells[from*r.width : (to+1)*r.width : (to+1)*r.width],
	}, true
}

// HasVisibleItem reports whether any cell holds a visible, non-empty item.
func (r *Region) HasVisibleItem() bool {
	for _, it := range r.cells {
		if it.drawable() {
			return true
		}
	}
	return false
}

// Clear empties every cell.
func (r *Region) Clear() {
	for i := range r.cells {
		r.cells[i] = nil
	}
}

// WriteInto flattens r row-major into dst starting at slot start. Cells
// past the end of dst are dropped.
func (r *Region) WriteInto(dst Container, start int) {
	size := dst.Size()
	for i, it := range r.cells {
		idx := start + i
		if idx < 0 {
			continue
		}
		if idx >= size {
			return
		}
		if it.drawable() {
			dst.SetSlot(idx, it.stack())
		} else {
			dst.SetSlot(idx, nil)
		}
	}
}
