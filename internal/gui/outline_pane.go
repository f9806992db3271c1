package gui

import (
	"errors"
	"fmt"
)

// Orientation is the direction an OutlinePane flows its items.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// ParseOrientation resolves "horizontal" or "vertical".
func ParseOrientation(name string) (Orientation, error) {
	switch name {
	case "", "horizontal":
		return Horizontal, nil
	case "vertical":
		return Vertical, nil
	default:
		return 0, fmt.Errorf("gui: unknown orientation %q", name)
	}
}

// OutlinePane lays its items out one after another, filling rows
// (Horizontal) or columns (Vertical). Items that do not fit are not drawn.
type OutlinePane struct {
	PaneBase

	orientation Orientation
	gap         int
	items       []*Item
}

// NewOutlinePane creates an empty outline pane.
func NewOutlinePane(x, y, length, height int, orientation Orientation, opts ...PaneOption) (*OutlinePane, error) {
	base, err := newPaneBase(x, y, length, height, opts)
	if err != nil {
		return nil, err
	}
	return &OutlinePane{PaneBase: base, orientation: orientation}, nil
}

// SetGap leaves gap empty cells between consecutive items.
func (p *OutlinePane) SetGap(gap int) error {
	if gap < 0 {
		return errors.New("gui: gap must not be negative")
	}
	p.gap = gap
	return nil
}

// Gap returns the number of empty cells between items.
func (p *OutlinePane) Gap() int { return p.gap }

// Orientation returns the flow direction.
func (p *OutlinePane) Orientation() Orientation { return p.orientation }

// AddItem appends item to the flow.
func (p *OutlinePane) AddItem(item *Item) {
	for _, existing := range p.items {
		if existing == item {
			item = item.Copy()
			break
		}
	}
	p.items = append(p.items, item)
}

// InsertItem puts item at position index of the flow.
func (p *OutlinePane) InsertItem(item *Item, index int) error {
	if index < 0 || index > len(p.items) {
		return fmt.Errorf("%w: index %d of %d", ErrOutOfRange, index, len(p.items))
	}
	p.items = append(p.items, nil)
	copy(p.items[index+1:], p.items[index:])
	p.items[index] = item
	return nil
}

// RemoveItem drops item from the flow.
func (p *OutlinePane) RemoveItem(item *Item) {
	for i, existing := range p.items {
		if existing == item {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return
		}
	}
}

// Items returns the flow in order.
func (p *OutlinePane) Items() []*Item {
	return append([]*Item(nil), p.items...)
}

// Clear removes every item.
func (p *OutlinePane) Clear() { p.items = nil }

// cell returns the local cell of the n-th flow position.
func (p *OutlinePane) cell(n int) (Point, bool) {
	pos := n * (p.gap + 1)
	if p.orientation == Vertical {
		pt := Point{X: pos / p.height, Y: pos % p.height}
		return pt, pt.X < p.length
	}
	pt := Point{X: pos % p.length, Y: pos / p.length}
	return pt, pt.Y < p.height
}

// positions lays out visible items. Hidden items give up their cell.
func (p *OutlinePane) positions() map[Point]*Item {
	placed := make(map[Point]*Item, len(p.items))
	n := 0
	for _, it := range p.items {
		if !it.drawable() {
			continue
		}
		pt, ok := p.cell(n)
		if !ok {
			break
		}
		placed[pt] = it
		n++
	}
	return placed
}

// Render implements Pane.
func (p *OutlinePane) Render(dst *Region, f Frame) {
	if !p.visible {
		return
	}
	origin, length, height, ok := p.clip(f)
	if !ok {
		return
	}
	for pt, it := range p.positions() {
		at := p.forward(pt)
		if at.X < 0 || at.X >= length || at.Y < 0 || at.Y >= height {
			continue
		}
		dst.put(it, origin.X+at.X, origin.Y+at.Y)
	}
}

// Dispatch implements Pane.
func (p *OutlinePane) Dispatch(ev *ActivationEvent, at Point, f Frame) bool {
	local, ok := p.hit(at, f)
	if !ok {
		return false
	}
	p.fireHook(ev)

	src := p.backward(local)
	it, found := p.positions()[src]
	if !found {
		return false
	}
	ev.Local = src
	if it.onActivate != nil {
		ev.call("item", it.onActivate)
	}
	return true
}
