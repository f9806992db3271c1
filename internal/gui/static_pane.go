package gui

import (
	"errors"
	"fmt"
)

// StaticPane holds items at fixed local positions.
type StaticPane struct {
	PaneBase

	items map[Point]*Item
	order []Point
}

// NewStaticPane creates an empty static pane at (x, y).
func NewStaticPane(x, y, length, height int, opts ...PaneOption) (*StaticPane, error) {
	base, err := newPaneBase(x, y, length, height, opts)
	if err != nil {
		return nil, err
	}
	return &StaticPane{
		PaneBase: base,
		items:    make(map[Point]*Item),
	}, nil
}

// AddItem places item at local (x, y), replacing whatever was there. Items
// already placed elsewhere are copied so that no item lives in two places.
func (p *StaticPane) AddItem(item *Item, x, y int) error {
	if item == nil {
		return errors.New("gui: nil item")
	}
	if x < 0 || y < 0 || x >= p.length || y >= p.height {
		return fmt.Errorf("%w: item at (%d,%d) in %dx%d pane", ErrOutOfRange, x, y, p.length, p.height)
	}
	for _, existing := range p.items {
		if existing == item {
			item = item.Copy()
			break
		}
	}
	pt := Point{X: x, Y: y}
	if _, exists := p.items[pt]; !exists {
		p.order = append(p.order, pt)
	}
	p.items[pt] = item
	return nil
}

// RemoveItem clears local (x, y).
func (p *StaticPane) RemoveItem(x, y int) {
	pt := Point{X: x, Y: y}
	if _, exists := p.items[pt]; !exists {
		return
	}
	delete(p.items, pt)
	for i, o := range p.order {
		if o == pt {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Item returns the item at local (x, y), or nil.
func (p *StaticPane) Item(x, y int) *Item {
	return p.items[Point{X: x, Y: y}]
}

// Items returns the placed items in insertion order.
func (p *StaticPane) Items() []*Item {
	out := make([]*Item, 0, len(p.order))
	for _, pt := range p.order {
		out = append(out, p.items[pt])
	}
	return out
}

// Fill places a new item from next into every empty position.
func (p *StaticPane) Fill(next func() *Item) {
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.length; x++ {
			if p.Item(x, y) != nil {
				continue
			}
			if it := next(); it != nil {
				_ = p.AddItem(it, x, y)
			}
		}
	}
}

// Clear removes every item.
func (p *StaticPane) Clear() {
	p.items = make(map[Point]*Item)
	p.order = nil
}

// Render implements Pane.
func (p *StaticPane) Render(dst *Region, f Frame) {
	if !p.visible {
		return
	}
	origin, length, height, ok := p.clip(f)
	if !ok {
		return
	}
	for _, pt := range p.order {
		it := p.items[pt]
		if !it.drawable() {
			continue
		}
		at := p.forward(pt)
		if at.X < 0 || at.X >= length || at.Y < 0 || at.Y >= height {
			continue
		}
		dst.put(it, origin.X+at.X, origin.Y+at.Y)
	}
}

// Dispatch implements Pane.
func (p *StaticPane) Dispatch(ev *ActivationEvent, at Point, f Frame) bool {
	local, ok := p.hit(at, f)
	if !ok {
		return false
	}
	p.fireHook(ev)

	src := p.backward(local)
	it := p.items[src]
	if key := ev.ItemKey(); key != "" && (it == nil || it.key != key) {
		// The presenter may report a payload copied from an older frame;
		// trust the identity over the position only for an item that is
		// actually drawn.
		match, pt := p.itemByKey(key)
		if match == nil || !p.drawn(pt, f) {
			return false
		}
		it, src = match, pt
	}
	if !it.drawable() {
		return false
	}
	ev.Local = src
	if it.onActivate != nil {
		ev.call("item", it.onActivate)
	}
	return true
}

// drawn reports whether the local cell pt lands inside the pane's clipped
// rectangle once rotated.
func (p *StaticPane) drawn(pt Point, f Frame) bool {
	_, length, height, ok := p.clip(f)
	if !ok {
		return false
	}
	at := p.forward(pt)
	return at.X >= 0 && at.X < length && at.Y >= 0 && at.Y < height
}

func (p *StaticPane) itemByKey(key ItemKey) (*Item, Point) {
	for _, pt := range p.order {
		if it := p.items[pt]; it.key == key {
			return it, pt
		}
	}
	return nil, Point{}
}
