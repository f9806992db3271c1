package gui

// GroupPane owns child panes placed at their own offsets inside it.
type GroupPane struct {
	PaneBase

	panes []Pane
}

// NewGroupPane creates an empty group.
func NewGroupPane(x, y, length, height int, opts ...PaneOption) (*GroupPane, error) {
	base, err := newPaneBase(x, y, length, height, opts)
	if err != nil {
		return nil, err
	}
	return &GroupPane{PaneBase: base}, nil
}

// AddPane appends a child. Insertion order breaks priority ties.
func (p *GroupPane) AddPane(child Pane) {
	if child != nil {
		p.panes = append(p.panes, child)
	}
}

// RemovePane drops a child.
func (p *GroupPane) RemovePane(child Pane) {
	for i, c := range p.panes {
		if c == child {
			p.panes = append(p.panes[:i], p.panes[i+1:]...)
			return
		}
	}
}

// Panes returns the children in insertion order.
func (p *GroupPane) Panes() []Pane {
	return append([]Pane(nil), p.panes...)
}

// Render implements Pane.
func (p *GroupPane) Render(dst *Region, f Frame) {
	renderChildren(&p.PaneBase, p.panes, dst, f)
}

// Dispatch implements Pane.
func (p *GroupPane) Dispatch(ev *ActivationEvent, at Point, f Frame) bool {
	return dispatchChildren(&p.PaneBase, p.panes, ev, at, f)
}

// renderChildren draws children inside the pane described by b.
func renderChildren(b *PaneBase, children []Pane, dst *Region, f Frame) {
	if !b.visible {
		return
	}
	origin, length, height, ok := b.clip(f)
	if !ok {
		return
	}
	if b.rotation == Rotate0 {
		renderAll(children, dst, Frame{X: origin.X, Y: origin.Y, MaxLength: length, MaxHeight: height})
		return
	}

	// Children are composed unrotated, then copied through the transform.
	scratch := &Region{width: b.length, height: b.height, cells: make([]*Item, b.length*b.height)}
	renderAll(children, scratch, Frame{MaxLength: b.length, MaxHeight: b.height})
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.length; x++ {
			it := scratch.at(x, y)
			if it == nil {
				continue
			}
			at := b.forward(Point{X: x, Y: y})
			if at.X >= length || at.Y >= height {
				continue
			}
			dst.put(it, origin.X+at.X, origin.Y+at.Y)
		}
	}
}

// dispatchChildren routes an activation to the children of the pane
// described by b.
func dispatchChildren(b *PaneBase, children []Pane, ev *ActivationEvent, at Point, f Frame) bool {
	local, ok := b.hit(at, f)
	if !ok {
		return false
	}
	b.fireHook(ev)

	if b.rotation == Rotate0 {
		origin, length, height, _ := b.clip(f)
		return dispatchAll(children, ev, at, Frame{X: origin.X, Y: origin.Y, MaxLength: length, MaxHeight: height})
	}
	return dispatchAll(children, ev, b.backward(local), Frame{MaxLength: b.length, MaxHeight: b.height})
}
