package gui

import (
	"fmt"
	"sort"
)

// Priority orders sibling panes. Higher priorities are drawn later, so they
// win overlapping cells, and are hit-tested first.
type Priority int

const (
	PriorityLowest Priority = iota
	PriorityLow
	PriorityNormal
	PriorityHigh
	PriorityHighest
	PriorityMonitor
)

// String returns a human-readable representation of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLowest:
		return "lowest"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityHighest:
		return "highest"
	case PriorityMonitor:
		return "monitor"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// ParsePriority resolves a priority by name.
func ParsePriority(name string) (Priority, error) {
	for p := PriorityLowest; p <= PriorityMonitor; p++ {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("gui: unknown priority %q", name)
}

// Pane is a rectangular node of a layout tree.
type Pane interface {
	Name() string
	Priority() Priority
	Visible() bool

	// Render draws the pane into dst. f carries the parent's absolute
	// origin and the space available from it; nothing is written outside
	// that space or outside dst.
	Render(dst *Region, f Frame)

	// Dispatch routes an activation at the absolute cell at. It reports
	// whether an item claimed the activation.
	Dispatch(ev *ActivationEvent, at Point, f Frame) bool
}

// Parent is implemented by panes that own child panes.
type Parent interface {
	Panes() []Pane
}

// PaneOption configures a pane at construction.
type PaneOption func(*PaneBase)

// WithPriority sets the pane's priority.
func WithPriority(p Priority) PaneOption {
	return func(b *PaneBase) { b.priority = p }
}

// WithName sets the pane's name.
func WithName(name string) PaneOption {
	return func(b *PaneBase) { b.name = name }
}

// PaneBase holds the state shared by every pane: its rectangle, priority,
// visibility, rotation and activation hook.
type PaneBase struct {
	name     string
	x, y     int
	length   int
	height   int
	priority Priority
	visible  bool
	rotation Rotation

	onActivate ActivateFunc
}

func newPaneBase(x, y, length, height int, opts []PaneOption) (PaneBase, error) {
	if x < 0 || y < 0 {
		return PaneBase{}, fmt.Errorf("%w: pane offset (%d,%d)", ErrOutOfRange, x, y)
	}
	if length <= 0 || height <= 0 {
		return PaneBase{}, fmt.Errorf("%w: pane %dx%d", ErrInvalidSize, length, height)
	}
	b := PaneBase{
		x:        x,
		y:        y,
		length:   length,
		height:   height,
		priority: PriorityNormal,
		visible:  true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}
	return b, nil
}

// Name returns the pane's name, empty if unnamed.
func (b *PaneBase) Name() string { return b.name }

// X returns the column offset within the parent.
func (b *PaneBase) X() int { return b.x }

// Y returns the row offset within the parent.
func (b *PaneBase) Y() int { return b.y }

// Length returns the declared width.
func (b *PaneBase) Length() int { return b.length }

// Height returns the declared height.
func (b *PaneBase) Height() int { return b.height }

// Priority returns the pane's priority.
func (b *PaneBase) Priority() Priority { return b.priority }

// SetPriority changes the pane's priority.
func (b *PaneBase) SetPriority(p Priority) { b.priority = p }

// Visible reports whether the pane is drawn.
func (b *PaneBase) Visible() bool { return b.visible }

// SetVisible shows or hides the pane and everything in it.
func (b *PaneBase) SetVisible(v bool) { b.visible = v }

// Rotation returns the current rotation.
func (b *PaneBase) Rotation() Rotation { return b.rotation }

// OnActivate sets a hook fired whenever an activation lands inside the
// pane, before its contents are consulted.
func (b *PaneBase) OnActivate(fn ActivateFunc) { b.onActivate = fn }

// SetPosition moves the pane within its parent.
func (b *PaneBase) SetPosition(x, y int) error {
	if x < 0 || y < 0 {
		return fmt.Errorf("%w: pane offset (%d,%d)", ErrOutOfRange, x, y)
	}
	b.x, b.y = x, y
	return nil
}

// SetSize resizes the pane. A rotated pane must stay square.
func (b *PaneBase) SetSize(length, height int) error {
	if length <= 0 || height <= 0 {
		return fmt.Errorf("%w: pane %dx%d", ErrInvalidSize, length, height)
	}
	if b.rotation != Rotate0 && length != height {
		return fmt.Errorf("%w: %dx%d while rotated %s", ErrRotationNotSquare, length, height, b.rotation)
	}
	b.length, b.height = length, height
	return nil
}

// SetRotation rotates the pane. Only square panes accept a non-zero
// rotation; on error the previous rotation is kept.
func (b *PaneBase) SetRotation(r Rotation) error {
	if _, err := ParseRotation(int(r)); err != nil {
		return err
	}
	if r != Rotate0 && b.length != b.height {
		return fmt.Errorf("%w: %dx%d", ErrRotationNotSquare, b.length, b.height)
	}
	b.rotation = r
	return nil
}

// clip resolves the pane's absolute origin and effective size within f.
func (b *PaneBase) clip(f Frame) (origin Point, length, height int, ok bool) {
	origin = Point{X: f.X + b.x, Y: f.Y + b.y}
	length = min(b.length, f.MaxLength-b.x)
	height = min(b.height, f.MaxHeight-b.y)
	return origin, length, height, length > 0 && height > 0
}

// hit converts an absolute cell into a pane-local drawn cell. It fails for
// hidden panes and cells outside the clipped rectangle.
func (b *PaneBase) hit(at Point, f Frame) (Point, bool) {
	if !b.visible {
		return Point{}, false
	}
	origin, length, height, ok := b.clip(f)
	if !ok {
		return Point{}, false
	}
	local := Point{X: at.X - origin.X, Y: at.Y - origin.Y}
	if local.X < 0 || local.X >= length || local.Y < 0 || local.Y >= height {
		return Point{}, false
	}
	return local, true
}

// forward maps an unrotated local cell to the drawn cell.
func (b *PaneBase) forward(p Point) Point {
	return b.rotation.Apply(p, b.length, b.height)
}

// backward maps a drawn local cell to the unrotated cell.
func (b *PaneBase) backward(p Point) Point {
	return b.rotation.Unapply(p, b.length, b.height)
}

// fireHook runs the pane-level hook. It never counts as handling.
func (b *PaneBase) fireHook(ev *ActivationEvent) {
	if b.onActivate != nil {
		ev.call("pane", b.onActivate)
	}
}

// byPriority returns panes stable-sorted by ascending priority, so equal
// priorities keep insertion order.
func byPriority(panes []Pane) []Pane {
	sorted := make([]Pane, len(panes))
	copy(sorted, panes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return sorted
}

// renderAll draws panes in ascending priority.
func renderAll(panes []Pane, dst *Region, f Frame) {
	for _, p := range byPriority(panes) {
		if p.Visible() {
			p.Render(dst, f)
		}
	}
}

// dispatchAll hit-tests panes in descending priority and stops at the first
// that claims the activation.
func dispatchAll(panes []Pane, ev *ActivationEvent, at Point, f Frame) bool {
	sorted := byPriority(panes)
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		if !p.Visible() {
			continue
		}
		if p.Dispatch(ev, at, f) {
			return true
		}
	}
	return false
}

// findPane walks panes depth-first for the first pane named name.
func findPane(panes []Pane, name string) Pane {
	for _, p := range panes {
		if p.Name() == name {
			return p
		}
		if parent, ok := p.(Parent); ok {
			if found := findPane(parent.Panes(), name); found != nil {
				return found
			}
		}
	}
	return nil
}
