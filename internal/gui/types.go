// Package gui composes rectangular panes of interactive slots, renders them
// into slot regions split between a container ("top") and the viewer's own
// carry inventory ("personal"), and routes slot activations back to the pane
// or item that owns the slot.
//
// The package is not safe for concurrent use. Hosts are expected to drive
// every Gui from a single logic goroutine.
package gui

import "errors"

var (
	// ErrInvalidSize is returned when a pane or region dimension is not positive.
	ErrInvalidSize = errors.New("gui: length and height must be positive")
	// ErrInvalidRotation is returned for rotations other than 0, 90, 180 and 270.
	ErrInvalidRotation = errors.New("gui: rotation must be a multiple of 90 in [0, 360)")
	// ErrRotationNotSquare is returned when a non-square pane is rotated, or a
	// rotated pane is resized to a non-square shape.
	ErrRotationNotSquare = errors.New("gui: rotation requires a square pane")
	// ErrOutOfRange is returned for coordinates or indices outside their bounds.
	ErrOutOfRange = errors.New("gui: position out of range")
	// ErrAlreadyStashed is returned when saving a stash for a viewer that
	// already has a pending entry.
	ErrAlreadyStashed = errors.New("gui: viewer already has a stashed personal inventory")
	// ErrUnknownSection is returned when a shape has no section with the given name.
	ErrUnknownSection = errors.New("gui: unknown section")
	// ErrUnknownPresenter is returned when no presenter is registered for a version.
	ErrUnknownPresenter = errors.New("gui: unknown presenter version")
	// ErrDuplicatePresenter is returned when a version is registered twice.
	ErrDuplicatePresenter = errors.New("gui: presenter version already registered")
)

// Point is a cell coordinate with origin at top-left.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Frame is the absolute origin handed to a pane by its parent together with
// the space available from that origin.
type Frame struct {
	X, Y                 int
	MaxLength, MaxHeight int
}

// ItemKey identifies a logical item independently of pointer identity, so a
// payload copied by a presenter can be matched back to its Item.
type ItemKey string

// ViewerID is a stable viewer identity.
type ViewerID string

// Stack is the display payload of a slot as it is shipped to a viewer.
type Stack struct {
	Key      ItemKey  `json:"key,omitempty"`
	Material string   `json:"material"`
	Amount   int      `json:"amount,omitempty"`
	Name     string   `json:"name,omitempty"`
	Lore     []string `json:"lore,omitempty"`
}

// Clone returns a deep copy of s. A nil stack clones to nil.
func (s *Stack) Clone() *Stack {
	if s == nil {
		return nil
	}
	c := *s
	if s.Lore != nil {
		c.Lore = append([]string(nil), s.Lore...)
	}
	return &c
}

// Container is a physical, linearly addressed slot range.
type Container interface {
	Size() int
	Slot(index int) *Stack
	SetSlot(index int, s *Stack)
}

// Slots is a slice-backed Container.
type Slots []*Stack

// NewSlots allocates an empty slot range of the given size.
func NewSlots(size int) Slots {
	return make(Slots, size)
}

// Size returns the number of slots.
func (s Slots) Size() int { return len(s) }

// Slot returns the stack at index, or nil when index is out of range.
func (s Slots) Slot(index int) *Stack {
	if index < 0 || index >= len(s) {
		return nil
	}
	return s[index]
}

// SetSlot stores st at index. Out-of-range writes are dropped.
func (s Slots) SetSlot(index int, st *Stack) {
	if index < 0 || index >= len(s) {
		return
	}
	s[index] = st
}

// Viewer is someone a Gui can be shown to.
type Viewer interface {
	ViewerID() ViewerID
	// Personal returns the viewer's carry inventory. Only the first
	// PersonalSlots slots take part in layouts.
	Personal() Container
}

const (
	// PersonalWidth and PersonalHeight are the logical dimensions of the
	// personal region.
	PersonalWidth  = 9
	PersonalHeight = 4
	// PersonalSlots is the number of personal slots a layout may occupy.
	PersonalSlots = PersonalWidth * PersonalHeight
)

// personalIndex maps a logical personal-region cell to a container slot.
// Logical rows 0-2 are the storage rows (slots 9-35); row 3 is the hotbar
// (slots 0-8).
func personalIndex(x, y int) int {
	if y == PersonalHeight-1 {
		return x
	}
	return PersonalWidth + y*PersonalWidth + x
}

// personalPoint is the inverse of personalIndex.
func personalPoint(slot int) (Point, bool) {
	switch {
	case slot < 0 || slot >= PersonalSlots:
		return Point{}, false
	case slot < PersonalWidth:
		return Point{X: slot, Y: PersonalHeight - 1}, true
	default:
		slot -= PersonalWidth
		return Point{X: slot % PersonalWidth, Y: slot / PersonalWidth}, true
	}
}
