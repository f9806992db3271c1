package gui

import (
	"log"
	"runtime/debug"
)

// RegionKind says which physical region an activation landed in.
type RegionKind int

const (
	// RegionTop is the Gui's own container.
	RegionTop RegionKind = iota
	// RegionPersonal is the viewer's carry inventory.
	RegionPersonal
	// RegionOutside is a click outside any slot.
	RegionOutside
)

// String returns a human-readable representation of the region kind.
func (k RegionKind) String() string {
	switch k {
	case RegionTop:
		return "top"
	case RegionPersonal:
		return "personal"
	case RegionOutside:
		return "outside"
	default:
		return "unknown"
	}
}

// ActivationEvent is a single "slot was activated" signal.
//
// Presenters fill Viewer, Region, Slot and Payload. For RegionTop, Slot is
// the index in the top container; for RegionPersonal it is the index in the
// viewer's personal container (hotbar first). The Gui resolves Section and
// Point, and the handling pane sets Local.
type ActivationEvent struct {
	Viewer  Viewer
	Region  RegionKind
	Slot    int
	Payload *Stack

	Gui     *Gui
	Section string
	Point   Point
	Local   Point

	// Cancelled tells the presenter to reject the native interaction. It is
	// true when dispatch starts; callbacks may clear it.
	Cancelled bool

	logger *log.Logger
}

// ItemKey returns the key carried by the clicked payload, if any.
func (ev *ActivationEvent) ItemKey() ItemKey {
	if ev.Payload == nil {
		return ""
	}
	return ev.Payload.Key
}

// call runs fn and contains a panic so one failing callback cannot abort
// the rest of the cycle.
func (ev *ActivationEvent) call(role string, fn ActivateFunc) {
	defer func() {
		if r := recover(); r != nil {
			ev.logf("gui: %s callback panicked (region=%s slot=%d section=%q): %v\n%s",
				role, ev.Region, ev.Slot, ev.Section, r, debug.Stack())
		}
	}()
	fn(ev)
}

func (ev *ActivationEvent) logf(format string, args ...any) {
	if ev.logger != nil {
		ev.logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
