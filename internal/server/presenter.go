package server

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gravitas-games/slotgui/internal/gui"
	"github.com/gravitas-games/slotgui/internal/network"
	"github.com/gravitas-games/slotgui/pkg/models"
)

// Frame versions a client may ask for when opening a layout.
const (
	VersionFrames = "v1"
	VersionDeltas = "v2"
)

var ErrNotConnected = errors.New("server: viewer has no connection")

// Sink delivers messages to a viewer's connection.
type Sink interface {
	Send(id gui.ViewerID, msg *network.ServerMessage) error
}

func layoutOf(v gui.Viewer) string {
	if p, ok := v.(*models.Player); ok {
		return p.Layout
	}
	return ""
}

func toSlotItem(s *gui.Stack) *network.SlotItem {
	if s == nil || s.Material == "" {
		return nil
	}
	return &network.SlotItem{
		Key:      string(s.Key),
		Material: s.Material,
		Amount:   s.Amount,
		Name:     s.Name,
		Lore:     slices.Clone(s.Lore),
	}
}

func toStack(it *network.SlotItem) *gui.Stack {
	if it == nil {
		return nil
	}
	return &gui.Stack{
		Key:      gui.ItemKey(it.Key),
		Material: it.Material,
		Amount:   it.Amount,
		Name:     it.Name,
		Lore:     slices.Clone(it.Lore),
	}
}

func toSlotItems(slots gui.Slots) []*network.SlotItem {
	if slots == nil {
		return nil
	}
	out := make([]*network.SlotItem, len(slots))
	for i, s := range slots {
		out[i] = toSlotItem(s)
	}
	return out
}

func sameItem(a, b *network.SlotItem) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Key == b.Key && a.Material == b.Material && a.Amount == b.Amount &&
		a.Name == b.Name && slices.Equal(a.Lore, b.Lore)
}

// FramePresenter sends a full snapshot of the window on every render.
type FramePresenter struct {
	sink Sink
	seq  int64
}

// NewFramePresenter creates a v1 presenter.
func NewFramePresenter(sink Sink) *FramePresenter {
	return &FramePresenter{sink: sink}
}

// Materialize implements gui.Presenter.
func (p *FramePresenter) Materialize(v gui.Viewer, title string, top gui.Slots, personal gui.Slots) error {
	p.seq++
	return p.sink.Send(v.ViewerID(), &network.ServerMessage{
		Type: network.MsgTypeFrame,
		Payload: network.FramePayload{
			Layout:   layoutOf(v),
			Title:    title,
			Seq:      p.seq,
			Top:      toSlotItems(top),
			Personal: toSlotItems(personal),
		},
	})
}

type sentFrame struct {
	layout   string
	title    string
	top      []*network.SlotItem
	personal []*network.SlotItem
}

// DeltaPresenter sends only the slots that changed since the previous frame
// sent to the same viewer. It must be used from a single goroutine.
type DeltaPresenter struct {
	sink Sink
	seq  int64
	last map[gui.ViewerID]*sentFrame
}

// NewDeltaPresenter creates a v2 presenter.
func NewDeltaPresenter(sink Sink) *DeltaPresenter {
	return &DeltaPresenter{sink: sink, last: make(map[gui.ViewerID]*sentFrame)}
}

// Materialize implements gui.Presenter.
func (p *DeltaPresenter) Materialize(v gui.Viewer, title string, top gui.Slots, personal gui.Slots) error {
	id := v.ViewerID()
	next := &sentFrame{
		layout:   layoutOf(v),
		title:    title,
		top:      toSlotItems(top),
		personal: toSlotItems(personal),
	}
	prev := p.last[id]
	full := prev == nil || prev.layout != next.layout || len(prev.top) != len(next.top)

	payload := network.FrameDeltaPayload{
		Layout:      next.layout,
		Title:       next.title,
		Full:        full,
		TopSize:     len(next.top),
		OwnPersonal: next.personal == nil,
	}
	if full {
		payload.Top = changes(nil, next.top)
		payload.Personal = changes(nil, next.personal)
	} else {
		payload.Top = changes(prev.top, next.top)
		payload.Personal = personalChanges(prev.personal, next.personal)
	}
	if !full && prev.title == next.title && len(payload.Top) == 0 && len(payload.Personal) == 0 &&
		(prev.personal == nil) == (next.personal == nil) {
		return nil
	}

	p.seq++
	payload.Seq = p.seq
	err := p.sink.Send(id, &network.ServerMessage{Type: network.MsgTypeFrameDelta, Payload: payload})
	if err != nil {
		delete(p.last, id)
		return err
	}
	p.last[id] = next
	return nil
}

// Forget drops what was last sent to id, so the next frame is full.
func (p *DeltaPresenter) Forget(id gui.ViewerID) {
	delete(p.last, id)
}

// changes lists the slots of next that differ from prev. A nil prev lists
// every occupied slot.
func changes(prev, next []*network.SlotItem) []network.SlotChange {
	var out []network.SlotChange
	for i, it := range next {
		var before *network.SlotItem
		if i < len(prev) {
			before = prev[i]
		}
		if !sameItem(before, it) {
			out = append(out, network.SlotChange{Slot: i, Item: it})
		}
	}
	return out
}

// personalChanges diffs the layout-owned personal frames. While the viewer's
// own items are shown there is nothing to send.
func personalChanges(prev, next []*network.SlotItem) []network.SlotChange {
	if next == nil {
		return nil
	}
	return changes(prev, next)
}

// versionRouter forwards each frame to the presenter of the version the
// viewer negotiated.
type versionRouter struct {
	table    *gui.Presenters
	fallback string
}

// Materialize implements gui.Presenter.
func (r *versionRouter) Materialize(v gui.Viewer, title string, top gui.Slots, personal gui.Slots) error {
	version := r.fallback
	if p, ok := v.(*models.Player); ok && p.Version != "" {
		version = p.Version
	}
	target, err := r.table.Lookup(version)
	if err != nil {
		return fmt.Errorf("viewer %s: %w", v.ViewerID(), err)
	}
	return target.Materialize(v, title, top, personal)
}
