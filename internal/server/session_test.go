package server

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/gravitas-games/slotgui/internal/config"
	"github.com/gravitas-games/slotgui/internal/gui"
	"github.com/gravitas-games/slotgui/internal/network"
	"github.com/gravitas-games/slotgui/pkg/models"
)

var testLayouts = map[string]string{
	"shop.yaml": `
kind: chest
rows: 1
title: Shop
sections:
  main:
    - kind: paginated
      name: wares
      length: 2
      height: 1
      pages:
        - - kind: static
            length: 2
            height: 1
            items: [{key: gem, material: emerald}]
        - - kind: static
            length: 2
            height: 1
            items: [{key: ruby, material: redstone}]
    - kind: static
      name: nav
      x: 6
      length: 3
      height: 1
      items:
        - {key: next, material: arrow, x: 0, action: "page_next:wares"}
        - {key: bank, material: gold_block, x: 1, action: "open:bank"}
        - {key: close, material: barrier, x: 2, action: close}
`,
	"bank.yaml": `
kind: chest
rows: 1
title: Bank
sections:
  main:
    - kind: static
      length: 1
      height: 1
      items: [{key: coin, material: gold_nugget}]
`,
	"locker.yaml": `
kind: chest
rows: 1
title: Locker
sections:
  main:
    - kind: static
      y: 1
      length: 9
      height: 1
      items: [{key: badge, material: name_tag}]
`,
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for name, body := range testLayouts {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write layout: %v", err)
		}
	}
	cfg := config.Default()
	cfg.Layouts.Dir = dir
	return cfg
}

func testSession(t *testing.T, tweak func(*config.Config)) (*Session, *recordingSink) {
	t.Helper()
	cfg := testConfig(t)
	if tweak != nil {
		tweak(cfg)
	}
	sink := &recordingSink{}
	s, err := NewSession("test", cfg, WithSink(sink))
	if err != nil {
		t.Fatalf("unexpected session error: %v", err)
	}
	return s, sink
}

func join(s *Session, id string) *models.Player {
	p := models.NewPlayer(id, "player"+id)
	s.AddPlayer(p, nil)
	return p
}

func requestCode(t *testing.T, err error) *RequestError {
	t.Helper()
	var re *RequestError
	if !errors.As(err, &re) {
		t.Fatalf("expected a RequestError, got %v", err)
	}
	return re
}

func frameKey(t *testing.T, msg *network.ServerMessage, slot int) string {
	t.Helper()
	frame, ok := msg.Payload.(network.FramePayload)
	if !ok {
		t.Fatalf("expected a frame, got %+v", msg)
	}
	if frame.Top[slot] == nil {
		return ""
	}
	return frame.Top[slot].Key
}

func TestSessionLoadsLayouts(t *testing.T) {
	s, _ := testSession(t, nil)
	if got := s.LayoutNames(); !slices.Equal(got, []string{"bank", "locker", "shop"}) {
		t.Fatalf("unexpected layouts: %v", got)
	}
	if s.GetStatus().Layouts != 3 {
		t.Fatalf("expected 3 layouts in status, got %d", s.GetStatus().Layouts)
	}
}

func TestSessionRejectsUnknownDefaultPresenter(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Layouts.Dir = dir
	cfg.Session.DefaultPresenter = "v7"
	if _, err := NewSession("test", cfg, WithSink(&recordingSink{})); !errors.Is(err, gui.ErrUnknownPresenter) {
		t.Fatalf("expected ErrUnknownPresenter, got %v", err)
	}
}

func TestSessionOpen(t *testing.T) {
	s, sink := testSession(t, nil)
	p := join(s, "1")

	if err := s.Open(p, network.OpenPayload{Layout: "shop"}); err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	if p.Layout != "shop" || p.Version != VersionFrames {
		t.Fatalf("expected shop with the default version, got %q %q", p.Layout, p.Version)
	}
	if got := frameKey(t, sink.last(), 0); got != "gem" {
		t.Fatalf("expected gem in slot 0, got %q", got)
	}
	if s.GetStatus().OpenWindows != 1 {
		t.Fatalf("expected 1 open window, got %d", s.GetStatus().OpenWindows)
	}

	re := requestCode(t, s.Open(p, network.OpenPayload{Layout: "shopp"}))
	if re.Code != "unknown_layout" || !slices.Contains(re.Suggestions, "shop") {
		t.Fatalf("expected unknown_layout suggesting shop, got %+v", re)
	}
	if re := requestCode(t, s.Open(p, network.OpenPayload{Layout: "shop", Version: "v3"})); re.Code != "unknown_version" {
		t.Fatalf("expected unknown_version, got %s", re.Code)
	}
	if p.Layout != "shop" {
		t.Fatalf("a failed open must leave the current window, got %q", p.Layout)
	}

	if err := s.Open(p, network.OpenPayload{Layout: "bank", Version: VersionDeltas}); err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	if sink.last().Type != network.MsgTypeFrameDelta {
		t.Fatalf("expected a delta frame, got %s", sink.last().Type)
	}
	if viewing(s.guis["shop"], p.ViewerID()) {
		t.Fatalf("expected the shop window closed when the bank opened")
	}
}

func TestSessionLayoutFull(t *testing.T) {
	s, _ := testSession(t, func(c *config.Config) { c.Session.MaxViewers = 1 })
	a, b := join(s, "1"), join(s, "2")
	if err := s.Open(a, network.OpenPayload{Layout: "shop"}); err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	if re := requestCode(t, s.Open(b, network.OpenPayload{Layout: "shop"})); re.Code != "layout_full" {
		t.Fatalf("expected layout_full, got %s", re.Code)
	}
	if err := s.Open(a, network.OpenPayload{Layout: "shop"}); err != nil {
		t.Fatalf("reopening an open layout must not count twice: %v", err)
	}
}

func TestSessionClickSharedPage(t *testing.T) {
	s, sink := testSession(t, nil)
	a, b := join(s, "1"), join(s, "2")
	_ = s.Open(a, network.OpenPayload{Layout: "shop"})
	_ = s.Open(b, network.OpenPayload{Layout: "shop"})

	if err := s.Click(a, network.ClickPayload{Region: network.RegionTop, Slot: 6}); err != nil {
		t.Fatalf("unexpected click error: %v", err)
	}
	frames := sink.ofType(network.MsgTypeFrame, b.ViewerID())
	if got := frameKey(t, frames[len(frames)-1], 0); got != "ruby" {
		t.Fatalf("expected the other viewer to see page two, got %q", got)
	}
}

func TestSessionClickResyncsCancelled(t *testing.T) {
	s, sink := testSession(t, nil)
	p := join(s, "1")
	_ = s.Open(p, network.OpenPayload{Layout: "shop"})

	before := len(sink.ofType(network.MsgTypeFrame, p.ViewerID()))
	if err := s.Click(p, network.ClickPayload{Region: network.RegionTop, Slot: 0}); err != nil {
		t.Fatalf("unexpected click error: %v", err)
	}
	after := len(sink.ofType(network.MsgTypeFrame, p.ViewerID()))
	if after != before+1 {
		t.Fatalf("expected one resync frame, got %d", after-before)
	}
}

func TestSessionClickActions(t *testing.T) {
	s, sink := testSession(t, nil)
	p := join(s, "1")
	_ = s.Open(p, network.OpenPayload{Layout: "shop"})

	_ = s.Click(p, network.ClickPayload{Region: network.RegionTop, Slot: 7})
	if p.Layout != "bank" || frameKey(t, sink.last(), 0) != "coin" {
		t.Fatalf("expected the open action to show the bank, got %q", p.Layout)
	}

	_ = s.Open(p, network.OpenPayload{Layout: "shop"})
	_ = s.Click(p, network.ClickPayload{Region: network.RegionTop, Slot: 8})
	msg := sink.last()
	closed, ok := msg.Payload.(network.ClosedPayload)
	if msg.Type != network.MsgTypeClosed || !ok || closed.Layout != "shop" || closed.Reason != "action" {
		t.Fatalf("expected a closed notice, got %+v", msg)
	}
	if p.HasOpenLayout() || s.GetStatus().OpenWindows != 0 {
		t.Fatalf("expected no open window after the close action")
	}
}

func TestSessionClickErrors(t *testing.T) {
	s, _ := testSession(t, nil)
	p := join(s, "1")
	if re := requestCode(t, s.Click(p, network.ClickPayload{Region: network.RegionTop})); re.Code != "not_open" {
		t.Fatalf("expected not_open, got %s", re.Code)
	}
	_ = s.Open(p, network.OpenPayload{Layout: "shop"})
	if re := requestCode(t, s.Click(p, network.ClickPayload{Region: "sideways"})); re.Code != "bad_region" {
		t.Fatalf("expected bad_region, got %s", re.Code)
	}
}

func TestSessionInventoryLockedWhileStashed(t *testing.T) {
	s, _ := testSession(t, nil)
	p := join(s, "1")
	p.Inventory[0] = &gui.Stack{Key: "dirt", Material: "dirt", Amount: 3}

	_ = s.Open(p, network.OpenPayload{Layout: "locker"})
	if p.Inventory[0] != nil || p.Inventory[gui.PersonalWidth] == nil || p.Inventory[gui.PersonalWidth].Key != "badge" {
		t.Fatalf("expected the locker to own the personal region")
	}
	err := s.SetInventory(p, network.InventoryPayload{Slots: []*network.SlotItem{{Material: "stone", Amount: 1}}})
	if re := requestCode(t, err); re.Code != "inventory_locked" {
		t.Fatalf("expected inventory_locked, got %s", re.Code)
	}

	s.Close(p)
	if p.Inventory[0] == nil || p.Inventory[0].Material != "dirt" || p.Inventory[0].Amount != 3 {
		t.Fatalf("expected the stashed dirt back, got %+v", p.Inventory[0])
	}
	if err := s.SetInventory(p, network.InventoryPayload{Slots: []*network.SlotItem{{Material: "stone", Amount: 1}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Inventory[0].Material != "stone" || p.Inventory[1] != nil {
		t.Fatalf("expected the inventory replaced, got %+v", p.Inventory[:2])
	}
}

func TestSessionRemovePlayerClosesWindow(t *testing.T) {
	s, _ := testSession(t, nil)
	p := join(s, "1")
	_ = s.Open(p, network.OpenPayload{Layout: "locker"})

	s.RemovePlayer(p.ID)
	if _, ok := s.GetPlayer(p.ID); ok {
		t.Fatalf("expected the player removed")
	}
	if s.stash.Has(p.ViewerID()) || len(s.guis["locker"].Viewers()) != 0 {
		t.Fatalf("expected the window closed and stash released")
	}
}

func TestSessionReconnectClosesPreviousWindow(t *testing.T) {
	s, sink := testSession(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	first := join(s, "1")
	first.Inventory[0] = &gui.Stack{Key: "dirt", Material: "dirt", Amount: 2}
	errs := make(chan error, 1)
	s.Post(func() { errs <- s.Open(first, network.OpenPayload{Layout: "locker"}) })
	if err := <-errs; err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}

	second := join(s, "1")
	type state struct {
		layout  string
		dirt    *gui.Stack
		stashed bool
		closed  []*network.ServerMessage
		err     error
		viewers int
		badge   *gui.Stack
	}
	got := make(chan state, 1)
	s.Post(func() {
		st := state{
			layout:  first.Layout,
			dirt:    first.Inventory[0],
			stashed: s.stash.Has(first.ViewerID()),
			closed:  sink.ofType(network.MsgTypeClosed, first.ViewerID()),
		}
		st.err = s.Open(second, network.OpenPayload{Layout: "locker"})
		st.viewers = len(s.guis["locker"].Viewers())
		st.badge = second.Inventory[gui.PersonalWidth]
		got <- st
	})
	st := <-got

	if st.layout != "" {
		t.Fatalf("expected the previous window closed, got layout %q", st.layout)
	}
	if st.dirt == nil || st.dirt.Material != "dirt" || st.dirt.Amount != 2 {
		t.Fatalf("expected the stashed dirt back, got %+v", st.dirt)
	}
	if st.stashed {
		t.Fatalf("expected the stash released before the new player opened")
	}
	if len(st.closed) != 1 || st.closed[0].Payload.(network.ClosedPayload).Reason != "replaced" {
		t.Fatalf("expected one replaced notice, got %+v", st.closed)
	}
	if st.err != nil {
		t.Fatalf("unexpected open error: %v", st.err)
	}
	if st.viewers != 1 {
		t.Fatalf("expected one viewer, got %d", st.viewers)
	}
	if st.badge == nil || st.badge.Key != "badge" {
		t.Fatalf("expected the badge in the new inventory, got %+v", st.badge)
	}
	if p, _ := s.GetPlayer("1"); p != second {
		t.Fatalf("expected the new player registered")
	}
}

func TestSessionShutdownClosesWindows(t *testing.T) {
	s, sink := testSession(t, nil)
	p := join(s, "1")
	p.Inventory[0] = &gui.Stack{Key: "dirt", Material: "dirt", Amount: 1}

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	opened := make(chan error, 1)
	if !s.Post(func() { opened <- s.Open(p, network.OpenPayload{Layout: "locker"}) }) {
		t.Fatalf("expected the running session to accept work")
	}
	if err := <-opened; err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	cancel()
	<-s.done

	if s.Post(func() {}) {
		t.Fatalf("expected a stopped session to refuse work")
	}
	if s.GetStatus().State != "stopped" {
		t.Fatalf("expected stopped, got %s", s.GetStatus().State)
	}
	if p.Inventory[0] == nil || p.Inventory[0].Material != "dirt" {
		t.Fatalf("expected the inventory restored on shutdown")
	}
	closed, ok := sink.last().Payload.(network.ClosedPayload)
	if !ok || closed.Reason != "shutdown" {
		t.Fatalf("expected a shutdown notice, got %+v", sink.last())
	}
}
