package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/gravitas-games/slotgui/internal/config"
	"github.com/gravitas-games/slotgui/internal/gui"
	"github.com/gravitas-games/slotgui/internal/layout"
	"github.com/gravitas-games/slotgui/internal/network"
	"github.com/gravitas-games/slotgui/pkg/models"
)

// RequestError is a failed client request. Code is sent to the client.
type RequestError struct {
	Code        string
	Message     string
	Suggestions []string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Session owns every Gui and runs all window work on one goroutine. Other
// goroutines hand work to it with Post.
type Session struct {
	ID        string
	CreatedAt time.Time

	// Player management
	players     map[string]*models.Player // playerID -> Player
	connections map[string]*Connection    // playerID -> Connection
	mu          sync.RWMutex

	// Window state, owned by the Run goroutine
	registry   *layout.Registry
	layouts    map[string]*layout.Document
	guis       map[string]*gui.Gui // one shared Gui per layout
	stash      *gui.StashCache
	presenters *gui.Presenters
	deltas     *DeltaPresenter
	router     *versionRouter
	sink       Sink

	inbox  chan func()
	done   chan struct{}
	status SessionStatus

	// Configuration
	config *config.Config
}

// SessionStatus represents the current state of the session
type SessionStatus struct {
	State       string `json:"state"` // "waiting", "running", "stopped"
	PlayerCount int    `json:"player_count"`
	OpenWindows int    `json:"open_windows"`
	Layouts     int    `json:"layouts"`
	MaxViewers  int    `json:"max_viewers"`
	ServerTick  int64  `json:"server_tick"`
	Uptime      int64  `json:"uptime"` // seconds
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSink delivers frames somewhere other than the session's connections.
func WithSink(sink Sink) SessionOption {
	return func(s *Session) { s.sink = sink }
}

// WithRegistry loads layouts against reg instead of a fresh registry.
func WithRegistry(reg *layout.Registry) SessionOption {
	return func(s *Session) { s.registry = reg }
}

// NewSession creates a session and loads every layout in the configured
// directory.
func NewSession(id string, cfg *config.Config, opts ...SessionOption) (*Session, error) {
	log.Printf("Creating session: %s", id)

	s := &Session{
		ID:          id,
		CreatedAt:   time.Now(),
		players:     make(map[string]*models.Player),
		connections: make(map[string]*Connection),
		guis:        make(map[string]*gui.Gui),
		stash:       gui.NewStashCache(),
		presenters:  gui.NewPresenters(),
		inbox:       make(chan func(), 256),
		done:        make(chan struct{}),
		config:      cfg,
		status: SessionStatus{
			State:      "waiting",
			MaxViewers: cfg.Session.MaxViewers,
		},
	}
	s.sink = s
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = layout.NewRegistry()
	}
	if err := s.registerActions(); err != nil {
		return nil, err
	}

	s.deltas = NewDeltaPresenter(s.sink)
	if err := s.presenters.Register(VersionFrames, NewFramePresenter(s.sink)); err != nil {
		return nil, err
	}
	if err := s.presenters.Register(VersionDeltas, s.deltas); err != nil {
		return nil, err
	}
	if _, err := s.presenters.Lookup(cfg.Session.DefaultPresenter); err != nil {
		return nil, fmt.Errorf("default presenter: %w", err)
	}
	s.router = &versionRouter{table: s.presenters, fallback: cfg.Session.DefaultPresenter}

	layouts, err := layout.LoadDir(cfg.Layouts.Dir, s.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to load layouts: %w", err)
	}
	s.layouts = layouts
	s.status.Layouts = len(layouts)

	log.Printf("Session %s created with %d layouts from %s", id, len(layouts), cfg.Layouts.Dir)
	return s, nil
}

// registerActions binds the actions that need the session.
func (s *Session) registerActions() error {
	if err := s.registry.RegisterAction("close", func(ev *gui.ActivationEvent, _ string) {
		if p, ok := ev.Viewer.(*models.Player); ok {
			s.closeWindow(p, "action")
		}
	}); err != nil {
		return err
	}
	return s.registry.RegisterAction("open", func(ev *gui.ActivationEvent, name string) {
		p, ok := ev.Viewer.(*models.Player)
		if !ok {
			return
		}
		if err := s.Open(p, network.OpenPayload{Layout: name, Version: p.Version}); err != nil {
			s.sendError(p.ID, err)
		}
	})
}

// Run processes posted work until ctx is done, then closes every window
// so stashed inventories are handed back.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)

	tick := time.Second / time.Duration(max(s.config.Server.TickRate, 1))
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	s.setState("running")
	for {
		select {
		case fn := <-s.inbox:
			fn()
		case <-ticker.C:
			s.mu.Lock()
			s.status.ServerTick++
			s.mu.Unlock()
		case <-ctx.Done():
			s.closeAll("shutdown")
			s.setState("stopped")
			return
		}
	}
}

// Post queues fn for the Run goroutine. It reports false once the session
// has stopped.
func (s *Session) Post(fn func()) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.inbox <- fn:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) setState(state string) {
	s.mu.Lock()
	s.status.State = state
	s.mu.Unlock()
}

// AddPlayer adds a player to the session. A player reconnecting under the
// same ID replaces the earlier entry; its window is closed on the Run
// goroutine before any request from the new connection, and its
// connection is dropped.
func (s *Session) AddPlayer(player *models.Player, conn *Connection) {
	s.mu.Lock()
	old := s.players[player.ID]
	oldConn := s.connections[player.ID]
	s.players[player.ID] = player
	s.connections[player.ID] = conn
	s.status.PlayerCount = len(s.players)
	s.mu.Unlock()

	if old != nil && old != player {
		log.Printf("Player %s (%s) reconnected to session %s", player.Username, player.ID, s.ID)
		if !s.Post(func() { s.closeWindow(old, "replaced") }) {
			log.Printf("Session stopped before the previous window of %s could close", player.ID)
		}
		if oldConn != nil && oldConn != conn {
			oldConn.Close()
		}
		return
	}
	log.Printf("Player %s (%s) joined session %s", player.Username, player.ID, s.ID)
}

// RemovePlayer closes the player's window and removes them from the
// session. Call it from the Run goroutine.
func (s *Session) RemovePlayer(playerID string) {
	s.mu.RLock()
	player, exists := s.players[playerID]
	s.mu.RUnlock()
	if !exists {
		return
	}
	s.closeWindow(player, "")

	s.mu.Lock()
	defer s.mu.Unlock()
	log.Printf("Player %s (%s) left session %s", player.Username, playerID, s.ID)
	delete(s.players, playerID)
	delete(s.connections, playerID)
	s.status.PlayerCount = len(s.players)
}

// removeConnection drops conn's player unless a newer connection has
// replaced it.
func (s *Session) removeConnection(conn *Connection) {
	s.mu.RLock()
	current := s.connections[conn.player.ID]
	s.mu.RUnlock()
	if current == conn {
		s.RemovePlayer(conn.player.ID)
	}
}

// GetPlayer retrieves a player by ID
func (s *Session) GetPlayer(playerID string) (*models.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	player, exists := s.players[playerID]
	return player, exists
}

// GetStatus returns the current session status
func (s *Session) GetStatus() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := s.status
	status.Uptime = int64(time.Since(s.CreatedAt).Seconds())
	return status
}

// LayoutNames returns the loaded layout names in order.
func (s *Session) LayoutNames() []string {
	names := make([]string, 0, len(s.layouts))
	for name := range s.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Send implements Sink over the players' connections.
func (s *Session) Send(id gui.ViewerID, msg *network.ServerMessage) error {
	s.mu.RLock()
	conn := s.connections[string(id)]
	s.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("%w: %s", ErrNotConnected, id)
	}
	conn.SendMessage(msg)
	return nil
}

func (s *Session) sendError(playerID string, err error) {
	payload := network.ErrorPayload{Code: "internal", Message: err.Error()}
	var re *RequestError
	if errors.As(err, &re) {
		payload = network.ErrorPayload{Code: re.Code, Message: re.Message, Suggestions: re.Suggestions}
	}
	if sendErr := s.sink.Send(gui.ViewerID(playerID), &network.ServerMessage{Type: network.MsgTypeError, Payload: payload}); sendErr != nil {
		log.Printf("Dropped error for %s: %v", playerID, sendErr)
	}
}

// guiFor returns the shared Gui of a layout, building it on first use.
func (s *Session) guiFor(name string) (*gui.Gui, error) {
	if g, ok := s.guis[name]; ok {
		return g, nil
	}
	doc, ok := s.layouts[name]
	if !ok {
		return nil, &RequestError{
			Code:        "unknown_layout",
			Message:     fmt.Sprintf("no layout named %q", name),
			Suggestions: layout.Suggest(name, s.LayoutNames()),
		}
	}
	g, err := doc.Build(s.router, gui.WithStash(s.stash))
	if err != nil {
		return nil, err
	}
	s.guis[name] = g
	return g, nil
}

func viewing(g *gui.Gui, id gui.ViewerID) bool {
	for _, v := range g.Viewers() {
		if v.ViewerID() == id {
			return true
		}
	}
	return false
}

// Open shows a layout to p, closing any other window first. Opening the
// layout that is already open refreshes it.
func (s *Session) Open(p *models.Player, req network.OpenPayload) error {
	version := req.Version
	if version == "" {
		version = s.config.Session.DefaultPresenter
	}
	if _, err := s.presenters.Lookup(version); err != nil {
		return &RequestError{Code: "unknown_version", Message: err.Error(), Suggestions: s.presenters.Versions()}
	}
	g, err := s.guiFor(req.Layout)
	if err != nil {
		return err
	}

	if p.Layout != req.Layout {
		if len(g.Viewers()) >= s.config.Session.MaxViewers {
			return &RequestError{Code: "layout_full", Message: fmt.Sprintf("layout %q has %d viewers", req.Layout, len(g.Viewers()))}
		}
		s.closeWindow(p, "")
	}
	if p.Version != version {
		s.deltas.Forget(p.ViewerID())
	}
	p.Layout = req.Layout
	p.Version = version

	if err := g.Show(p); err != nil {
		if !viewing(g, p.ViewerID()) {
			p.Layout = ""
		}
		return &RequestError{Code: "open_failed", Message: err.Error()}
	}
	s.countWindows()
	return nil
}

// Click routes a click to the player's open Gui. Clicks the layout keeps
// cancelled are answered with a fresh frame so the client rolls back.
func (s *Session) Click(p *models.Player, req network.ClickPayload) error {
	if !p.HasOpenLayout() {
		return &RequestError{Code: "not_open", Message: "no window is open"}
	}
	region, err := parseRegion(req.Region)
	if err != nil {
		return err
	}
	name := p.Layout
	g := s.guis[name]

	ev := &gui.ActivationEvent{
		Viewer:  p,
		Region:  region,
		Slot:    req.Slot,
		Payload: toStack(req.Item),
	}
	g.HandleActivation(ev)

	if ev.Cancelled && p.Layout == name {
		if err := g.Show(p); err != nil {
			log.Printf("Resync for %s failed: %v", p.ID, err)
		}
	}
	return nil
}

func parseRegion(name string) (gui.RegionKind, error) {
	switch name {
	case network.RegionTop:
		return gui.RegionTop, nil
	case network.RegionPersonal:
		return gui.RegionPersonal, nil
	case network.RegionOutside:
		return gui.RegionOutside, nil
	default:
		return 0, &RequestError{Code: "bad_region", Message: fmt.Sprintf("unknown region %q", name)}
	}
}

// Close handles a client closing its window.
func (s *Session) Close(p *models.Player) {
	s.closeWindow(p, "")
}

// SetInventory replaces p's personal inventory. It is refused while a
// layout occupies the personal region.
func (s *Session) SetInventory(p *models.Player, req network.InventoryPayload) error {
	if s.stash.Has(p.ViewerID()) {
		return &RequestError{Code: "inventory_locked", Message: "personal inventory is in use by a window"}
	}
	inv := p.Personal()
	for i := 0; i < gui.PersonalSlots; i++ {
		var it *network.SlotItem
		if i < len(req.Slots) {
			it = req.Slots[i]
		}
		inv.SetSlot(i, toStack(it))
	}
	return nil
}

// closeWindow closes p's window. A non-empty reason tells the client.
func (s *Session) closeWindow(p *models.Player, reason string) {
	name := p.Layout
	if name == "" {
		return
	}
	p.Layout = ""
	if g, ok := s.guis[name]; ok {
		g.HandleClose(p)
	}
	s.deltas.Forget(p.ViewerID())
	s.countWindows()

	if reason == "" {
		return
	}
	msg := &network.ServerMessage{
		Type:    network.MsgTypeClosed,
		Payload: network.ClosedPayload{Layout: name, Reason: reason},
	}
	if err := s.sink.Send(p.ViewerID(), msg); err != nil {
		log.Printf("Dropped close notice for %s: %v", p.ID, err)
	}
}

func (s *Session) closeAll(reason string) {
	s.mu.RLock()
	players := make([]*models.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	s.mu.RUnlock()

	for _, p := range players {
		s.closeWindow(p, reason)
	}
	if left := s.stash.Drain(); len(left) > 0 {
		log.Printf("Session %s dropped %d orphaned stash entries", s.ID, len(left))
	}
}

func (s *Session) countWindows() {
	open := 0
	for _, g := range s.guis {
		open += len(g.Viewers())
	}
	s.mu.Lock()
	s.status.OpenWindows = open
	s.mu.Unlock()
}
