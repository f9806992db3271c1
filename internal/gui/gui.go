package gui

import (
	"errors"
	"fmt"
	"log"
	"runtime/debug"
)

// State says whether a layout currently occupies the personal region.
type State int

const (
	// StateTop leaves the viewer's personal region untouched.
	StateTop State = iota
	// StateBottom paints layout items into the personal region; the
	// viewer's own items are held in the stash.
	StateBottom
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateTop:
		return "top"
	case StateBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// Option configures a Gui.
type Option func(*Gui)

// WithTitle sets the title passed to the presenter.
func WithTitle(title string) Option {
	return func(g *Gui) { g.title = title }
}

// WithStash shares a stash cache between Guis. Guis that may be shown to
// the same viewer should share one.
func WithStash(c *StashCache) Option {
	return func(g *Gui) {
		if c != nil {
			g.stash = c
		}
	}
}

// WithLogger routes diagnostics to l instead of the standard logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Gui) {
		if l != nil {
			g.logger = l
		}
	}
}

type section struct {
	Section
	panes []Pane
}

// frame is the render frame of the section's pane tree.
func (s *section) frame(rows int) Frame {
	return Frame{MaxLength: s.Width, MaxHeight: rows}
}

// Gui coordinates a layout for one container shape: it renders the pane
// trees, splits them between the top container and the personal region,
// manages the TOP/BOTTOM transition and routes activations.
type Gui struct {
	shape     Shape
	title     string
	presenter Presenter
	stash     *StashCache
	logger    *log.Logger

	sections []*section
	personal *section // standalone personal section; nil when merged
	state    State

	viewers    []Viewer
	holding    map[ViewerID]bool
	refreshing bool

	onActivate         ActivateFunc
	onTopActivate      ActivateFunc
	onPersonalActivate ActivateFunc
	onOutsideActivate  ActivateFunc
	onClose            func(Viewer)
}

// New creates a Gui for shape that materializes through presenter.
func New(shape Shape, presenter Presenter, opts ...Option) (*Gui, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if presenter == nil {
		return nil, errors.New("gui: nil presenter")
	}
	g := &Gui{
		shape:     shape,
		presenter: presenter,
		stash:     NewStashCache(),
		logger:    log.Default(),
		holding:   make(map[ViewerID]bool),
	}
	for _, sec := range shape.Sections {
		g.sections = append(g.sections, &section{Section: sec})
	}
	if !shape.MergePersonal {
		g.personal = &section{Section: Section{Name: PersonalSection, Width: PersonalWidth, Height: PersonalHeight}}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// Shape returns the container shape.
func (g *Gui) Shape() Shape { return g.shape }

// Title returns the title.
func (g *Gui) Title() string { return g.title }

// SetTitle changes the title; it takes effect on the next Show or Update.
func (g *Gui) SetTitle(title string) { g.title = title }

// State returns the state computed by the most recent render.
func (g *Gui) State() State { return g.state }

// Stash returns the stash cache in use.
func (g *Gui) Stash() *StashCache { return g.stash }

// OnActivate sets a hook fired for every activation before routing.
func (g *Gui) OnActivate(fn ActivateFunc) { g.onActivate = fn }

// OnTopActivate sets a hook fired for activations in the top container.
func (g *Gui) OnTopActivate(fn ActivateFunc) { g.onTopActivate = fn }

// OnPersonalActivate sets a hook fired for activations in the personal region.
func (g *Gui) OnPersonalActivate(fn ActivateFunc) { g.onPersonalActivate = fn }

// OnOutsideActivate sets a hook fired for clicks outside every slot.
func (g *Gui) OnOutsideActivate(fn ActivateFunc) { g.onOutsideActivate = fn }

// OnClose sets a hook fired when a viewer really closes the Gui. It is not
// fired for the native close a refresh may cause.
func (g *Gui) OnClose(fn func(Viewer)) { g.onClose = fn }

func (g *Gui) section(name string) *section {
	if name == PersonalSection && g.personal != nil {
		return g.personal
	}
	for _, s := range g.sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Section returns the named section descriptor, including the standalone
// personal section of non-merged shapes.
func (g *Gui) Section(name string) (Section, bool) {
	if s := g.section(name); s != nil {
		return s.Section, true
	}
	return Section{}, false
}

// AddPane adds a root pane to the first section.
func (g *Gui) AddPane(p Pane) {
	if p != nil {
		g.sections[0].panes = append(g.sections[0].panes, p)
	}
}

// AddPaneTo adds a root pane to the named section.
func (g *Gui) AddPaneTo(name string, p Pane) error {
	s := g.section(name)
	if s == nil {
		return fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	if p != nil {
		s.panes = append(s.panes, p)
	}
	return nil
}

// RemovePane drops a root pane from whichever section holds it.
func (g *Gui) RemovePane(p Pane) {
	for _, s := range g.allSections() {
		for i, c := range s.panes {
			if c == p {
				s.panes = append(s.panes[:i], s.panes[i+1:]...)
				return
			}
		}
	}
}

// Panes returns the root panes of the named section.
func (g *Gui) Panes(name string) []Pane {
	if s := g.section(name); s != nil {
		return append([]Pane(nil), s.panes...)
	}
	return nil
}

// FindPane returns the first pane named name in any section.
func (g *Gui) FindPane(name string) Pane {
	for _, s := range g.allSections() {
		if p := findPane(s.panes, name); p != nil {
			return p
		}
	}
	return nil
}

func (g *Gui) allSections() []*section {
	if g.personal == nil {
		return g.sections
	}
	return append(append([]*section(nil), g.sections...), g.personal)
}

// Viewers returns the current observers in the order they were added.
func (g *Gui) Viewers() []Viewer {
	return append([]Viewer(nil), g.viewers...)
}

func (g *Gui) observing(id ViewerID) bool {
	for _, v := range g.viewers {
		if v.ViewerID() == id {
			return true
		}
	}
	return false
}

func (g *Gui) removeViewer(id ViewerID) bool {
	for i, v := range g.viewers {
		if v.ViewerID() == id {
			g.viewers = append(g.viewers[:i], g.viewers[i+1:]...)
			return true
		}
	}
	return false
}

// render composes every section. The returned personal region is 9x4;
// for merged shapes it aliases the tail rows of the first section.
func (g *Gui) render() (Slots, *Region) {
	top := NewSlots(g.shape.Size)
	var personal *Region

	for i, s := range g.sections {
		rows := s.Height
		merged := i == 0 && g.shape.MergePersonal
		if merged {
			rows += PersonalHeight
		}
		region := &Region{width: s.Width, height: rows, cells: make([]*Item, s.Width*rows)}
		renderAll(s.panes, region, s.frame(rows))

		if !merged {
			region.WriteInto(top, s.SlotOffset)
			continue
		}
		upper, _ := region.SliceRows(0, s.Height-1)
		upper.WriteInto(top, s.SlotOffset)
		personal, _ = region.SliceRows(s.Height, rows-1)
	}

	if g.personal != nil {
		personal = &Region{width: PersonalWidth, height: PersonalHeight, cells: make([]*Item, PersonalSlots)}
		renderAll(g.personal.panes, personal, g.personal.frame(PersonalHeight))
	}
	return top, personal
}

// writePersonal lays a 9x4 personal region into a container: storage rows
// first at slot 9, hotbar row at slot 0.
func writePersonal(r *Region, dst Container) {
	storage, _ := r.SliceRows(0, PersonalHeight-2)
	storage.WriteInto(dst, PersonalWidth)
	hotbar, _ := r.SliceRows(PersonalHeight-1, PersonalHeight-1)
	hotbar.WriteInto(dst, 0)
}

// Show renders the layout for v, moves v between TOP and BOTTOM as needed,
// hands the result to the presenter and registers v as an observer.
func (g *Gui) Show(v Viewer) (err error) {
	id := v.ViewerID()
	returning := g.observing(id)
	if returning {
		g.refreshing = true
		defer func() { g.refreshing = false }()
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger.Printf("gui: show for %s panicked: %v\n%s", id, r, debug.Stack())
			if !returning {
				g.leaveBottom(v)
			}
			err = fmt.Errorf("gui: show for %s: %v", id, r)
		}
	}()

	top, personal := g.render()
	g.state = StateTop
	if personal.HasVisibleItem() {
		g.state = StateBottom
	}

	var personalSlots Slots
	if g.state == StateBottom {
		g.enterBottom(v)
		personalSlots = NewSlots(PersonalSlots)
		writePersonal(personal, personalSlots)
		writePersonal(personal, v.Personal())
	} else {
		g.leaveBottom(v)
	}

	if err := g.presenter.Materialize(v, g.title, top, personalSlots); err != nil {
		if !returning {
			g.leaveBottom(v)
		}
		return fmt.Errorf("gui: materialize for %s: %w", id, err)
	}
	if !returning {
		g.viewers = append(g.viewers, v)
	}
	return nil
}

// Update shows the layout again to every observer. Observers removed while
// the update runs are skipped; failures are logged per viewer.
func (g *Gui) Update() {
	for _, v := range g.Viewers() {
		if !g.observing(v.ViewerID()) {
			continue
		}
		if err := g.Show(v); err != nil {
			g.logger.Printf("gui: refresh skipped for %s: %v", v.ViewerID(), err)
		}
	}
}

// enterBottom stashes v's personal items unless this Gui already holds them.
func (g *Gui) enterBottom(v Viewer) {
	id := v.ViewerID()
	if g.holding[id] {
		return
	}
	if g.stash.Retain(id) {
		g.holding[id] = true
		return
	}

	dst := v.Personal()
	snapshot := make([]*Stack, PersonalSlots)
	for i := range snapshot {
		snapshot[i] = dst.Slot(i).Clone()
	}
	if err := g.stash.Save(id, snapshot); err != nil {
		g.logger.Printf("gui: stash for %s: %v", id, err)
		return
	}
	g.holding[id] = true
	for i := 0; i < PersonalSlots; i++ {
		dst.SetSlot(i, nil)
	}
}

// leaveBottom releases this Gui's hold on v's stash and restores the items
// if no other Gui still holds them.
func (g *Gui) leaveBottom(v Viewer) {
	id := v.ViewerID()
	if !g.holding[id] {
		return
	}
	delete(g.holding, id)
	contents, restore := g.stash.Release(id)
	if !restore {
		return
	}
	dst := v.Personal()
	for i, s := range contents {
		dst.SetSlot(i, s)
	}
}

// HandleClose is called by the host when v's view of the Gui closes. Closes
// that happen while a refresh is in progress are ignored.
func (g *Gui) HandleClose(v Viewer) {
	if g.refreshing {
		return
	}
	if !g.removeViewer(v.ViewerID()) {
		return
	}
	g.leaveBottom(v)
	if g.onClose == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger.Printf("gui: close callback panicked (viewer=%s): %v\n%s", v.ViewerID(), r, debug.Stack())
		}
	}()
	g.onClose(v)
}

// HandleActivation routes ev to the pane tree of the section it landed in.
// It reports whether an item claimed the activation.
func (g *Gui) HandleActivation(ev *ActivationEvent) (handled bool) {
	ev.Gui = g
	ev.logger = g.logger
	ev.Cancelled = true
	defer func() {
		if r := recover(); r != nil {
			g.logger.Printf("gui: dispatch panicked (region=%s slot=%d): %v\n%s", ev.Region, ev.Slot, r, debug.Stack())
			handled = false
		}
	}()

	if g.onActivate != nil {
		ev.call("global", g.onActivate)
	}

	switch ev.Region {
	case RegionTop:
		sec, ok := g.shape.sectionAt(ev.Slot)
		if !ok {
			return false
		}
		if g.onTopActivate != nil {
			ev.call("top", g.onTopActivate)
		}
		s := g.section(sec.Name)
		local := ev.Slot - sec.SlotOffset
		ev.Section = sec.Name
		ev.Point = Point{X: local % sec.Width, Y: local / sec.Width}
		rows := s.Height
		if g.shape.MergePersonal && s == g.sections[0] {
			rows += PersonalHeight
		}
		return dispatchAll(s.panes, ev, ev.Point, s.frame(rows))

	case RegionPersonal:
		pt, ok := personalPoint(ev.Slot)
		if !ok {
			return false
		}
		if g.onPersonalActivate != nil {
			ev.call("personal", g.onPersonalActivate)
		}
		// In TOP state the personal region belongs to the viewer; only
		// clicks on empty slots reach panes.
		if g.state == StateTop && ev.Payload != nil && ev.Payload.Material != "" {
			return false
		}
		if g.personal != nil {
			ev.Section = PersonalSection
			ev.Point = pt
			return dispatchAll(g.personal.panes, ev, pt, g.personal.frame(PersonalHeight))
		}
		s := g.sections[0]
		ev.Section = s.Name
		ev.Point = Point{X: pt.X, Y: pt.Y + s.Height}
		return dispatchAll(s.panes, ev, ev.Point, s.frame(s.Height+PersonalHeight))

	default:
		if g.onOutsideActivate != nil {
			ev.call("outside", g.onOutsideActivate)
		}
		return false
	}
}
