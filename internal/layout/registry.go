// Package layout turns declarative YAML layout documents into gui.Gui
// values. Pane kinds, container shapes and item actions are resolved
// through an explicit Registry.
package layout

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/gravitas-games/slotgui/internal/gui"
)

var (
	ErrUnknownPane   = errors.New("layout: unknown pane kind")
	ErrUnknownShape  = errors.New("layout: unknown shape kind")
	ErrUnknownAction = errors.New("layout: unknown action")
	ErrDuplicateName = errors.New("layout: name already registered")
)

// Action runs when an item bound to it is activated. arg is the part of
// the binding after the first colon ("page_next:shop" passes "shop").
type Action func(ev *gui.ActivationEvent, arg string)

// PaneFactory builds one pane kind from its spec. Nested panes and items
// are built through b.
type PaneFactory func(b *Builder, spec PaneSpec) (gui.Pane, error)

// ShapeFactory builds a container shape. rows is only meaningful for
// shapes with a variable height.
type ShapeFactory func(rows int) (gui.Shape, error)

// Registry owns the names a layout document may refer to.
type Registry struct {
	panes   map[string]PaneFactory
	shapes  map[string]ShapeFactory
	actions map[string]Action
}

// NewRegistry creates a registry with the built-in pane kinds, shapes and
// pane-level actions.
func NewRegistry() *Registry {
	r := &Registry{
		panes:   make(map[string]PaneFactory),
		shapes:  make(map[string]ShapeFactory),
		actions: make(map[string]Action),
	}
	r.panes["static"] = buildStatic
	r.panes["outline"] = buildOutline
	r.panes["group"] = buildGroup
	r.panes["paginated"] = buildPaginated

	r.shapes["chest"] = gui.ChestShape
	r.shapes["dispenser"] = fixedShape(gui.DispenserShape)
	r.shapes["hopper"] = fixedShape(gui.HopperShape)
	r.shapes["furnace"] = fixedShape(gui.FurnaceShape)

	r.actions["page_next"] = turnPage(true)
	r.actions["page_prev"] = turnPage(false)
	r.actions["toggle"] = togglePane
	return r
}

func fixedShape(fn func() gui.Shape) ShapeFactory {
	return func(int) (gui.Shape, error) { return fn(), nil }
}

// RegisterPane adds a pane kind.
func (r *Registry) RegisterPane(kind string, f PaneFactory) error {
	if kind == "" || f == nil {
		return errors.New("layout: pane kind needs a name and a factory")
	}
	if _, exists := r.panes[kind]; exists {
		return fmt.Errorf("%w: pane %q", ErrDuplicateName, kind)
	}
	r.panes[kind] = f
	return nil
}

// RegisterShape adds a shape kind.
func (r *Registry) RegisterShape(kind string, f ShapeFactory) error {
	if kind == "" || f == nil {
		return errors.New("layout: shape kind needs a name and a factory")
	}
	if _, exists := r.shapes[kind]; exists {
		return fmt.Errorf("%w: shape %q", ErrDuplicateName, kind)
	}
	r.shapes[kind] = f
	return nil
}

// RegisterAction binds name to fn. Hosts use this for actions that need
// more than the Gui, such as closing a viewer's window.
func (r *Registry) RegisterAction(name string, fn Action) error {
	if name == "" || fn == nil || strings.Contains(name, ":") {
		return fmt.Errorf("layout: invalid action name %q", name)
	}
	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("%w: action %q", ErrDuplicateName, name)
	}
	r.actions[name] = fn
	return nil
}

func (r *Registry) pane(kind string) (PaneFactory, error) {
	if f, ok := r.panes[kind]; ok {
		return f, nil
	}
	return nil, unknown(ErrUnknownPane, kind, keys(r.panes))
}

func (r *Registry) shape(kind string, rows int) (gui.Shape, error) {
	f, ok := r.shapes[kind]
	if !ok {
		return gui.Shape{}, unknown(ErrUnknownShape, kind, keys(r.shapes))
	}
	return f(rows)
}

// Action resolves a binding of the form "name" or "name:arg" into an item
// callback.
func (r *Registry) Action(binding string) (gui.ActivateFunc, error) {
	name, arg, _ := strings.Cut(binding, ":")
	fn, ok := r.actions[name]
	if !ok {
		return nil, unknown(ErrUnknownAction, name, keys(r.actions))
	}
	return func(ev *gui.ActivationEvent) { fn(ev, arg) }, nil
}

// Suggest returns up to three registered names of the given kind ("pane",
// "shape" or "action") close to name, nearest first.
func (r *Registry) Suggest(kind, name string) []string {
	switch kind {
	case "pane":
		return Suggest(name, keys(r.panes))
	case "shape":
		return Suggest(name, keys(r.shapes))
	case "action":
		return Suggest(name, keys(r.actions))
	default:
		return nil
	}
}

func unknown(sentinel error, name string, known []string) error {
	if hints := Suggest(name, known); len(hints) > 0 {
		return fmt.Errorf("%w %q (did you mean %s?)", sentinel, name, strings.Join(hints, ", "))
	}
	return fmt.Errorf("%w %q", sentinel, name)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type candidate struct {
	name string
	dist int
}

// Suggest returns up to three entries of known within a length-scaled edit
// distance of name, nearest first.
func Suggest(name string, known []string) []string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil
	}
	var cands []candidate
	for _, k := range known {
		dist := levenshtein.ComputeDistance(name, k)
		if dist > levenshteinLimit(len(k)) {
			continue
		}
		cands = append(cands, candidate{name: k, dist: dist})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist == cands[j].dist {
			return cands[i].name < cands[j].name
		}
		return cands[i].dist < cands[j].dist
	})
	out := make([]string, 0, 3)
	for _, c := range cands {
		out = append(out, c.name)
		if len(out) == 3 {
			break
		}
	}
	return out
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// turnPage flips the paginated pane named by arg and refreshes the Gui.
func turnPage(forward bool) Action {
	return func(ev *gui.ActivationEvent, arg string) {
		if ev.Gui == nil {
			return
		}
		p, ok := ev.Gui.FindPane(arg).(*gui.PaginatedPane)
		if !ok {
			return
		}
		var moved bool
		if forward {
			moved = p.NextPage()
		} else {
			moved = p.PrevPage()
		}
		if moved {
			ev.Gui.Update()
		}
	}
}

type visibilitySetter interface {
	Visible() bool
	SetVisible(bool)
}

func togglePane(ev *gui.ActivationEvent, arg string) {
	if ev.Gui == nil {
		return
	}
	p, ok := ev.Gui.FindPane(arg).(visibilitySetter)
	if !ok {
		return
	}
	p.SetVisible(!p.Visible())
	ev.Gui.Update()
}
