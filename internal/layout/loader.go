package layout

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gravitas-games/slotgui/internal/gui"
)

// Document is a parsed layout file.
type Document struct {
	Name     string                `yaml:"-"`
	Kind     string                `yaml:"kind"`
	Rows     int                   `yaml:"rows"`
	Title    string                `yaml:"title"`
	Sections map[string][]PaneSpec `yaml:"sections"`

	registry *Registry
}

// PaneSpec describes one pane and, for container kinds, its children.
type PaneSpec struct {
	Kind     string `yaml:"kind"`
	Name     string `yaml:"name"`
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
	Length   int    `yaml:"length"`
	Height   int    `yaml:"height"`
	Priority string `yaml:"priority"`
	Rotation int    `yaml:"rotation"`
	Hidden   bool   `yaml:"hidden"`
	Action   string `yaml:"action"` // pane-level hook

	// static
	Items []ItemSpec `yaml:"items"`
	Fill  *ItemSpec  `yaml:"fill"`

	// outline
	Orientation string `yaml:"orientation"`
	Gap         int    `yaml:"gap"`

	// group
	Panes []PaneSpec `yaml:"panes"`

	// paginated
	Pages [][]PaneSpec `yaml:"pages"`
}

// ItemSpec describes an item. X and Y are ignored by outline panes.
type ItemSpec struct {
	Key      string   `yaml:"key"`
	Material string   `yaml:"material"`
	Amount   int      `yaml:"amount"`
	Name     string   `yaml:"name"`
	Lore     []string `yaml:"lore"`
	X        int      `yaml:"x"`
	Y        int      `yaml:"y"`
	Hidden   bool     `yaml:"hidden"`
	Action   string   `yaml:"action"`
}

// Load parses a layout document and checks that it builds. A nil registry
// means NewRegistry().
func Load(r io.Reader, reg *Registry) (*Document, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("layout: empty document")
		}
		return nil, fmt.Errorf("layout: failed to parse document: %w", err)
	}
	doc.registry = reg

	discard := gui.PresenterFunc(func(gui.Viewer, string, gui.Slots, gui.Slots) error { return nil })
	if _, err := doc.Build(discard); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadFile loads a single layout file. The document is named after the
// file's base name without extension.
func LoadFile(path string, reg *Registry) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("layout: failed to open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Load(f, reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return doc, nil
}

// LoadDir loads every .yaml and .yml file in dir, keyed by document name.
func LoadDir(dir string, reg *Registry) (map[string]*Document, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("layout: bad directory %s: %w", dir, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	docs := make(map[string]*Document, len(paths))
	for _, path := range paths {
		doc, err := LoadFile(path, reg)
		if err != nil {
			return nil, err
		}
		if _, exists := docs[doc.Name]; exists {
			return nil, fmt.Errorf("%w: layout %q", ErrDuplicateName, doc.Name)
		}
		docs[doc.Name] = doc
	}
	return docs, nil
}

// Build constructs a fresh Gui from the document. The document title is
// applied before opts, so callers can override it.
func (d *Document) Build(presenter gui.Presenter, opts ...gui.Option) (*gui.Gui, error) {
	reg := d.registry
	if reg == nil {
		reg = NewRegistry()
	}
	shape, err := reg.shape(d.Kind, d.Rows)
	if err != nil {
		return nil, err
	}
	g, err := gui.New(shape, presenter, append([]gui.Option{gui.WithTitle(d.Title)}, opts...)...)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(d.Sections))
	for name := range d.Sections {
		names = append(names, name)
	}
	sort.Strings(names)

	b := &Builder{registry: reg}
	for _, name := range names {
		if _, ok := g.Section(name); !ok {
			return nil, fmt.Errorf("layout: %w: %q in %s", gui.ErrUnknownSection, name, d.Kind)
		}
		for i, spec := range d.Sections[name] {
			p, err := b.Pane(spec)
			if err != nil {
				return nil, fmt.Errorf("layout: section %q pane %d: %w", name, i, err)
			}
			if err := g.AddPaneTo(name, p); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// Builder constructs panes and items for pane factories.
type Builder struct {
	registry *Registry
}

type configurable interface {
	SetRotation(gui.Rotation) error
	SetVisible(bool)
	OnActivate(gui.ActivateFunc)
}

// Pane builds spec with its registered factory and applies the settings
// common to every pane kind.
func (b *Builder) Pane(spec PaneSpec) (gui.Pane, error) {
	factory, err := b.registry.pane(spec.Kind)
	if err != nil {
		return nil, err
	}
	p, err := factory(b, spec)
	if err != nil {
		return nil, fmt.Errorf("%s pane %q: %w", spec.Kind, spec.Name, err)
	}
	if spec.Rotation == 0 && !spec.Hidden && spec.Action == "" {
		return p, nil
	}

	c, ok := p.(configurable)
	if !ok {
		return nil, fmt.Errorf("layout: %s pane %q cannot be rotated, hidden or bound", spec.Kind, spec.Name)
	}
	if spec.Rotation != 0 {
		rot, err := gui.ParseRotation(spec.Rotation)
		if err != nil {
			return nil, err
		}
		if err := c.SetRotation(rot); err != nil {
			return nil, fmt.Errorf("%s pane %q: %w", spec.Kind, spec.Name, err)
		}
	}
	if spec.Hidden {
		c.SetVisible(false)
	}
	if spec.Action != "" {
		fn, err := b.registry.Action(spec.Action)
		if err != nil {
			return nil, err
		}
		c.OnActivate(fn)
	}
	return p, nil
}

// Item builds an item, binding its action if it names one.
func (b *Builder) Item(spec ItemSpec) (*gui.Item, error) {
	key := spec.Key
	if key == "" {
		key = spec.Material
	}
	var fn gui.ActivateFunc
	if spec.Action != "" {
		var err error
		if fn, err = b.registry.Action(spec.Action); err != nil {
			return nil, fmt.Errorf("item %q: %w", key, err)
		}
	}
	amount := spec.Amount
	if amount == 0 {
		amount = 1
	}
	it := gui.NewItem(gui.ItemKey(key), gui.Stack{
		Material: spec.Material,
		Amount:   amount,
		Name:     spec.Name,
		Lore:     spec.Lore,
	}, fn)
	if spec.Hidden {
		it.SetVisible(false)
	}
	return it, nil
}

// Options returns the construction options shared by every pane kind.
func (b *Builder) Options(spec PaneSpec) ([]gui.PaneOption, error) {
	opts := []gui.PaneOption{gui.WithName(spec.Name)}
	if spec.Priority != "" {
		pr, err := gui.ParsePriority(spec.Priority)
		if err != nil {
			return nil, err
		}
		opts = append(opts, gui.WithPriority(pr))
	}
	return opts, nil
}

func buildStatic(b *Builder, spec PaneSpec) (gui.Pane, error) {
	opts, err := b.Options(spec)
	if err != nil {
		return nil, err
	}
	p, err := gui.NewStaticPane(spec.X, spec.Y, spec.Length, spec.Height, opts...)
	if err != nil {
		return nil, err
	}
	for _, is := range spec.Items {
		it, err := b.Item(is)
		if err != nil {
			return nil, err
		}
		if err := p.AddItem(it, is.X, is.Y); err != nil {
			return nil, fmt.Errorf("item %q: %w", it.Key(), err)
		}
	}
	if spec.Fill != nil {
		filler, err := b.Item(*spec.Fill)
		if err != nil {
			return nil, err
		}
		p.Fill(filler.Copy)
	}
	return p, nil
}

func buildOutline(b *Builder, spec PaneSpec) (gui.Pane, error) {
	opts, err := b.Options(spec)
	if err != nil {
		return nil, err
	}
	orientation, err := gui.ParseOrientation(spec.Orientation)
	if err != nil {
		return nil, err
	}
	p, err := gui.NewOutlinePane(spec.X, spec.Y, spec.Length, spec.Height, orientation, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.SetGap(spec.Gap); err != nil {
		return nil, err
	}
	for _, is := range spec.Items {
		it, err := b.Item(is)
		if err != nil {
			return nil, err
		}
		p.AddItem(it)
	}
	return p, nil
}

func buildGroup(b *Builder, spec PaneSpec) (gui.Pane, error) {
	opts, err := b.Options(spec)
	if err != nil {
		return nil, err
	}
	p, err := gui.NewGroupPane(spec.X, spec.Y, spec.Length, spec.Height, opts...)
	if err != nil {
		return nil, err
	}
	for _, cs := range spec.Panes {
		child, err := b.Pane(cs)
		if err != nil {
			return nil, err
		}
		p.AddPane(child)
	}
	return p, nil
}

func buildPaginated(b *Builder, spec PaneSpec) (gui.Pane, error) {
	opts, err := b.Options(spec)
	if err != nil {
		return nil, err
	}
	p, err := gui.NewPaginatedPane(spec.X, spec.Y, spec.Length, spec.Height, opts...)
	if err != nil {
		return nil, err
	}
	for page, children := range spec.Pages {
		for _, cs := range children {
			child, err := b.Pane(cs)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", page, err)
			}
			if err := p.AddPane(page, child); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}
