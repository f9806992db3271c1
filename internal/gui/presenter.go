package gui

import (
	"fmt"
	"sort"
)

// Presenter makes a rendered layout visible to a viewer. top always holds
// the full top container. personal is nil when the layout does not occupy
// the personal region, in which case the viewer's own items must be left
// untouched.
type Presenter interface {
	Materialize(v Viewer, title string, top Slots, personal Slots) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(v Viewer, title string, top Slots, personal Slots) error

// Materialize calls f.
func (f PresenterFunc) Materialize(v Viewer, title string, top Slots, personal Slots) error {
	return f(v, title, top, personal)
}

// Presenters maps client versions to the presenter that serves them.
// Hosts build one at startup and register every supported version.
type Presenters struct {
	byVersion map[string]Presenter
}

// NewPresenters creates an empty table.
func NewPresenters() *Presenters {
	return &Presenters{byVersion: make(map[string]Presenter)}
}

// Register adds p under version.
func (t *Presenters) Register(version string, p Presenter) error {
	if version == "" || p == nil {
		return fmt.Errorf("gui: presenter registration needs a version and a presenter")
	}
	if _, exists := t.byVersion[version]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePresenter, version)
	}
	t.byVersion[version] = p
	return nil
}

// Lookup returns the presenter for version.
func (t *Presenters) Lookup(version string) (Presenter, error) {
	p, exists := t.byVersion[version]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPresenter, version)
	}
	return p, nil
}

// Versions lists registered versions in sorted order.
func (t *Presenters) Versions() []string {
	out := make([]string, 0, len(t.byVersion))
	for v := range t.byVersion {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
