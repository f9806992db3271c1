package gui

import "fmt"

// PaginatedPane shows one page of child panes at a time.
type PaginatedPane struct {
	PaneBase

	pages   [][]Pane
	current int
}

// NewPaginatedPane creates a pane with a single empty page.
func NewPaginatedPane(x, y, length, height int, opts ...PaneOption) (*PaginatedPane, error) {
	base, err := newPaneBase(x, y, length, height, opts)
	if err != nil {
		return nil, err
	}
	return &PaginatedPane{PaneBase: base, pages: make([][]Pane, 1)}, nil
}

// Pages returns the number of pages.
func (p *PaginatedPane) Pages() int { return len(p.pages) }

// Page returns the current page index.
func (p *PaginatedPane) Page() int { return p.current }

// SetPage switches to page.
func (p *PaginatedPane) SetPage(page int) error {
	if page < 0 || page >= len(p.pages) {
		return fmt.Errorf("%w: page %d of %d", ErrOutOfRange, page, len(p.pages))
	}
	p.current = page
	return nil
}

// NextPage advances one page, staying on the last page.
func (p *PaginatedPane) NextPage() bool {
	if p.current+1 >= len(p.pages) {
		return false
	}
	p.current++
	return true
}

// PrevPage goes back one page, staying on the first page.
func (p *PaginatedPane) PrevPage() bool {
	if p.current == 0 {
		return false
	}
	p.current--
	return true
}

// AddPane adds child to page, growing the page list as needed.
func (p *PaginatedPane) AddPane(page int, child Pane) error {
	if page < 0 {
		return fmt.Errorf("%w: page %d", ErrOutOfRange, page)
	}
	for len(p.pages) <= page {
		p.pages = append(p.pages, nil)
	}
	p.pages[page] = append(p.pages[page], child)
	return nil
}

// DeletePage removes a page and keeps the current index in range.
func (p *PaginatedPane) DeletePage(page int) error {
	if page < 0 || page >= len(p.pages) {
		return fmt.Errorf("%w: page %d of %d", ErrOutOfRange, page, len(p.pages))
	}
	p.pages = append(p.pages[:page], p.pages[page+1:]...)
	if len(p.pages) == 0 {
		p.pages = make([][]Pane, 1)
	}
	if p.current >= len(p.pages) {
		p.current = len(p.pages) - 1
	}
	return nil
}

// Panes returns every child on every page.
func (p *PaginatedPane) Panes() []Pane {
	var out []Pane
	for _, page := range p.pages {
		out = append(out, page...)
	}
	return out
}

// Render implements Pane.
func (p *PaginatedPane) Render(dst *Region, f Frame) {
	renderChildren(&p.PaneBase, p.pages[p.current], dst, f)
}

// Dispatch implements Pane.
func (p *PaginatedPane) Dispatch(ev *ActivationEvent, at Point, f Frame) bool {
	return dispatchChildren(&p.PaneBase, p.pages[p.current], ev, at, f)
}
