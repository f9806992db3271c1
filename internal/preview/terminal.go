// Package preview draws layouts on a terminal and turns mouse clicks back
// into activations, so layout files can be tried without a game client.
package preview

import (
	"hash/fnv"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/gravitas-games/slotgui/internal/gui"
)

const (
	cellWidth = 3
	titleRow  = 0
	gridRow   = 2
)

var palette = []tcell.Color{
	tcell.ColorRed,
	tcell.ColorGreen,
	tcell.ColorYellow,
	tcell.ColorBlue,
	tcell.ColorFuchsia,
	tcell.ColorAqua,
	tcell.ColorOrange,
	tcell.ColorWhite,
}

// Terminal is a gui.Presenter that draws the last frame it was given onto
// a tcell screen. Slots are cellWidth columns wide: a glyph, an amount
// marker and a separator.
type Terminal struct {
	screen tcell.Screen
	width  int

	title    string
	top      gui.Slots
	personal gui.Slots
	own      bool // personal shows the viewer's own items
	status   string
}

// NewTerminal draws onto screen. width is the number of slots per row of
// the top container.
func NewTerminal(screen tcell.Screen, width int) *Terminal {
	if width <= 0 {
		width = gui.PersonalWidth
	}
	return &Terminal{screen: screen, width: width}
}

// Materialize implements gui.Presenter. A nil personal frame means the
// viewer's own inventory is on display.
func (t *Terminal) Materialize(v gui.Viewer, title string, top gui.Slots, personal gui.Slots) error {
	t.title = title
	t.top = append(gui.Slots(nil), top...)
	t.own = personal == nil
	if t.own {
		personal = gui.NewSlots(gui.PersonalSlots)
		src := v.Personal()
		for i := range personal {
			personal[i] = src.Slot(i)
		}
	}
	t.personal = append(gui.Slots(nil), personal...)
	t.Draw()
	return nil
}

// SetStatus replaces the status line and redraws.
func (t *Terminal) SetStatus(msg string) {
	t.status = msg
	t.Draw()
}

func (t *Terminal) topRows() int {
	return (len(t.top) + t.width - 1) / t.width
}

// personalRow is the screen row of logical personal row 0.
func (t *Terminal) personalRow() int {
	return gridRow + t.topRows() + 1
}

// hotbarRow leaves one blank line between storage and hotbar.
func (t *Terminal) hotbarRow() int {
	return t.personalRow() + gui.PersonalHeight
}

func (t *Terminal) statusRow() int {
	return t.hotbarRow() + 2
}

// Draw repaints the whole frame.
func (t *Terminal) Draw() {
	t.screen.Clear()
	t.drawText(0, titleRow, t.title, tcell.StyleDefault.Bold(true))

	for i, s := range t.top {
		t.drawSlot(i%t.width*cellWidth, gridRow+i/t.width, s, false)
	}
	for i, s := range t.personal {
		x, y, ok := t.personalCell(i)
		if ok {
			t.drawSlot(x, y, s, t.own)
		}
	}
	t.drawText(0, t.statusRow(), t.status, tcell.StyleDefault.Italic(true))
	t.screen.Show()
}

// personalCell returns the screen cell of personal container slot i.
func (t *Terminal) personalCell(i int) (x, y int, ok bool) {
	if i < 0 || i >= gui.PersonalSlots {
		return 0, 0, false
	}
	col := i % gui.PersonalWidth * cellWidth
	if i < gui.PersonalWidth {
		return col, t.hotbarRow(), true
	}
	return col, t.personalRow() + (i-gui.PersonalWidth)/gui.PersonalWidth, true
}

func (t *Terminal) drawSlot(x, y int, s *gui.Stack, dim bool) {
	style := tcell.StyleDefault.Dim(dim)
	glyph, count := '·', ' '
	if s != nil && s.Material != "" {
		glyph = []rune(s.Material)[0]
		style = style.Foreground(materialColor(s.Material))
		switch {
		case s.Amount > 9:
			count = '+'
		case s.Amount > 1:
			count = rune('0' + s.Amount)
		}
	}
	t.screen.SetContent(x, y, glyph, nil, style)
	t.screen.SetContent(x+1, y, count, nil, style)
	t.screen.SetContent(x+2, y, ' ', nil, tcell.StyleDefault)
}

func (t *Terminal) drawText(x, y int, text string, style tcell.Style) {
	w, _ := t.screen.Size()
	text = runewidth.Truncate(text, w-x, "…")
	for _, r := range text {
		t.screen.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}

func materialColor(material string) tcell.Color {
	h := fnv.New32a()
	h.Write([]byte(material))
	return palette[h.Sum32()%uint32(len(palette))]
}

// SlotAt maps a screen cell to a region and slot. Cells that are not on a
// slot resolve to RegionOutside.
func (t *Terminal) SlotAt(x, y int) (gui.RegionKind, int) {
	if x < 0 || x%cellWidth == cellWidth-1 {
		return gui.RegionOutside, -1
	}
	col := x / cellWidth

	if y >= gridRow && y < gridRow+t.topRows() && col < t.width {
		slot := (y-gridRow)*t.width + col
		if slot < len(t.top) {
			return gui.RegionTop, slot
		}
		return gui.RegionOutside, -1
	}
	if col >= gui.PersonalWidth {
		return gui.RegionOutside, -1
	}
	if y == t.hotbarRow() {
		return gui.RegionPersonal, col
	}
	if row := y - t.personalRow(); row >= 0 && row < gui.PersonalHeight-1 {
		return gui.RegionPersonal, gui.PersonalWidth + row*gui.PersonalWidth + col
	}
	return gui.RegionOutside, -1
}

// Activation converts a primary-button mouse event into an activation for
// v. Other events return nil.
func (t *Terminal) Activation(ev tcell.Event, v gui.Viewer) *gui.ActivationEvent {
	me, ok := ev.(*tcell.EventMouse)
	if !ok || me.Buttons()&tcell.Button1 == 0 {
		return nil
	}
	region, slot := t.SlotAt(me.Position())
	out := &gui.ActivationEvent{Viewer: v, Region: region, Slot: slot}
	switch region {
	case gui.RegionTop:
		out.Payload = t.top.Slot(slot)
	case gui.RegionPersonal:
		out.Payload = v.Personal().Slot(slot)
	}
	return out
}
