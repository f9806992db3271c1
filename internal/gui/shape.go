package gui

import "fmt"

// Section is a named rectangle of the top container.
type Section struct {
	Name       string
	Width      int
	Height     int
	SlotOffset int
}

// Shape describes a physical container: its size and the named sections
// layouts can draw into.
type Shape struct {
	Kind     string
	Size     int
	Sections []Section

	// MergePersonal extends the first section by the personal region's
	// rows, so a single pane tree spans both containers. The first section
	// must be PersonalWidth wide.
	MergePersonal bool
}

// PersonalSection names the standalone personal section of non-merged shapes.
const PersonalSection = "personal"

// MainSection names the primary section of chest-like shapes.
const MainSection = "main"

// ChestShape is a 9-wide chest with 1 to 6 rows, merged with the personal
// region.
func ChestShape(rows int) (Shape, error) {
	if rows < 1 || rows > 6 {
		return Shape{}, fmt.Errorf("%w: chest rows %d", ErrInvalidSize, rows)
	}
	return Shape{
		Kind:          "chest",
		Size:          rows * 9,
		Sections:      []Section{{Name: MainSection, Width: 9, Height: rows}},
		MergePersonal: true,
	}, nil
}

// DispenserShape is a 3x3 grid.
func DispenserShape() Shape {
	return Shape{
		Kind:     "dispenser",
		Size:     9,
		Sections: []Section{{Name: MainSection, Width: 3, Height: 3}},
	}
}

// HopperShape is a single row of five.
func HopperShape() Shape {
	return Shape{
		Kind:     "hopper",
		Size:     5,
		Sections: []Section{{Name: MainSection, Width: 5, Height: 1}},
	}
}

// FurnaceShape has ingredient, fuel and output slots.
func FurnaceShape() Shape {
	return Shape{
		Kind: "furnace",
		Size: 3,
		Sections: []Section{
			{Name: "ingredient", Width: 1, Height: 1, SlotOffset: 0},
			{Name: "fuel", Width: 1, Height: 1, SlotOffset: 1},
			{Name: "output", Width: 1, Height: 1, SlotOffset: 2},
		},
	}
}

// Validate checks that every section fits inside the container.
func (s Shape) Validate() error {
	if s.Size <= 0 || len(s.Sections) == 0 {
		return fmt.Errorf("%w: shape %q has no slots", ErrInvalidSize, s.Kind)
	}
	seen := make(map[string]bool, len(s.Sections))
	for _, sec := range s.Sections {
		if sec.Width <= 0 || sec.Height <= 0 {
			return fmt.Errorf("%w: section %q is %dx%d", ErrInvalidSize, sec.Name, sec.Width, sec.Height)
		}
		if sec.SlotOffset < 0 || sec.SlotOffset+sec.Width*sec.Height > s.Size {
			return fmt.Errorf("%w: section %q does not fit %d slots", ErrOutOfRange, sec.Name, s.Size)
		}
		if sec.Name == PersonalSection || seen[sec.Name] {
			return fmt.Errorf("gui: duplicate or reserved section name %q", sec.Name)
		}
		seen[sec.Name] = true
	}
	if s.MergePersonal && s.Sections[0].Width != PersonalWidth {
		return fmt.Errorf("%w: merged section must be %d wide", ErrInvalidSize, PersonalWidth)
	}
	return nil
}

// sectionAt finds the top section whose slot range holds slot.
func (s Shape) sectionAt(slot int) (Section, bool) {
	for _, sec := range s.Sections {
		if slot >= sec.SlotOffset && slot < sec.SlotOffset+sec.Width*sec.Height {
			return sec, true
		}
	}
	return Section{}, false
}
