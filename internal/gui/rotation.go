package gui

import "fmt"

// Rotation is a clockwise quarter-turn rotation of a square pane.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// ParseRotation validates a rotation given in degrees.
func ParseRotation(degrees int) (Rotation, error) {
	switch r := Rotation(degrees); r {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return r, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidRotation, degrees)
	}
}

// String returns the rotation in degrees.
func (r Rotation) String() string {
	return fmt.Sprintf("%d°", int(r))
}

// Inverse returns the rotation that undoes r.
func (r Rotation) Inverse() Rotation {
	switch r {
	case Rotate90:
		return Rotate270
	case Rotate270:
		return Rotate90
	default:
		return r
	}
}

// Apply maps a local cell of a length x height pane to where it is drawn
// under r. Rotations other than 0 assume length == height.
func (r Rotation) Apply(p Point, length, height int) Point {
	switch r {
	case Rotate90:
		return Point{X: height - 1 - p.Y, Y: p.X}
	case Rotate180:
		return Point{X: length - 1 - p.X, Y: height - 1 - p.Y}
	case Rotate270:
		return Point{X: p.Y, Y: length - 1 - p.X}
	default:
		return p
	}
}

// Unapply maps a drawn cell back to the local cell that produced it.
func (r Rotation) Unapply(p Point, length, height int) Point {
	return r.Inverse().Apply(p, length, height)
}
