package grid

import (
	"errors"
	"fmt"
)

var ErrNegativePos = errors.New("grid: negative position")

// Pos is a grid-bound position. It is only meaningful inside [0,W)x[0,H);
// Grid.At treats anything past the far edge as out of bounds.
type Pos struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

// SPos is a signed position used for arithmetic that may leave the grid,
// e.g. window extraction around a creature standing on an edge.
type SPos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Pos) Signed() SPos { return SPos{X: int(p.X), Y: int(p.Y)} }

func (p Pos) Add(d Dir) SPos {
	s := p.Signed()
	return SPos{X: s.X + d.DX, Y: s.Y + d.DY}
}

func (p Pos) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Unsigned narrows s to a Pos. It fails when either component is negative.
// Components above the uint32 range are rejected the same way.
func (s SPos) Unsigned() (Pos, error) {
	if s.X < 0 || s.Y < 0 {
		return Pos{}, fmt.Errorf("%w: (%d,%d)", ErrNegativePos, s.X, s.Y)
	}
	if uint64(s.X) > maxCoord || uint64(s.Y) > maxCoord {
		return Pos{}, fmt.Errorf("grid: position overflows: (%d,%d)", s.X, s.Y)
	}
	return Pos{X: uint32(s.X), Y: uint32(s.Y)}, nil
}

func (s SPos) Add(d Dir) SPos { return SPos{X: s.X + d.DX, Y: s.Y + d.DY} }

func (s SPos) String() string { return fmt.Sprintf("(%d,%d)", s.X, s.Y) }

const maxCoord = 1<<32 - 1

// Dir is an orthogonal unit step.
type Dir struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

var (
	East  = Dir{DX: 1, DY: 0}
	West  = Dir{DX: -1, DY: 0}
	South = Dir{DX: 0, DY: 1}
	North = Dir{DX: 0, DY: -1}
)

// Directions lists the four orthogonal directions in the order the legal
// action enumerator visits them.
var Directions = [4]Dir{East, West, South, North}

func (d Dir) Valid() bool {
	switch d {
	case East, West, South, North:
		return true
	}
	return false
}

func (d Dir) String() string {
	switch d {
	case East:
		return "E"
	case West:
		return "W"
	case South:
		return "S"
	case North:
		return "N"
	}
	return fmt.Sprintf("(%d,%d)", d.DX, d.DY)
}
