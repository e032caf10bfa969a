package grid

import "fmt"

// Grid is a fixed W x H tile store in row-major order. It holds no creature
// identity; species rosters live elsewhere and point into it.
//
// Grid is not safe for concurrent mutation. The world loop is its only writer.
type Grid struct {
	w, h  int
	tiles []Tile
}

// New returns an all-Empty grid. Dimensions are fixed for the grid's lifetime.
func New(w, h int) *Grid {
	if w <= 0 || h <= 0 {
		panic(fmt.Sprintf("grid: invalid size %dx%d", w, h))
	}
	return &Grid{w: w, h: h, tiles: make([]Tile, w*h)}
}

func (g *Grid) Width() int  { return g.w }
func (g *Grid) Height() int { return g.h }

func (g *Grid) Contains(p Pos) bool {
	return uint64(p.X) < uint64(g.w) && uint64(p.Y) < uint64(g.h)
}

func (g *Grid) ContainsSigned(p SPos) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.w && p.Y < g.h
}

// At returns the tile at p, or OutOfBounds if p lies past the grid edge.
func (g *Grid) At(p Pos) Tile {
	if !g.Contains(p) {
		return OutOfBounds()
	}
	return g.tiles[int(p.Y)*g.w+int(p.X)]
}

// Lookup is At for signed positions; negative components are out of bounds.
func (g *Grid) Lookup(p SPos) Tile {
	if !g.ContainsSigned(p) {
		return OutOfBounds()
	}
	return g.tiles[p.Y*g.w+p.X]
}

// Set stores t at p. Callers must only write positions known to be in bounds:
// an out-of-range write is a programming error and panics. The OutOfBounds
// sentinel is never stored.
func (g *Grid) Set(p Pos, t Tile) {
	if !g.Contains(p) {
		panic(fmt.Sprintf("grid: set %s outside %dx%d", p, g.w, g.h))
	}
	if t.Kind == KindOutOfBounds {
		panic(fmt.Sprintf("grid: cannot store OutOfBounds at %s", p))
	}
	g.tiles[int(p.Y)*g.w+int(p.X)] = t
}

// Each visits every cell in row-major order.
func (g *Grid) Each(fn func(p Pos, t Tile)) {
	for i, t := range g.tiles {
		fn(Pos{X: uint32(i % g.w), Y: uint32(i / g.w)}, t)
	}
}

func (g *Grid) Count(match func(Tile) bool) int {
	n := 0
	for _, t := range g.tiles {
		if match(t) {
			n++
		}
	}
	return n
}
