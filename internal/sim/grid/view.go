package grid

// View is a square window of side 2*Radius+1 sampled around a center.
// Cells that fell outside the grid hold OutOfBounds.
type View struct {
	Radius int
	tiles  []Tile
}

// Window extracts the view of the given radius around center. It never
// fails: any part of the window that is negative or beyond the far edge is
// filled with OutOfBounds, so a center far off the grid yields an
// all-OutOfBounds window of the same size.
func (g *Grid) Window(center SPos, radius int) View {
	if radius < 0 {
		radius = 0
	}
	side := 2*radius + 1
	v := View{Radius: radius, tiles: make([]Tile, side*side)}
	for vy := 0; vy < side; vy++ {
		for vx := 0; vx < side; vx++ {
			p := SPos{X: center.X - radius + vx, Y: center.Y - radius + vy}
			v.tiles[vy*side+vx] = g.Lookup(p)
		}
	}
	return v
}

func (v View) Side() int { return 2*v.Radius + 1 }

func (v View) Len() int { return len(v.tiles) }

// At indexes the view by window coordinates, (0,0) being the top-left cell.
func (v View) At(x, y int) Tile {
	side := v.Side()
	if x < 0 || y < 0 || x >= side || y >= side {
		return OutOfBounds()
	}
	return v.tiles[y*side+x]
}

// Rel indexes the view relative to its center.
func (v View) Rel(dx, dy int) Tile { return v.At(v.Radius+dx, v.Radius+dy) }

func (v View) Center() Tile { return v.Rel(0, 0) }

// Neighbor returns the tile one step from the center in direction d.
func (v View) Neighbor(d Dir) Tile { return v.Rel(d.DX, d.DY) }

// Tiles returns a copy of the window in row-major order.
func (v View) Tiles() []Tile {
	out := make([]Tile, len(v.tiles))
	copy(out, v.tiles)
	return out
}

// Equal reports whether two views hold the same tiles.
func (v View) Equal(o View) bool {
	if v.Radius != o.Radius || len(v.tiles) != len(o.tiles) {
		return false
	}
	for i := range v.tiles {
		if v.tiles[i] != o.tiles[i] {
			return false
		}
	}
	return true
}
