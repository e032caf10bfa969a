package grid

import "fmt"

// EncodingVersion identifies the kind codes below. Policies trained against
// one encoding cannot be reused against another, so bump it on any change.
const EncodingVersion = 1

// Kind codes of the policy-facing feature encoding.
const (
	CodeEmpty       = 0
	CodeOutOfBounds = 1
	CodeBush        = 2
	CodeWall        = 3
	CodeCreature    = 4
)

// Feature maps t to its (kind_code, metadata) pair.
func (t Tile) Feature() (kind, meta int) {
	switch t.Kind {
	case KindOutOfBounds:
		return CodeOutOfBounds, 0
	case KindBush:
		if t.HasFood {
			return CodeBush, 1
		}
		return CodeBush, 0
	case KindWall:
		return CodeWall, t.Species
	case KindCreature:
		return CodeCreature, t.Species
	}
	return CodeEmpty, 0
}

// Features flattens the view into kind/meta pairs, row-major, length 2*Len().
func (v View) Features() []float64 {
	out := make([]float64, 0, 2*len(v.tiles))
	for _, t := range v.tiles {
		k, m := t.Feature()
		out = append(out, float64(k), float64(m))
	}
	return out
}

// ViewFromFeatures rebuilds a view from the first 2*side^2 values of an
// encoded feature vector. Colors and creature food are not part of the
// encoding and come back zero.
func ViewFromFeatures(radius int, feats []float64) (View, error) {
	if radius < 0 {
		return View{}, fmt.Errorf("negative radius %d", radius)
	}
	side := 2*radius + 1
	n := side * side
	if len(feats) < 2*n {
		return View{}, fmt.Errorf("features: got %d values want at least %d", len(feats), 2*n)
	}
	v := View{Radius: radius, tiles: make([]Tile, n)}
	for i := 0; i < n; i++ {
		kind, meta := int(feats[2*i]), int(feats[2*i+1])
		switch kind {
		case CodeEmpty:
			v.tiles[i] = Empty()
		case CodeOutOfBounds:
			v.tiles[i] = OutOfBounds()
		case CodeBush:
			v.tiles[i] = Bush(meta == 1)
		case CodeWall:
			v.tiles[i] = Tile{Kind: KindWall, Species: meta}
		case CodeCreature:
			v.tiles[i] = Tile{Kind: KindCreature, Species: meta}
		default:
			return View{}, fmt.Errorf("features: cell %d has unknown kind code %d", i, kind)
		}
	}
	return v, nil
}
