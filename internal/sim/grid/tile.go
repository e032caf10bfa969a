package grid

import (
	"fmt"
	"image/color"
)

type Kind uint8

const (
	KindEmpty Kind = iota
	KindOutOfBounds
	KindBush
	KindWall
	KindCreature
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "EMPTY"
	case KindOutOfBounds:
		return "OUT_OF_BOUNDS"
	case KindBush:
		return "BUSH"
	case KindWall:
		return "WALL"
	case KindCreature:
		return "CREATURE"
	}
	return fmt.Sprintf("KIND_%d", uint8(k))
}

// Tile is the content of one cell. Which fields are meaningful depends on Kind:
//   - Bush: HasFood
//   - Wall: Species, Color (the builder's)
//   - Creature: Species, Color, Food (negative food marks a dead creature)
//
// Tiles are plain values and compare with ==.
type Tile struct {
	Kind    Kind
	HasFood bool
	Species int
	Color   color.RGBA
	Food    int
}

func Empty() Tile       { return Tile{Kind: KindEmpty} }
func OutOfBounds() Tile { return Tile{Kind: KindOutOfBounds} }

func Bush(hasFood bool) Tile { return Tile{Kind: KindBush, HasFood: hasFood} }

func Wall(species int, c color.RGBA) Tile {
	return Tile{Kind: KindWall, Species: species, Color: c}
}

func Creature(species int, c color.RGBA, food int) Tile {
	return Tile{Kind: KindCreature, Species: species, Color: c, Food: food}
}

func (t Tile) IsEmpty() bool    { return t.Kind == KindEmpty }
func (t Tile) IsCreature() bool { return t.Kind == KindCreature }

// IsCreatureOf reports whether t is a creature belonging to species.
func (t Tile) IsCreatureOf(species int) bool {
	return t.Kind == KindCreature && t.Species == species
}

// Attackable reports whether an attack into t has an effect. A creature
// whose food is already below zero is dead and waits for cleanup.
func (t Tile) Attackable() bool {
	switch t.Kind {
	case KindBush:
		return t.HasFood
	case KindWall:
		return true
	case KindCreature:
		return t.Food >= 0
	}
	return false
}

func (t Tile) String() string {
	switch t.Kind {
	case KindBush:
		return fmt.Sprintf("BUSH(%t)", t.HasFood)
	case KindWall:
		return fmt.Sprintf("WALL(s=%d)", t.Species)
	case KindCreature:
		return fmt.Sprintf("CREATURE(s=%d food=%d)", t.Species, t.Food)
	}
	return t.Kind.String()
}
