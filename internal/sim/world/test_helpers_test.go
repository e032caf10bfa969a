package world

import (
	"context"
	"image/color"
	"testing"

	"survivalsim.ai/internal/sim/grid"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// emptyWorld builds a w x h world with no food and the given species names,
// none of which have creatures yet.
func emptyWorld(t *testing.T, w, h int, names ...string) *World {
	t.Helper()
	cfg := Config{ID: "test", Width: w, Height: h, Seed: 1}
	colors := []color.RGBA{red, blue}
	for i, n := range names {
		cfg.Species = append(cfg.Species, SpeciesConfig{Name: n, Color: colors[i%len(colors)]})
	}
	wd, err := New(cfg)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return wd
}

func place(t *testing.T, w *World, species int, x, y uint32, food int) int {
	t.Helper()
	i, err := w.PlaceCreature(species, grid.Pos{X: x, Y: y}, food)
	if err != nil {
		t.Fatalf("place creature: %v", err)
	}
	return i
}

func always(a Action) Policy {
	return PolicyFunc(func(context.Context, Decision) (Action, error) { return a, nil })
}

func step(t *testing.T, w *World, policies ...Policy) StepResult {
	t.Helper()
	res, err := w.Step(context.Background(), policies)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	return res
}

func foodAt(t *testing.T, w *World, x, y uint32) int {
	t.Helper()
	tile := w.Grid().At(grid.Pos{X: x, Y: y})
	if !tile.IsCreature() {
		t.Fatalf("no creature at (%d,%d): %s", x, y, tile)
	}
	return tile.Food
}
