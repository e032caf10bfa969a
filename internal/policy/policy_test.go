package policy

import (
	"context"
	"testing"

	"survivalsim.ai/internal/sim/grid"
	"survivalsim.ai/internal/sim/world"
)

func testWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.New(world.Config{Width: 9, Height: 9, Seed: 2, Species: []world.SpeciesConfig{{Name: "a"}, {Name: "b"}}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return w
}

func decisionFor(t *testing.T, w *world.World, species int) world.Decision {
	t.Helper()
	c := w.Cursor(species)
	if !c.Next() {
		t.Fatalf("no members")
	}
	st, err := c.State()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	return world.Decision{Tick: w.CurrentTick(), Species: species, Member: c.Index(), State: st}
}

func TestRandom_LegalAndDeterministic(t *testing.T) {
	w := testWorld(t)
	if _, err := w.PlaceCreature(0, grid.Pos{X: 4, Y: 4}, 1); err != nil {
		t.Fatalf("place: %v", err)
	}
	d := decisionFor(t, w, 0)
	r := Random{Seed: 7}
	for tick := uint64(0); tick < 50; tick++ {
		d.Tick = tick
		a, _ := r.Decide(context.Background(), d)
		b, _ := r.Decide(context.Background(), d)
		if a != b {
			t.Fatalf("tick %d: %s != %s", tick, a, b)
		}
		if !d.State.Legal(a) {
			t.Fatalf("illegal pick %s", a)
		}
	}
}

func TestForager_EatsAdjacentBush(t *testing.T) {
	w := testWorld(t)
	_, _ = w.PlaceCreature(0, grid.Pos{X: 4, Y: 4}, 0)
	_ = w.PlaceTile(grid.Pos{X: 4, Y: 5}, grid.Bush(true))

	a, err := Forager{}.Decide(context.Background(), decisionFor(t, w, 0))
	if err != nil || a != world.Attack(grid.South) {
		t.Fatalf("action=%s err=%v", a, err)
	}
}

func TestForager_WalksTowardBush(t *testing.T) {
	w := testWorld(t)
	_, _ = w.PlaceCreature(0, grid.Pos{X: 4, Y: 4}, 0)
	_ = w.PlaceTile(grid.Pos{X: 1, Y: 3}, grid.Bush(true))
	_ = w.PlaceTile(grid.Pos{X: 4, Y: 7}, grid.Bush(false))

	a, _ := Forager{}.Decide(context.Background(), decisionFor(t, w, 0))
	if a != world.Move(grid.West) {
		t.Fatalf("action=%s want MOVE W", a)
	}
}

func TestForager_AggressiveAttacksOthers(t *testing.T) {
	w := testWorld(t)
	_, _ = w.PlaceCreature(0, grid.Pos{X: 4, Y: 4}, 0)
	_, _ = w.PlaceCreature(1, grid.Pos{X: 5, Y: 4}, 0)

	a, _ := Forager{Aggressive: true}.Decide(context.Background(), decisionFor(t, w, 0))
	if a != world.Attack(grid.East) {
		t.Fatalf("action=%s want ATTACK E", a)
	}
	d := decisionFor(t, w, 0)
	a, _ = Forager{}.Decide(context.Background(), d)
	if !d.State.Legal(a) {
		t.Fatalf("illegal pick %s", a)
	}
}

func TestReplay(t *testing.T) {
	r := NewReplay()
	r.Add(world.TickLogEntry{Tick: 3, Actions: []world.RecordedAction{
		{Species: 0, Member: 1, Action: world.Move(grid.North)},
	}})
	if r.Pending() != 1 {
		t.Fatalf("pending=%d", r.Pending())
	}
	a, _ := r.Decide(context.Background(), world.Decision{Tick: 3, Species: 0, Member: 1})
	if a != world.Move(grid.North) {
		t.Fatalf("action=%s", a)
	}
	a, _ = r.Decide(context.Background(), world.Decision{Tick: 3, Species: 0, Member: 1})
	if a != world.DoNothing() || r.Pending() != 0 {
		t.Fatalf("second decide=%s pending=%d", a, r.Pending())
	}
}

func TestByName(t *testing.T) {
	for _, n := range []string{"", "idle", "random", "forager", "hunter"} {
		if _, err := ByName(n, 1); err != nil {
			t.Fatalf("%q: %v", n, err)
		}
	}
	if _, err := ByName("remote", 1); err == nil {
		t.Fatalf("remote must not resolve in-process")
	}
}
