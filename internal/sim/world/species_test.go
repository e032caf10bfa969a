package world

import (
	"context"
	"errors"
	"testing"

	"survivalsim.ai/internal/sim/grid"
)

func TestMove_IntoEmpty(t *testing.T) {
	w := emptyWorld(t, 10, 10, "a")
	place(t, w, 0, 5, 5, 1)

	step(t, w, always(Move(grid.East)))

	if got, want := w.Grid().At(grid.Pos{X: 6, Y: 5}), grid.Creature(0, red, 1); got != want {
		t.Fatalf("(6,5)=%+v want %+v", got, want)
	}
	if got := w.Grid().At(grid.Pos{X: 5, Y: 5}); !got.IsEmpty() {
		t.Fatalf("(5,5)=%s want empty", got)
	}
	if p := w.Species(0).Pos(0); p != (grid.Pos{X: 6, Y: 5}) {
		t.Fatalf("roster pos=%s", p)
	}
}

func TestMove_BlockedIsRejected(t *testing.T) {
	w := emptyWorld(t, 10, 10, "a")
	place(t, w, 0, 5, 5, 1)
	if err := w.PlaceTile(grid.Pos{X: 6, Y: 5}, grid.Wall(0, red)); err != nil {
		t.Fatalf("place wall: %v", err)
	}

	err := w.Species(0).HandleAction(Move(grid.East), 0)
	if !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("expected ErrIllegalAction, got %v", err)
	}
	res := step(t, w, always(Move(grid.East)))
	if res.Rejected != 1 || w.Stats().Rejected != 1 {
		t.Fatalf("rejected=%d stats=%d want 1", res.Rejected, w.Stats().Rejected)
	}
	if got := w.Grid().At(grid.Pos{X: 6, Y: 5}); got.Kind != grid.KindWall {
		t.Fatalf("wall replaced: %s", got)
	}
}

func TestMove_OffGridIsRejected(t *testing.T) {
	w := emptyWorld(t, 10, 10, "a")
	place(t, w, 0, 0, 0, 1)
	if err := w.Species(0).HandleAction(Move(grid.West), 0); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("expected ErrIllegalAction, got %v", err)
	}
	if got := w.Grid().At(grid.Pos{}); !got.IsCreatureOf(0) {
		t.Fatalf("creature moved: %s", got)
	}
}

func TestAttack_KillsAndCleansUp(t *testing.T) {
	w := emptyWorld(t, 10, 10, "a", "b")
	place(t, w, 0, 2, 2, 0)
	place(t, w, 1, 3, 2, 0)

	// b is dead before its turn, so its policy must never be asked.
	never := PolicyFunc(func(_ context.Context, d Decision) (Action, error) {
		t.Fatalf("dead creature asked to act: %+v", d)
		return DoNothing(), nil
	})
	res := step(t, w, always(Attack(grid.East)), never)

	if w.Species(1).Len() != 0 {
		t.Fatalf("species b len=%d want 0", w.Species(1).Len())
	}
	if got := w.Grid().At(grid.Pos{X: 3, Y: 2}); !got.IsEmpty() {
		t.Fatalf("(3,2)=%s want empty", got)
	}
	if f := foodAt(t, w, 2, 2); f != 1 {
		t.Fatalf("attacker food=%d want 1", f)
	}
	if len(res.Deaths) != 1 || res.Deaths[0].Reason != DeathNoFood || res.Deaths[0].Species != 1 {
		t.Fatalf("deaths=%+v", res.Deaths)
	}
}

func TestAttack_DeadCreaturePaysNothing(t *testing.T) {
	w := emptyWorld(t, 7, 5, "a", "b")
	place(t, w, 0, 2, 2, 0)
	place(t, w, 0, 4, 2, 0)
	place(t, w, 1, 3, 2, 0)

	if err := w.Species(0).HandleAction(Attack(grid.East), 0); err != nil {
		t.Fatalf("first attack: %v", err)
	}
	cur := w.Cursor(0)
	if !cur.Next() || !cur.Next() || cur.Index() != 1 {
		t.Fatalf("cursor did not reach member 1")
	}
	st, err := cur.State()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.Legal(Attack(grid.West)) {
		t.Fatalf("dead creature offered as a target: %v", st.Actions())
	}
	if err := w.Species(0).HandleAction(Attack(grid.West), 1); err != nil {
		t.Fatalf("second attack: %v", err)
	}
	if f := foodAt(t, w, 2, 2); f != 1 {
		t.Fatalf("first attacker food=%d want 1", f)
	}
	if f := foodAt(t, w, 4, 2); f != 0 {
		t.Fatalf("second attacker food=%d want 0", f)
	}
	if f := foodAt(t, w, 3, 2); f != -1 {
		t.Fatalf("defender food=%d want -1", f)
	}
}

func TestAttack_FlankedInOneStep(t *testing.T) {
	w := emptyWorld(t, 7, 5, "a", "b")
	place(t, w, 0, 2, 2, 0)
	place(t, w, 0, 4, 2, 0)
	place(t, w, 1, 3, 2, 0)

	pincer := PolicyFunc(func(_ context.Context, d Decision) (Action, error) {
		if d.Member == 0 {
			return Attack(grid.East), nil
		}
		return Attack(grid.West), nil
	})
	step(t, w, pincer, Idle)

	if w.Species(1).Len() != 0 {
		t.Fatalf("species b len=%d want 0", w.Species(1).Len())
	}
	if total := foodAt(t, w, 2, 2) + foodAt(t, w, 4, 2); total != 1 {
		t.Fatalf("attackers gained %d food from a food-0 defender, want 1", total)
	}
}

func TestAttack_Bush(t *testing.T) {
	w := emptyWorld(t, 5, 5, "a")
	place(t, w, 0, 1, 1, 0)
	_ = w.PlaceTile(grid.Pos{X: 1, Y: 2}, grid.Bush(true))

	if err := w.Species(0).HandleAction(Attack(grid.South), 0); err != nil {
		t.Fatalf("attack bush: %v", err)
	}
	if f := foodAt(t, w, 1, 1); f != 1 {
		t.Fatalf("food=%d want 1", f)
	}
	if got := w.Grid().At(grid.Pos{X: 1, Y: 2}); got.Kind != grid.KindBush || got.HasFood {
		t.Fatalf("bush=%s want eaten", got)
	}

	// An eaten bush gives nothing.
	if err := w.Species(0).HandleAction(Attack(grid.South), 0); err != nil {
		t.Fatalf("attack eaten bush: %v", err)
	}
	if f := foodAt(t, w, 1, 1); f != 1 {
		t.Fatalf("food=%d want 1 after eaten bush", f)
	}
}

func TestAttack_WallAndEmpty(t *testing.T) {
	w := emptyWorld(t, 5, 5, "a")
	place(t, w, 0, 1, 1, 3)
	_ = w.PlaceTile(grid.Pos{X: 2, Y: 1}, grid.Wall(0, red))

	if err := w.Species(0).HandleAction(Attack(grid.East), 0); err != nil {
		t.Fatalf("attack wall: %v", err)
	}
	if got := w.Grid().At(grid.Pos{X: 2, Y: 1}); !got.IsEmpty() {
		t.Fatalf("wall not broken: %s", got)
	}
	if err := w.Species(0).HandleAction(Attack(grid.North), 0); err != nil {
		t.Fatalf("attack empty: %v", err)
	}
	if f := foodAt(t, w, 1, 1); f != 3 {
		t.Fatalf("food=%d want 3", f)
	}
}

func TestBuildWall(t *testing.T) {
	w := emptyWorld(t, 5, 5, "a")
	place(t, w, 0, 2, 2, 1)

	if err := w.Species(0).HandleAction(BuildWall(grid.North), 0); err != nil {
		t.Fatalf("build: %v", err)
	}
	wall := w.Grid().At(grid.Pos{X: 2, Y: 1})
	if wall.Kind != grid.KindWall || wall.Species != 0 || wall.Color != red {
		t.Fatalf("wall=%+v", wall)
	}
	if f := foodAt(t, w, 2, 2); f != 0 {
		t.Fatalf("food=%d want 0", f)
	}

	if err := w.Species(0).HandleAction(BuildWall(grid.South), 0); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("build without food: %v", err)
	}
	if got := w.Grid().At(grid.Pos{X: 2, Y: 3}); !got.IsEmpty() {
		t.Fatalf("wall built without food: %s", got)
	}
}

func TestBuildWall_OutOfBoundsIsNoop(t *testing.T) {
	w := emptyWorld(t, 5, 5, "a")
	place(t, w, 0, 0, 0, 2)
	if err := w.Species(0).HandleAction(BuildWall(grid.North), 0); err != nil {
		t.Fatalf("build oob: %v", err)
	}
	if f := foodAt(t, w, 0, 0); f != 2 {
		t.Fatalf("food=%d want 2", f)
	}
}

func TestHandleAction_BadDirection(t *testing.T) {
	w := emptyWorld(t, 5, 5, "a")
	place(t, w, 0, 2, 2, 1)
	err := w.Species(0).HandleAction(Action{Kind: ActMove, Dir: grid.Dir{DX: 1, DY: 1}}, 0)
	if !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("diagonal move: %v", err)
	}
}

func TestDesync_IsInvariantAndCleaned(t *testing.T) {
	w := emptyWorld(t, 5, 5, "a")
	place(t, w, 0, 2, 2, 1)
	place(t, w, 0, 3, 3, 1)
	w.grid.Set(grid.Pos{X: 2, Y: 2}, grid.Bush(true))

	_, err := w.Species(0).Food(0)
	var inv *InvariantError
	if !errors.As(err, &inv) || !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}

	deaths := w.FinishStep()
	if len(deaths) != 1 || deaths[0].Reason != DeathDesync {
		t.Fatalf("deaths=%+v", deaths)
	}
	if got := w.Grid().At(grid.Pos{X: 2, Y: 2}); got.Kind != grid.KindBush {
		t.Fatalf("foreign cell cleared: %s", got)
	}
	if w.Species(0).Len() != 1 || w.Species(0).Pos(0) != (grid.Pos{X: 3, Y: 3}) {
		t.Fatalf("roster=%v", w.Species(0).Members())
	}
}

func TestRemoveDead_MultipleKeepsOrder(t *testing.T) {
	w := emptyWorld(t, 6, 6, "a")
	place(t, w, 0, 0, 0, -1)
	place(t, w, 0, 1, 0, 2)
	place(t, w, 0, 2, 0, -3)
	place(t, w, 0, 3, 0, 4)

	deaths := w.FinishStep()
	if len(deaths) != 2 {
		t.Fatalf("deaths=%d want 2", len(deaths))
	}
	want := []grid.Pos{{X: 1}, {X: 3}}
	got := w.Species(0).Members()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("roster=%v want %v", got, want)
	}
	for _, x := range []uint32{0, 2} {
		if c := w.Grid().At(grid.Pos{X: x}); !c.IsEmpty() {
			t.Fatalf("dead cell (%d,0)=%s", x, c)
		}
	}
}
