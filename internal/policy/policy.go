// Package policy holds in-process world.Policy implementations.
package policy

import (
	"context"
	"fmt"
	"sync"

	"survivalsim.ai/internal/sim/grid"
	"survivalsim.ai/internal/sim/world"
	"survivalsim.ai/internal/sim/world/logic/mathx"
)

// Random picks uniformly among the legal actions. Draws come from a hash of
// (seed, tick, species, member), so the choice does not depend on how many
// decisions were asked before.
type Random struct {
	Seed int64
}

func (r Random) Decide(_ context.Context, d world.Decision) (world.Action, error) {
	acts := d.State.Actions()
	h := mathx.Hash3(r.Seed, int(d.Tick), d.Species<<20|d.Member, 0x5eed)
	return acts[int(h%uint64(len(acts)))], nil
}

// Forager is a scripted greedy policy: eat an adjacent fed bush, otherwise
// step toward the nearest fed bush in view, otherwise wander.
type Forager struct {
	Seed int64
	// Aggressive foragers also attack adjacent creatures of other species.
	Aggressive bool
}

func (f Forager) Decide(ctx context.Context, d world.Decision) (world.Action, error) {
	st := d.State
	for _, dir := range grid.Directions {
		if t := st.View.Neighbor(dir); t.Kind == grid.KindBush && t.HasFood {
			return world.Attack(dir), nil
		}
	}
	if f.Aggressive {
		for _, dir := range grid.Directions {
			if t := st.View.Neighbor(dir); t.IsCreature() && t.Species != d.Species {
				return world.Attack(dir), nil
			}
		}
	}

	r := st.View.Radius
	found, bx, by := false, 0, 0
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			t := st.View.Rel(dx, dy)
			if t.Kind != grid.KindBush || !t.HasFood {
				continue
			}
			if !found || mathx.AbsInt(dx)+mathx.AbsInt(dy) < mathx.AbsInt(bx)+mathx.AbsInt(by) {
				found, bx, by = true, dx, dy
			}
		}
	}
	if found {
		for _, dir := range towards(bx, by) {
			if st.Legal(world.Move(dir)) {
				return world.Move(dir), nil
			}
		}
	}
	return Random{Seed: f.Seed}.Decide(ctx, d)
}

// towards lists the unit steps that reduce |dx|+|dy|, larger axis first.
func towards(dx, dy int) []grid.Dir {
	var h, v []grid.Dir
	switch {
	case dx > 0:
		h = []grid.Dir{grid.East}
	case dx < 0:
		h = []grid.Dir{grid.West}
	}
	switch {
	case dy > 0:
		v = []grid.Dir{grid.South}
	case dy < 0:
		v = []grid.Dir{grid.North}
	}
	if mathx.AbsInt(dy) > mathx.AbsInt(dx) {
		return append(v, h...)
	}
	return append(h, v...)
}

// Replay feeds actions recorded in a tick log back to the engine. Decisions
// not covered by the recording get DoNothing.
type Replay struct {
	mu      sync.Mutex
	actions map[replayKey]world.Action
}

type replayKey struct {
	tick    uint64
	species int
	member  int
}

func NewReplay() *Replay {
	return &Replay{actions: map[replayKey]world.Action{}}
}

func (r *Replay) Add(e world.TickLogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range e.Actions {
		r.actions[replayKey{e.Tick, a.Species, a.Member}] = a.Action
	}
}

func (r *Replay) Decide(_ context.Context, d world.Decision) (world.Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := replayKey{d.Tick, d.Species, d.Member}
	a, ok := r.actions[k]
	if !ok {
		return world.DoNothing(), nil
	}
	delete(r.actions, k)
	return a, nil
}

// Pending is the number of recorded actions not yet replayed.
func (r *Replay) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actions)
}

// ByName builds the in-process policy for a tuning policy name. "remote"
// is not handled here; the server wires those to the WebSocket transport.
func ByName(name string, seed int64) (world.Policy, error) {
	switch name {
	case "", "idle":
		return world.Idle, nil
	case "random":
		return Random{Seed: seed}, nil
	case "forager":
		return Forager{Seed: seed}, nil
	case "hunter":
		return Forager{Seed: seed, Aggressive: true}, nil
	}
	return nil, fmt.Errorf("policy: unknown policy %q", name)
}
