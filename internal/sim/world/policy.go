package world

import "context"

// Decision is one request to a policy: which creature is acting and what it
// sees. Member is the creature's roster index for this step.
type Decision struct {
	Tick    uint64
	Species int
	Member  int
	State   State
	Reward  float64
}

// Policy maps a creature's state to an action. Callers are expected to pick
// from Decision.State.Actions(); anything else is rejected by the engine
// without touching the grid.
//
// Decide is the only point where a step may block.
type Policy interface {
	Decide(ctx context.Context, d Decision) (Action, error)
}

type PolicyFunc func(ctx context.Context, d Decision) (Action, error)

func (f PolicyFunc) Decide(ctx context.Context, d Decision) (Action, error) { return f(ctx, d) }

// Idle does nothing for every creature.
var Idle Policy = PolicyFunc(func(context.Context, Decision) (Action, error) { return DoNothing(), nil })
