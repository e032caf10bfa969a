package world

import "survivalsim.ai/internal/sim/grid"

// State is what a policy sees for one creature: the window around it, its
// food, and the steps left until the moon ends (and it has to eat).
type State struct {
	View     grid.View
	Food     int
	TimeLeft int

	// BuildCost is the food a wall costs; BuildWall is only offered when
	// Food covers it.
	BuildCost int
}

// Actions enumerates the legal actions for s. Directions are visited in
// grid.Directions order. DoNothing is offered only when nothing else is.
func (s State) Actions() []Action {
	var out []Action
	cost := s.BuildCost
	if cost < 1 {
		cost = 1
	}
	for _, d := range grid.Directions {
		t := s.View.Neighbor(d)
		if t.IsEmpty() {
			out = append(out, Move(d))
			if s.Food >= cost {
				out = append(out, BuildWall(d))
			}
		}
		if t.Attackable() {
			out = append(out, Attack(d))
		}
	}
	if len(out) == 0 {
		out = append(out, DoNothing())
	}
	return out
}

// Legal reports whether a is among s.Actions().
func (s State) Legal(a Action) bool {
	for _, x := range s.Actions() {
		if x == a {
			return true
		}
	}
	return false
}

// Reward is (RewardBase - food) * -(time_left), scaled.
func (s State) Reward(r Rules) float64 {
	return (r.RewardBase - float64(s.Food)) * -float64(s.TimeLeft) * r.RewardScale
}

// Features is the fixed-size policy input: the view encoding followed by
// the food and time-left scalars.
func (s State) Features() []float64 {
	f := s.View.Features()
	return append(f, float64(s.Food), float64(s.TimeLeft))
}

// FeatureLen is len(State.Features()) for a view of the given radius.
func FeatureLen(radius int) int {
	side := 2*radius + 1
	return 2*side*side + 2
}
