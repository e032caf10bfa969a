package world

import (
	"errors"
	"fmt"

	"survivalsim.ai/internal/sim/grid"
)

var (
	// ErrInvariant marks roster/grid desync. It signals a bug in action
	// resolution or cleanup and must abort the step.
	ErrInvariant = errors.New("world: invariant violated")

	// ErrIllegalAction is returned when a policy picks an action its state
	// did not offer (e.g. Move onto a non-empty cell). The grid is untouched.
	ErrIllegalAction = errors.New("world: illegal action")

	ErrCrowded   = errors.New("world: no room to place tiles")
	ErrBadConfig = errors.New("world: bad config")
)

type InvariantError struct {
	Species int
	Member  int
	Pos     grid.Pos
	Found   grid.Tile
	Detail  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("world: invariant violated: species=%d member=%d pos=%s found=%s: %s",
		e.Species, e.Member, e.Pos, e.Found, e.Detail)
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }
