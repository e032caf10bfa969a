package world

import (
	"fmt"
	"image/color"

	"survivalsim.ai/internal/sim/grid"
)

// Species is a roster of creature positions sharing an id and color. It is
// the only writer of grid cells on behalf of its members. The grid is owned
// by the World; a Species only holds a reference to it.
//
// Member order is stable within a step: index i is "creature i" for both
// state extraction and action application. Members are removed only by
// World cleanup.
type Species struct {
	id    int
	name  string
	color color.RGBA
	rules Rules

	grid    *grid.Grid
	members []grid.Pos
}

func newSpecies(id int, cfg SpeciesConfig, g *grid.Grid, rules Rules) *Species {
	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("species_%d", id)
	}
	return &Species{id: id, name: name, color: cfg.Color, rules: rules, grid: g}
}

func (s *Species) ID() int            { return s.id }
func (s *Species) Name() string       { return s.name }
func (s *Species) Color() color.RGBA  { return s.color }
func (s *Species) Len() int           { return len(s.members) }
func (s *Species) Pos(i int) grid.Pos { return s.members[i] }

// Members returns a copy of the roster.
func (s *Species) Members() []grid.Pos {
	out := make([]grid.Pos, len(s.members))
	copy(out, s.members)
	return out
}

// creature resolves member i to its grid position and tile, checking that
// the roster and the grid still agree.
func (s *Species) creature(i int) (grid.Pos, grid.Tile, error) {
	if i < 0 || i >= len(s.members) {
		return grid.Pos{}, grid.Tile{}, &InvariantError{Species: s.id, Member: i, Detail: fmt.Sprintf("member index out of range (len=%d)", len(s.members))}
	}
	p := s.members[i]
	t := s.grid.At(p)
	if !t.IsCreatureOf(s.id) {
		return p, t, &InvariantError{Species: s.id, Member: i, Pos: p, Found: t, Detail: "roster does not point at a creature of this species"}
	}
	return p, t, nil
}

// Food returns member i's food balance.
func (s *Species) Food(i int) (int, error) {
	_, t, err := s.creature(i)
	if err != nil {
		return 0, err
	}
	return t.Food, nil
}

// View returns the window of the given radius centered on member i.
func (s *Species) View(i, radius int) (grid.View, error) {
	p, _, err := s.creature(i)
	if err != nil {
		return grid.View{}, err
	}
	return s.grid.Window(p.Signed(), radius), nil
}

// HandleAction applies a on behalf of member i. Every call either mutates
// exactly the cells the action names or is a deliberate no-op. Actions the
// current grid does not allow return ErrIllegalAction and change nothing.
func (s *Species) HandleAction(a Action, i int) error {
	p, self, err := s.creature(i)
	if err != nil {
		return err
	}
	if a.Kind == ActDoNothing {
		return nil
	}
	if !a.Dir.Valid() {
		return fmt.Errorf("%w: %s: direction must be an orthogonal unit step", ErrIllegalAction, a)
	}

	target := p.Add(a.Dir)
	tt := s.grid.Lookup(target)

	switch a.Kind {
	case ActMove:
		if !tt.IsEmpty() {
			return fmt.Errorf("%w: %s from %s into %s", ErrIllegalAction, a, p, tt)
		}
		tp, _ := target.Unsigned()
		s.grid.Set(tp, self)
		s.grid.Set(p, grid.Empty())
		s.members[i] = tp
		return nil

	case ActAttack:
		return s.attack(p, self, target, tt)

	case ActBuildWall:
		if tt.Kind == grid.KindOutOfBounds {
			return nil
		}
		if !tt.IsEmpty() {
			return fmt.Errorf("%w: %s from %s into %s", ErrIllegalAction, a, p, tt)
		}
		cost := s.rules.buildCost()
		if self.Food < cost {
			return fmt.Errorf("%w: %s with food %d (cost %d)", ErrIllegalAction, a, self.Food, cost)
		}
		tp, _ := target.Unsigned()
		self.Food -= cost
		s.grid.Set(p, self)
		s.grid.Set(tp, grid.Wall(s.id, s.color))
		return nil
	}
	return fmt.Errorf("%w: unknown action kind %d", ErrIllegalAction, a.Kind)
}

func (s *Species) attack(p grid.Pos, self grid.Tile, target grid.SPos, tt grid.Tile) error {
	switch tt.Kind {
	case grid.KindBush:
		if !tt.HasFood {
			return nil
		}
		tp, _ := target.Unsigned()
		s.grid.Set(tp, grid.Bush(false))
		self.Food += s.rules.AttackGain
		s.grid.Set(p, self)
	case grid.KindWall:
		tp, _ := target.Unsigned()
		s.grid.Set(tp, grid.Empty())
	case grid.KindCreature:
		if tt.Food < 0 {
			return nil
		}
		tp, _ := target.Unsigned()
		tt.Food -= s.rules.AttackDamage
		s.grid.Set(tp, tt)
		self.Food += s.rules.AttackGain
		s.grid.Set(p, self)
	}
	// Empty, OutOfBounds and dead-creature targets are no-ops.
	return nil
}

func (s *Species) add(p grid.Pos) { s.members = append(s.members, p) }

// removeDead drops every member that no longer holds a live creature of this
// species, clearing its cell. Indices are collected first and removed
// highest-first so pending indices never shift.
func (s *Species) removeDead() []Death {
	var dead []int
	var out []Death
	for i, p := range s.members {
		t := s.grid.At(p)
		switch {
		case !t.IsCreatureOf(s.id):
			dead = append(dead, i)
			out = append(out, Death{Species: s.id, Member: i, Pos: p, Reason: DeathDesync})
		case t.Food < 0:
			dead = append(dead, i)
			out = append(out, Death{Species: s.id, Member: i, Pos: p, Food: t.Food, Reason: DeathNoFood})
		}
	}
	for k := len(dead) - 1; k >= 0; k-- {
		i := dead[k]
		p := s.members[i]
		if t := s.grid.At(p); t.IsCreatureOf(s.id) {
			s.grid.Set(p, grid.Empty())
		}
		s.members = append(s.members[:i], s.members[i+1:]...)
	}
	return out
}
