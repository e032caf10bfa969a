package world

import (
	"survivalsim.ai/internal/sim/grid"
	"survivalsim.ai/internal/sim/world/logic/mathx"
)

// regrowSalt separates regrowth draws from any other use of the seed.
const regrowSalt = 0x6d6f6f6e

// FinishStep removes every member whose cell no longer holds a live creature
// of its species (food below zero or a desynced roster entry) and clears
// the cell. It runs once after all creatures of all species have acted.
func (w *World) FinishStep() []Death {
	var deaths []Death
	for _, s := range w.species {
		deaths = append(deaths, s.removeDead()...)
	}
	for _, d := range deaths {
		w.stats.recordDeath(d)
	}
	return deaths
}

// FinishMoon applies the moon boundary: every creature pays MoonDecay food,
// every eaten bush regrows with probability 1-ChanceRegrow, then cleanup
// runs again since decay can push food negative.
//
// Regrowth of each bush is drawn from a hash of (seed, x, y, moon), so the
// outcome does not depend on scan order.
func (w *World) FinishMoon() MoonLogEntry {
	moon := w.moon
	decay := w.cfg.Rules.MoonDecay
	seed := w.cfg.Seed ^ regrowSalt

	w.grid.Each(func(p grid.Pos, t grid.Tile) {
		switch t.Kind {
		case grid.KindBush:
			if t.HasFood {
				return
			}
			if mathx.Unit(mathx.Hash3(seed, int(p.X), int(p.Y), int(moon))) >= w.cfg.ChanceRegrow {
				w.grid.Set(p, grid.Bush(true))
			}
		case grid.KindCreature:
			t.Food -= decay
			w.grid.Set(p, t)
		}
	})

	deaths := w.FinishStep()
	w.moon++
	w.stats.Moons++

	entry := MoonLogEntry{
		Moon:    moon,
		EndTick: w.tick.Load(),
		Deaths:  deaths,
		Extinct: w.Extinct(),
	}
	for _, s := range w.species {
		entry.Species = append(entry.Species, w.speciesSummary(s))
	}
	entry.Bushes = w.bushSummary()
	return entry
}

// Extinct reports whether every species roster is empty.
func (w *World) Extinct() bool {
	for _, s := range w.species {
		if s.Len() > 0 {
			return false
		}
	}
	return true
}

func (w *World) speciesSummary(s *Species) SpeciesSummary {
	out := SpeciesSummary{ID: s.id, Name: s.name, Population: s.Len()}
	for _, p := range s.members {
		out.TotalFood += w.grid.At(p).Food
	}
	return out
}

func (w *World) bushSummary() BushSummary {
	var b BushSummary
	w.grid.Each(func(_ grid.Pos, t grid.Tile) {
		switch {
		case t.Kind == grid.KindBush && t.HasFood:
			b.Fed++
		case t.Kind == grid.KindBush:
			b.Eaten++
		case t.Kind == grid.KindWall:
			b.Walls++
		}
	})
	return b
}
