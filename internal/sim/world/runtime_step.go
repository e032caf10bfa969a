package world

import (
	"context"
	"errors"
	"fmt"
)

type StepResult struct {
	Tick     uint64
	Actions  []RecordedAction
	Rejected int
	Deaths   []Death
	// Moon is set when this step closed a moon.
	Moon    *MoonLogEntry
	Extinct bool
	Digest  string
}

// Step advances the world by one tick. Species act in roster order and,
// within a species, members act in index order; each creature's state is
// read from the live grid right before it acts, so an earlier creature's
// move is visible to later ones.
//
// policies is indexed by species id; a missing or nil entry means Idle.
// Policy errors and invariant violations abort the step and are returned.
// Illegal actions are counted in StepResult.Rejected and leave the grid
// untouched.
func (w *World) Step(ctx context.Context, policies []Policy) (StepResult, error) {
	tick := w.tick.Load()
	moon := w.moon
	res := StepResult{Tick: tick}

	for si, s := range w.species {
		if s.Len() == 0 {
			continue
		}
		pol := Idle
		if si < len(policies) && policies[si] != nil {
			pol = policies[si]
		}

		cur := w.Cursor(si)
		for cur.Next() {
			st, err := cur.State()
			if err != nil {
				return res, err
			}
			d := Decision{
				Tick:    tick,
				Species: si,
				Member:  cur.Index(),
				State:   st,
				Reward:  st.Reward(w.cfg.Rules),
			}
			act, err := pol.Decide(ctx, d)
			if err != nil {
				return res, fmt.Errorf("policy species=%d member=%d: %w", si, d.Member, err)
			}
			res.Actions = append(res.Actions, RecordedAction{Species: si, Member: d.Member, Action: act})

			if err := cur.Apply(act); err != nil {
				if errors.Is(err, ErrIllegalAction) {
					res.Rejected++
					w.stats.Rejected++
					w.logf("tick=%d species=%d member=%d rejected: %v", tick, si, d.Member, err)
					continue
				}
				return res, err
			}
		}
	}

	res.Deaths = w.FinishStep()

	w.timeLeft--
	if w.timeLeft <= 0 {
		entry := w.FinishMoon()
		res.Moon = &entry
		res.Deaths = append(res.Deaths, entry.Deaths...)
		w.timeLeft = w.cfg.MoonLen
		for _, l := range w.moonLoggers {
			if err := l.WriteMoon(entry); err != nil {
				w.logf("moon log: %v", err)
			}
		}
	}

	res.Extinct = w.Extinct()
	res.Digest = w.Digest()
	w.stats.Ticks++
	w.tick.Add(1)

	if w.tickLogger != nil {
		if err := w.tickLogger.WriteTick(TickLogEntry{
			Tick:     tick,
			Moon:     moon,
			Actions:  res.Actions,
			Rejected: res.Rejected,
			Deaths:   res.Deaths,
			Digest:   res.Digest,
		}); err != nil {
			w.logf("tick log: %v", err)
		}
	}
	return res, nil
}
