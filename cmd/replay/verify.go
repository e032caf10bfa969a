package main

import (
	"context"
	"fmt"

	"survivalsim.ai/internal/policy"
	"survivalsim.ai/internal/sim/world"
)

type mismatch struct {
	Tick uint64
	Want string
	Got  string
}

type report struct {
	Verified   int
	LastTick   uint64
	LastDigest string
	Mismatch   *mismatch
}

// verify steps w once per recorded tick, feeding back the recorded actions,
// and compares each resulting digest with the logged one. It stops at the
// first mismatch. Entries must start at w's current tick and be contiguous.
func verify(ctx context.Context, w *world.World, entries []world.TickLogEntry) (report, error) {
	var rep report
	rp := policy.NewReplay()
	for _, e := range entries {
		rp.Add(e)
	}
	policies := make([]world.Policy, w.NumSpecies())
	for i := range policies {
		policies[i] = rp
	}

	for _, e := range entries {
		if e.Tick != w.CurrentTick() {
			return rep, fmt.Errorf("log jumps to tick %d while world is at %d", e.Tick, w.CurrentTick())
		}
		res, err := w.Step(ctx, policies)
		if err != nil {
			return rep, fmt.Errorf("step tick=%d: %w", e.Tick, err)
		}
		rep.LastTick, rep.LastDigest = res.Tick, res.Digest
		if e.Digest != "" && res.Digest != e.Digest {
			rep.Mismatch = &mismatch{Tick: e.Tick, Want: e.Digest, Got: res.Digest}
			return rep, nil
		}
		rep.Verified++
	}
	return rep, nil
}
