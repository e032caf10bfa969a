package main

import (
	"context"
	"image/color"
	"testing"

	"survivalsim.ai/internal/policy"
	"survivalsim.ai/internal/sim/world"
)

type memTicks struct{ entries []world.TickLogEntry }

func (m *memTicks) WriteTick(e world.TickLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func replayConfig() world.Config {
	return world.Config{
		Width: 16, Height: 12, Seed: 9, MoonLen: 10, NumFood: 20, ChanceRegrow: 0.5,
		Species: []world.SpeciesConfig{
			{Name: "red", Color: color.RGBA{R: 255, A: 255}, NumCreatures: 3, NumPacks: 2, StartFood: 2},
			{Name: "blue", Color: color.RGBA{B: 255, A: 255}, NumCreatures: 3, NumPacks: 2, StartFood: 2},
		},
	}
}

func record(t *testing.T, steps int) []world.TickLogEntry {
	t.Helper()
	w, err := world.New(replayConfig())
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	log := &memTicks{}
	w.SetTickLogger(log)
	pols := []world.Policy{policy.Forager{Seed: 1, Aggressive: true}, policy.Random{Seed: 2}}
	for i := 0; i < steps; i++ {
		if _, err := w.Step(context.Background(), pols); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	return log.entries
}

func TestVerify_ReproducesDigests(t *testing.T) {
	entries := record(t, 35)
	w, _ := world.New(replayConfig())
	rep, err := verify(context.Background(), w, entries)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if rep.Mismatch != nil {
		t.Fatalf("mismatch at tick %d", rep.Mismatch.Tick)
	}
	if rep.Verified != len(entries) || rep.LastDigest != entries[len(entries)-1].Digest {
		t.Fatalf("report=%+v", rep)
	}
}

func TestVerify_DetectsTampering(t *testing.T) {
	entries := record(t, 20)
	entries[12].Digest = "deadbeef"
	w, _ := world.New(replayConfig())
	rep, err := verify(context.Background(), w, entries)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if rep.Mismatch == nil || rep.Mismatch.Tick != 12 || rep.Verified != 12 {
		t.Fatalf("report=%+v", rep)
	}
}

func TestVerify_DifferentSeedDiverges(t *testing.T) {
	entries := record(t, 5)
	cfg := replayConfig()
	cfg.Seed = 10
	w, _ := world.New(cfg)
	rep, err := verify(context.Background(), w, entries)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if rep.Mismatch == nil || rep.Mismatch.Tick != 0 {
		t.Fatalf("expected mismatch at tick 0, got %+v", rep)
	}
}

func TestVerify_Gap(t *testing.T) {
	entries := record(t, 4)
	w, _ := world.New(replayConfig())
	if _, err := verify(context.Background(), w, entries[1:]); err == nil {
		t.Fatalf("expected error for log starting past the world tick")
	}
}
