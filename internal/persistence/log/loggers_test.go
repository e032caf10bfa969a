package log

import (
	"path/filepath"
	"testing"
	"time"

	"survivalsim.ai/internal/sim/grid"
	"survivalsim.ai/internal/sim/world"
)

func TestTickLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	for i := uint64(0); i < 3; i++ {
		e := world.TickLogEntry{
			Tick:    i,
			Actions: []world.RecordedAction{{Species: 0, Member: int(i), Action: world.Move(grid.East)}},
			Digest:  "d",
		}
		if err := l.WriteTick(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var got []world.TickLogEntry
	if err := ReadTicks(dir, func(e world.TickLogEntry) error { got = append(got, e); return nil }); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("entries=%d want 3", len(got))
	}
	if got[2].Tick != 2 || got[2].Actions[0].Member != 2 || got[2].Actions[0].Action != world.Move(grid.East) {
		t.Fatalf("entry=%+v", got[2])
	}
}

func TestWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "x")
	now := time.Date(2026, 1, 2, 3, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }
	_ = w.Write(map[string]int{"a": 1})
	now = now.Add(2 * time.Minute)
	_ = w.Write(map[string]int{"a": 2})
	_ = w.Write(map[string]int{"a": 3})
	_ = w.Close()

	files, err := Files(dir)
	if err != nil || len(files) != 2 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	if filepath.Base(files[0]) != "x-2026-01-02-03.jsonl.zst" {
		t.Fatalf("first=%s", files[0])
	}
	n := 0
	for _, f := range files {
		_ = ReadJSONL(f, func(map[string]int) error { n++; return nil })
	}
	if n != 3 {
		t.Fatalf("lines=%d want 3", n)
	}
}

func TestMoonLogger(t *testing.T) {
	dir := t.TempDir()
	l := NewMoonLogger(dir)
	_ = l.WriteMoon(world.MoonLogEntry{Moon: 4, Species: []world.SpeciesSummary{{Name: "a", Population: 2}}})
	_ = l.Close()
	files, _ := Files(filepath.Join(dir, "moons"))
	if len(files) != 1 {
		t.Fatalf("files=%v", files)
	}
	var got world.MoonLogEntry
	_ = ReadJSONL(files[0], func(e world.MoonLogEntry) error { got = e; return nil })
	if got.Moon != 4 || got.Species[0].Population != 2 {
		t.Fatalf("got=%+v", got)
	}
}
