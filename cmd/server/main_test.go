package main

import (
	"errors"
	"testing"

	"survivalsim.ai/internal/sim/world"
)

type failingTickLogger struct{ calls int }

func (f *failingTickLogger) WriteTick(world.TickLogEntry) error {
	f.calls++
	return errors.New("zstd rotate failed")
}

func TestMultiTickLogger_ReturnsSinkError(t *testing.T) {
	sink := &failingTickLogger{}
	m := multiTickLogger{a: sink}

	err := m.WriteTick(world.TickLogEntry{Tick: 3})
	if err == nil || err.Error() != "zstd rotate failed" {
		t.Fatalf("err=%v", err)
	}
	if sink.calls != 1 {
		t.Fatalf("calls=%d", sink.calls)
	}
	if err := (multiTickLogger{}).WriteTick(world.TickLogEntry{}); err != nil {
		t.Fatalf("empty logger err=%v", err)
	}
}
