package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"survivalsim.ai/internal/protocol"
	"survivalsim.ai/internal/sim/grid"
	"survivalsim.ai/internal/sim/world"
)

type session struct {
	id   string
	out  chan []byte
	acts chan protocol.ActMsg
	done chan struct{}
}

func (s *session) send(v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	select {
	case s.out <- b:
		return true
	default:
		return false
	}
}

func (s *session) sendError(code, msg string) { s.send(protocol.NewError(code, msg)) }

// Slot is the world.Policy of one remotely driven species. Decide blocks
// until the attached client answers, the decide timeout passes (DoNothing)
// or the client goes away (fallback).
type Slot struct {
	speciesID int
	name      string
	timeout   time.Duration
	fallback  world.Policy

	mu   sync.Mutex
	sess *session

	seq      atomic.Uint64
	timeouts atomic.Uint64
}

func (sl *Slot) Name() string { return sl.name }

func (sl *Slot) SetTimeout(d time.Duration) {
	if d > 0 {
		sl.timeout = d
	}
}

// Connected reports whether a client currently drives the slot.
func (sl *Slot) Connected() bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.sess != nil
}

// Timeouts counts decisions that fell back to DoNothing on timeout.
func (sl *Slot) Timeouts() uint64 { return sl.timeouts.Load() }

func (sl *Slot) attach(s *session) bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.sess != nil {
		return false
	}
	sl.sess = s
	return true
}

func (sl *Slot) detach(s *session) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.sess == s {
		sl.sess = nil
		close(s.done)
	}
}

func (sl *Slot) current() *session {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.sess
}

func (sl *Slot) Decide(ctx context.Context, d world.Decision) (world.Action, error) {
	sess := sl.current()
	if sess == nil {
		return sl.fallback.Decide(ctx, d)
	}

	seq := sl.seq.Add(1)
	msg := protocol.DecideMsg{
		Type:            protocol.TypeDecide,
		ProtocolVersion: protocol.Version,
		Seq:             seq,
		Tick:            d.Tick,
		Species:         d.Species,
		Member:          d.Member,
		Features:        d.State.Features(),
		Food:            d.State.Food,
		TimeLeft:        d.State.TimeLeft,
		Reward:          d.Reward,
	}
	for _, a := range d.State.Actions() {
		msg.Legal = append(msg.Legal, FromAction(a))
	}
	if !sess.send(msg) {
		return world.DoNothing(), nil
	}

	timer := time.NewTimer(sl.timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return world.DoNothing(), ctx.Err()
		case <-sess.done:
			return sl.fallback.Decide(ctx, d)
		case <-timer.C:
			sl.timeouts.Add(1)
			return world.DoNothing(), nil
		case act := <-sess.acts:
			if act.Seq != seq || act.Member != d.Member {
				sess.sendError(protocol.ErrStale, fmt.Sprintf("seq %d is not the open decision %d", act.Seq, seq))
				continue
			}
			a, err := ToAction(act.Action)
			if err != nil {
				sess.sendError(protocol.ErrBadRequest, err.Error())
				return world.DoNothing(), nil
			}
			if !d.State.Legal(a) {
				// Still handed to the engine, which rejects and counts it.
				sess.sendError(protocol.ErrIllegalAction, a.String())
			}
			return a, nil
		}
	}
}

func ToAction(r protocol.ActionRef) (world.Action, error) {
	k, ok := world.ParseActionKind(r.Type)
	if !ok {
		return world.Action{}, fmt.Errorf("unknown action type %q", r.Type)
	}
	if k == world.ActDoNothing {
		return world.DoNothing(), nil
	}
	d := grid.Dir{DX: r.DX, DY: r.DY}
	if !d.Valid() {
		return world.Action{}, fmt.Errorf("bad direction (%d,%d)", r.DX, r.DY)
	}
	return world.Action{Kind: k, Dir: d}, nil
}

func FromAction(a world.Action) protocol.ActionRef {
	r := protocol.ActionRef{Type: a.Kind.String()}
	if a.Kind != world.ActDoNothing {
		r.DX, r.DY = a.Dir.DX, a.Dir.DY
	}
	return r
}
