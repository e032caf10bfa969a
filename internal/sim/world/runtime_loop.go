package world

import (
	"context"
	"errors"
	"time"
)

type RunOptions struct {
	// StopOnExtinction ends Run once every species has died out.
	StopOnExtinction bool
	// MaxTicks ends Run after this many steps; zero means no limit.
	MaxTicks uint64
	// OnStep, if set, is called from the loop goroutine after every step.
	OnStep func(StepResult)
}

// ErrExtinct is returned by Run when StopOnExtinction is set and the last
// species died.
var ErrExtinct = errors.New("all species extinct")

// Run drives the world until ctx is done, Stop is called or one of the
// RunOptions limits is reached. With TickRateHz > 0 steps are paced by a
// ticker; otherwise the loop steps as fast as policies answer, still
// servicing observer and status requests between steps.
func (w *World) Run(ctx context.Context, policies []Policy, opts RunOptions) error {
	var tickC <-chan time.Time
	if w.cfg.TickRateHz > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(w.cfg.TickRateHz))
		defer ticker.Stop()
		tickC = ticker.C
	}

	var steps uint64
	for {
		if tickC == nil {
			// Unpaced: drain pending requests without blocking, then step.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.stop:
				return nil
			case req := <-w.observerJoin:
				w.handleObserverJoin(req)
				continue
			case id := <-w.observerLeave:
				w.handleObserverLeave(id)
				continue
			case req := <-w.statusReq:
				req.resp <- w.status()
				continue
			default:
			}
		} else {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.stop:
				return nil
			case req := <-w.observerJoin:
				w.handleObserverJoin(req)
				continue
			case id := <-w.observerLeave:
				w.handleObserverLeave(id)
				continue
			case req := <-w.statusReq:
				req.resp <- w.status()
				continue
			case <-tickC:
			}
		}

		res, err := w.Step(ctx, policies)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		steps++
		w.broadcastFrame()
		if opts.OnStep != nil {
			opts.OnStep(res)
		}
		if opts.StopOnExtinction && res.Extinct {
			w.logf("tick=%d all species extinct", res.Tick)
			return ErrExtinct
		}
		if opts.MaxTicks > 0 && steps >= opts.MaxTicks {
			return nil
		}
	}
}

// Stop ends Run at the next loop iteration. Safe to call more than once.
func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
