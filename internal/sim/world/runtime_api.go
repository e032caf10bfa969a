package world

import "context"

// Status is a point-in-time copy of the world taken on the loop goroutine.
type Status struct {
	WorldID   string          `json:"world_id"`
	Tick      uint64          `json:"tick"`
	Moon      uint64          `json:"moon"`
	TimeLeft  int             `json:"time_left"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Species   []SpeciesStatus `json:"species"`
	Bushes    BushSummary     `json:"bushes"`
	Extinct   bool            `json:"extinct"`
	Observers int             `json:"observers"`
	Stats     StatsSnapshot   `json:"stats"`
}

type SpeciesStatus struct {
	SpeciesSummary
	Color string `json:"color"`
}

type statusReq struct {
	resp chan Status
}

// RequestStatus asks the running loop for a Status. It blocks until the
// loop answers or ctx is done.
func (w *World) RequestStatus(ctx context.Context) (Status, error) {
	req := statusReq{resp: make(chan Status, 1)}
	select {
	case w.statusReq <- req:
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
	select {
	case st := <-req.resp:
		return st, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

// status must run on the loop goroutine, or while the world is stopped.
func (w *World) status() Status {
	st := Status{
		WorldID:   w.cfg.ID,
		Tick:      w.tick.Load(),
		Moon:      w.moon,
		TimeLeft:  w.timeLeft,
		Width:     w.grid.Width(),
		Height:    w.grid.Height(),
		Bushes:    w.bushSummary(),
		Extinct:   w.Extinct(),
		Observers: len(w.observers),
		Stats:     w.stats.Snapshot(),
	}
	for _, s := range w.species {
		st.Species = append(st.Species, SpeciesStatus{SpeciesSummary: w.speciesSummary(s), Color: ColorHex(s.color)})
	}
	return st
}

// Snapshot is status for callers that own the world goroutine, such as
// tests and the replay tool.
func (w *World) Snapshot() Status { return w.status() }
