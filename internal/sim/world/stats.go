package world

// Stats counts what the engine did since construction. Like the rest of the
// world it is owned by the loop goroutine; readers get a copy via Snapshot.
type Stats struct {
	Ticks    uint64
	Moons    uint64
	Rejected uint64

	ByAction map[string]uint64
	Deaths   map[DeathReason]uint64
}

type StatsSnapshot struct {
	Ticks    uint64            `json:"ticks"`
	Moons    uint64            `json:"moons"`
	Applied  uint64            `json:"actions_applied"`
	Rejected uint64            `json:"actions_rejected"`
	ByAction map[string]uint64 `json:"by_action"`
	Deaths   map[string]uint64 `json:"deaths"`
}

func NewStats() *Stats {
	return &Stats{
		ByAction: map[string]uint64{},
		Deaths:   map[DeathReason]uint64{},
	}
}

func (s *Stats) recordAction(a Action) {
	if s == nil {
		return
	}
	s.ByAction[a.Kind.String()]++
}

func (s *Stats) recordDeath(d Death) {
	if s == nil {
		return
	}
	s.Deaths[d.Reason]++
}

func (s *Stats) Snapshot() StatsSnapshot {
	out := StatsSnapshot{
		Ticks:    s.Ticks,
		Moons:    s.Moons,
		Rejected: s.Rejected,
		ByAction: make(map[string]uint64, len(s.ByAction)),
		Deaths:   make(map[string]uint64, len(s.Deaths)),
	}
	for k, v := range s.ByAction {
		out.ByAction[k] = v
		out.Applied += v
	}
	for k, v := range s.Deaths {
		out.Deaths[string(k)] = v
	}
	return out
}
