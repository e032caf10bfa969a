package httpapi

import (
	"context"
	"sync"
	"time"
)

// KPISnapshot is what /ops/kpi reports. Sources fills it from whatever is
// wired; each field source is optional.
type KPISnapshot struct {
	UptimeSec     int64             `json:"uptime_sec"`
	Tick          uint64            `json:"tick"`
	Moon          uint64            `json:"moon"`
	Population    map[string]int    `json:"population"`
	ActionsByType map[string]uint64 `json:"actions_by_type"`
	Rejected      uint64            `json:"actions_rejected"`
	Deaths        map[string]uint64 `json:"deaths"`
	PolicyTimeout map[string]uint64 `json:"policy_timeouts,omitempty"`
	IndexDropped  uint64            `json:"index_dropped"`
}

// KPI assembles KPISnapshot on demand and caches it briefly so a busy
// dashboard does not queue status requests on the world loop.
type KPI struct {
	Status        statusProvider
	PolicyTimeout func() map[string]uint64
	IndexDropped  func() uint64

	start time.Time
	ttl   time.Duration
	now   func() time.Time

	mu     sync.Mutex
	cached KPISnapshot
	at     time.Time
}

func NewKPI(status statusProvider) *KPI {
	return &KPI{Status: status, start: time.Now(), ttl: time.Second, now: time.Now}
}

func (k *KPI) Snapshot(ctx context.Context) KPISnapshot {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.now()
	if !k.at.IsZero() && now.Sub(k.at) < k.ttl {
		return k.cached
	}

	out := KPISnapshot{
		UptimeSec:  int64(now.Sub(k.start) / time.Second),
		Population: map[string]int{},
	}
	if k.Status != nil {
		if st, err := k.Status.RequestStatus(ctx); err == nil {
			out.Tick, out.Moon = st.Tick, st.Moon
			for _, s := range st.Species {
				out.Population[s.Name] = s.Population
			}
			out.ActionsByType = st.Stats.ByAction
			out.Rejected = st.Stats.Rejected
			out.Deaths = st.Stats.Deaths
		}
	}
	if k.PolicyTimeout != nil {
		out.PolicyTimeout = k.PolicyTimeout()
	}
	if k.IndexDropped != nil {
		out.IndexDropped = k.IndexDropped()
	}
	k.cached, k.at = out, now
	return out
}

func (k *KPI) SnapshotAny() any {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return k.Snapshot(ctx)
}
