package world

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"survivalsim.ai/internal/sim/grid"
	"survivalsim.ai/internal/sim/world/logic/mathx"
)

// World is a single-threaded authoritative simulation. It owns the grid and
// the species that share it. All state must be accessed only from the
// goroutine driving Step (the Run loop on a server).
type World struct {
	cfg Config

	grid    *grid.Grid
	species []*Species

	tick     atomic.Uint64
	moon     uint64
	timeLeft int

	rng *mathx.Rand

	stats *Stats

	// Optional sinks (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	moonLoggers []MoonLogger
	logger      *log.Logger

	// Loop plumbing; see runtime_loop.go.
	observerJoin  chan observerJoinReq
	observerLeave chan string
	statusReq     chan statusReq
	stop          chan struct{}
	stopOnce      sync.Once
	observers     map[string]*observerClient
}

// New builds a world: scatters food, then spawns every configured species
// pack by pack. Placement is deterministic for a given seed.
func New(cfg Config) (*World, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	w := &World{
		cfg:           cfg,
		grid:          grid.New(cfg.Width, cfg.Height),
		timeLeft:      cfg.MoonLen,
		rng:           mathx.NewRand(cfg.Seed),
		stats:         NewStats(),
		observerJoin:  make(chan observerJoinReq, 16),
		observerLeave: make(chan string, 16),
		statusReq:     make(chan statusReq, 16),
		stop:          make(chan struct{}),
		observers:     map[string]*observerClient{},
	}

	for i := 0; i < cfg.NumFood; i++ {
		p, err := w.sampleEmpty(0, 0, cfg.Width, cfg.Height)
		if err != nil {
			return nil, fmt.Errorf("place food %d: %w", i, err)
		}
		w.grid.Set(p, grid.Bush(true))
	}

	for _, sc := range cfg.Species {
		if err := w.addSpecies(sc); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *World) addSpecies(sc SpeciesConfig) error {
	s := newSpecies(len(w.species), sc, w.grid, w.cfg.Rules)
	f := w.cfg.Rules.PackFootprint

	for pack := 0; pack < sc.NumPacks; pack++ {
		// Pack origins keep an f x f footprint inside the grid.
		origin, err := w.sampleEmpty(0, 0, w.cfg.Width-f+1, w.cfg.Height-f+1)
		if err != nil {
			return fmt.Errorf("species %s: pack %d origin: %w", s.name, pack, err)
		}
		for c := 0; c < sc.NumCreatures; c++ {
			p, err := w.sampleEmpty(int(origin.X), int(origin.Y), f, f)
			if err != nil {
				return fmt.Errorf("species %s: pack %d creature %d: %w", s.name, pack, c, err)
			}
			w.grid.Set(p, grid.Creature(s.id, s.color, sc.StartFood))
			s.add(p)
		}
	}
	w.species = append(w.species, s)
	return nil
}

// sampleEmpty draws uniform positions in [x0,x0+w)x[y0,y0+h) until one is
// Empty. Draws are rejected and resampled on occupied cells; a bounded budget
// turns a full region into ErrCrowded.
func (w *World) sampleEmpty(x0, y0, width, height int) (grid.Pos, error) {
	if width <= 0 || height <= 0 {
		return grid.Pos{}, ErrCrowded
	}
	budget := 64*width*height + 256
	for i := 0; i < budget; i++ {
		p := grid.Pos{X: uint32(x0 + w.rng.Intn(width)), Y: uint32(y0 + w.rng.Intn(height))}
		if w.grid.At(p).IsEmpty() {
			return p, nil
		}
	}
	return grid.Pos{}, ErrCrowded
}

func (w *World) Config() Config         { return w.cfg }
func (w *World) ID() string             { return w.cfg.ID }
func (w *World) Grid() *grid.Grid       { return w.grid }
func (w *World) NumSpecies() int        { return len(w.species) }
func (w *World) Species(i int) *Species { return w.species[i] }
func (w *World) CurrentTick() uint64    { return w.tick.Load() }
func (w *World) Moon() uint64           { return w.moon }
func (w *World) TimeLeft() int          { return w.timeLeft }
func (w *World) Stats() *Stats          { return w.stats }

func (w *World) SetTickLogger(l TickLogger) { w.tickLogger = l }
func (w *World) AddMoonLogger(l MoonLogger) { w.moonLoggers = append(w.moonLoggers, l) }
func (w *World) SetLogger(l *log.Logger)    { w.logger = l }

func (w *World) logf(format string, args ...any) {
	if w.logger != nil {
		w.logger.Printf(format, args...)
	}
}

// PlaceCreature puts a creature of species si at p and registers it at the
// end of the roster. p must be Empty. Intended for scenario setup.
func (w *World) PlaceCreature(si int, p grid.Pos, food int) (int, error) {
	if si < 0 || si >= len(w.species) {
		return 0, fmt.Errorf("unknown species %d", si)
	}
	if t := w.grid.At(p); !t.IsEmpty() {
		return 0, fmt.Errorf("place creature at %s: cell holds %s", p, t)
	}
	s := w.species[si]
	w.grid.Set(p, grid.Creature(s.id, s.color, food))
	s.add(p)
	return s.Len() - 1, nil
}

// PlaceTile writes a non-creature tile. Creatures must go through
// PlaceCreature so rosters stay consistent.
func (w *World) PlaceTile(p grid.Pos, t grid.Tile) error {
	if t.Kind == grid.KindCreature {
		return fmt.Errorf("place tile at %s: use PlaceCreature for creatures", p)
	}
	if !w.grid.Contains(p) {
		return fmt.Errorf("place tile at %s: out of bounds", p)
	}
	if cur := w.grid.At(p); cur.IsCreature() {
		return fmt.Errorf("place tile at %s: cell holds %s", p, cur)
	}
	w.grid.Set(p, t)
	return nil
}
