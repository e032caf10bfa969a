package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"

	"survivalsim.ai/internal/persistence/indexdb"
	persistlog "survivalsim.ai/internal/persistence/log"
	"survivalsim.ai/internal/persistence/pgstats"
	"survivalsim.ai/internal/policy"
	"survivalsim.ai/internal/sim/tuning"
	"survivalsim.ai/internal/sim/world"
	"survivalsim.ai/internal/transport/httpapi"
	"survivalsim.ai/internal/transport/observer"
	"survivalsim.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "websocket listen address (policy + observer)")
		apiAddr    = flag.String("api_addr", ":8081", "status api listen address (empty to disable)")
		worldID    = flag.String("world", "", "world id (default: tuning world_id)")
		seed       = flag.Int64("seed", 0, "world seed (default: tuning seed)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: embedded defaults)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index")
		pgDSN      = flag.String("pg_dsn", "", "postgres dsn for moon records (or set SURVIVALSIM_PG_DSN)")

		decideTimeout  = flag.Duration("decide_timeout", ws.DefaultDecideTimeout, "per-decision timeout for remote policies")
		stopExtinction = flag.Bool("stop_on_extinction", false, "exit once every species has died out")
		maxTicks       = flag.Uint64("max_ticks", 0, "exit after this many ticks (0 = run forever)")
		observerRemote = flag.Bool("observer_remote", false, "serve the observer stream to non-loopback clients")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune := tuning.Defaults()
	if tp := strings.TrimSpace(*tuningPath); tp != "" {
		var err error
		if tune, err = tuning.Load(tp); err != nil {
			logger.Fatalf("load tuning: %v", err)
		}
	}
	cfg, err := tune.WorldConfig(*worldID, *seed)
	if err != nil {
		logger.Fatalf("tuning: %v", err)
	}

	w, err := world.New(cfg)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	w.SetLogger(logger)
	cfg = w.Config()

	worldDir := filepath.Join(*dataDir, "worlds", cfg.ID)
	_ = os.MkdirAll(worldDir, 0o755)

	// Read models and logs never feed back into the simulation.
	idx, err := openRuntimeIndex(worldDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
	}
	moonStore, err := openMoonStore(*pgDSN, cfg.ID, logger)
	if err != nil {
		logger.Fatalf("moon store: %v", err)
	}
	if moonStore != nil {
		defer moonStore.Close()
	}

	tickLog := persistlog.NewTickLogger(worldDir)
	moonLog := persistlog.NewMoonLogger(worldDir)
	defer tickLog.Close()
	defer moonLog.Close()
	w.SetTickLogger(multiTickLogger{a: tickLog, b: idx})
	w.AddMoonLogger(moonLog)
	if idx != nil {
		w.AddMoonLogger(idx)
	}
	if moonStore != nil {
		w.AddMoonLogger(moonStore)
	}

	wsSrv := ws.NewServer(cfg, logger)
	policies, slots, err := buildPolicies(tune, cfg, wsSrv, *decideTimeout)
	if err != nil {
		logger.Fatalf("policies: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())
	obsSrv := observer.NewServer(w, logger)
	obsSrv.AllowRemote = *observerRemote || envBool("SURVIVALSIM_OBSERVER_REMOTE", false)
	mux.HandleFunc("/v1/observer/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", obsSrv.WSHandler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()
	go func() {
		logger.Printf("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("ListenAndServe: %v", err)
			cancel()
		}
	}()

	if a := strings.TrimSpace(*apiAddr); a != "" {
		startAPI(ctx, a, w, idx, moonStore, slots, logger)
	}

	opts := world.RunOptions{
		StopOnExtinction: *stopExtinction,
		MaxTicks:         *maxTicks,
		OnStep: func(res world.StepResult) {
			if res.Moon == nil {
				return
			}
			for _, s := range res.Moon.Species {
				logger.Printf("moon=%d species=%s population=%d food=%d", res.Moon.Moon, s.Name, s.Population, s.TotalFood)
			}
		},
	}
	logger.Printf("world=%s seed=%d grid=%dx%d species=%d", cfg.ID, cfg.Seed, cfg.Width, cfg.Height, len(cfg.Species))

	err = w.Run(ctx, policies, opts)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		logger.Printf("world stopped at tick=%d", w.CurrentTick())
	case errors.Is(err, world.ErrExtinct):
		logger.Printf("world ended at tick=%d: %v", w.CurrentTick(), err)
	default:
		cancel()
		logger.Fatalf("world: %v", err)
	}
	cancel()
}

// buildPolicies resolves each species' tuning policy. Remote species get a
// ws slot that falls back to a seeded Random policy while no client is
// attached.
func buildPolicies(tune tuning.Tuning, cfg world.Config, wsSrv *ws.Server, timeout time.Duration) ([]world.Policy, []*ws.Slot, error) {
	policies := make([]world.Policy, len(tune.Species))
	var slots []*ws.Slot
	for i, sp := range tune.Species {
		seed := cfg.Seed + int64(i)
		if sp.Policy == "remote" {
			sl := wsSrv.Slot(i, sp.Name, policy.Random{Seed: seed})
			sl.SetTimeout(timeout)
			policies[i] = sl
			slots = append(slots, sl)
			continue
		}
		p, err := policy.ByName(sp.Policy, seed)
		if err != nil {
			return nil, nil, err
		}
		policies[i] = p
	}
	return policies, slots, nil
}

func startAPI(ctx context.Context, addr string, w *world.World, idx *indexdb.SQLiteIndex, moonStore *pgstats.Store, slots []*ws.Slot, logger *log.Logger) {
	kpi := httpapi.NewKPI(w)
	kpi.PolicyTimeout = func() map[string]uint64 {
		out := make(map[string]uint64, len(slots))
		for _, sl := range slots {
			out[sl.Name()] = sl.Timeouts()
		}
		return out
	}
	kpi.IndexDropped = func() uint64 {
		var n uint64
		if idx != nil {
			st := idx.Stats()
			n += st.DropTickTotal + st.DropMoonTotal
		}
		if moonStore != nil {
			n += moonStore.Dropped()
		}
		return n
	}
	h := httpapi.Handler{Status: w, KPI: kpi}
	if idx != nil {
		h.Moons = idx
	}

	s := server.Default(server.WithHostPorts(addr))
	h.RegisterRoutes(s)
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = s.Shutdown(ctx2)
	}()
	go func() {
		logger.Printf("status api on %s", addr)
		if err := s.Run(); err != nil {
			logger.Printf("status api: %v", err)
		}
	}()
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

type multiTickLogger struct {
	a world.TickLogger
	b *indexdb.SQLiteIndex
}

// WriteTick feeds both sinks; a failure in one does not skip the other.
func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	var errA, errB error
	if m.a != nil {
		errA = m.a.WriteTick(entry)
	}
	if m.b != nil {
		errB = m.b.WriteTick(entry)
	}
	return errors.Join(errA, errB)
}
