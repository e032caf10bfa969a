package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	persistlog "survivalsim.ai/internal/persistence/log"
	"survivalsim.ai/internal/sim/tuning"
	"survivalsim.ai/internal/sim/world"
)

func main() {
	var (
		worldDir   = flag.String("world_dir", "", "world data dir containing ticks/ticks-*.jsonl.zst")
		tuningPath = flag.String("tuning", "", "tuning.yaml the server ran with (default: embedded defaults)")
		worldID    = flag.String("world", "", "world id (default: tuning world_id)")
		seed       = flag.Int64("seed", 0, "world seed (default: tuning seed)")
		toTick     = flag.Uint64("to_tick", 0, "stop after this tick (inclusive, optional)")
	)
	flag.Parse()

	if *worldDir == "" {
		fmt.Fprintln(os.Stderr, "missing -world_dir")
		os.Exit(2)
	}

	tune := tuning.Defaults()
	if tp := strings.TrimSpace(*tuningPath); tp != "" {
		var err error
		if tune, err = tuning.Load(tp); err != nil {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
	}
	cfg, err := tune.WorldConfig(*worldID, *seed)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tuning:", err)
		os.Exit(1)
	}
	w, err := world.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}

	var entries []world.TickLogEntry
	if err := persistlog.ReadTicks(*worldDir, func(e world.TickLogEntry) error {
		if *toTick == 0 || e.Tick <= *toTick {
			entries = append(entries, e)
		}
		return nil
	}); err != nil {
		fmt.Fprintln(os.Stderr, "read ticks:", err)
		os.Exit(1)
	}
	fmt.Printf("world=%s seed=%d ticks=%d\n", cfg.ID, cfg.Seed, len(entries))

	rep, err := verify(context.Background(), w, entries)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("verified=%d final_tick=%d digest=%s\n", rep.Verified, rep.LastTick, rep.LastDigest)
	if rep.Mismatch != nil {
		m := rep.Mismatch
		fmt.Printf("MISMATCH tick=%d expected=%s got=%s\n", m.Tick, m.Want, m.Got)
		os.Exit(1)
	}
	fmt.Println("OK")
}
