package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"survivalsim.ai/internal/persistence/indexdb"
	"survivalsim.ai/internal/persistence/pgstats"
)

// dbCmd queries the SQLite index: last | moons | deaths | actions.
func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "moons to show")
	species := fs.Int("species", -1, "species id filter for deaths (-1 = all)")
	_ = fs.Parse(args)

	q := "last"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}

	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch q {
	case "last":
		tick, digest, ok, err := idx.LastTick(ctx)
		exitOn("query", err)
		if !ok {
			fmt.Println("no ticks indexed")
			return
		}
		printJSON(map[string]any{"tick": tick, "digest": digest})
	case "moons":
		rows, err := idx.MoonHistory(ctx, *limit)
		exitOn("query", err)
		for _, r := range rows {
			printJSON(r)
		}
	case "deaths":
		counts, err := idx.DeathCounts(ctx, *species)
		exitOn("query", err)
		printJSON(counts)
	case "actions":
		counts, err := idx.ActionCounts(ctx)
		exitOn("query", err)
		printJSON(counts)
	default:
		fmt.Fprintf(os.Stderr, "unknown query %q (want last, moons, deaths or actions)\n", q)
		os.Exit(2)
	}
}

// pgCmd prints archived moon records for one species from Postgres.
func pgCmd(args []string) {
	fs := flag.NewFlagSet("pg", flag.ExitOnError)
	dsn := fs.String("dsn", "", "postgres dsn (or set SURVIVALSIM_PG_DSN)")
	worldID := fs.String("world", "world_1", "world id")
	species := fs.Int("species", 0, "species id")
	limit := fs.Int("limit", 20, "records to show")
	_ = fs.Parse(args)

	d := strings.TrimSpace(*dsn)
	if d == "" {
		d = strings.TrimSpace(os.Getenv("SURVIVALSIM_PG_DSN"))
	}
	if d == "" {
		fmt.Fprintln(os.Stderr, "missing -dsn")
		os.Exit(2)
	}
	db, err := pgstats.OpenPostgres(d)
	exitOn("open postgres", err)
	store, err := pgstats.NewStore(db, *worldID, nil)
	exitOn("store", err)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	recs, err := store.History(ctx, *species, *limit)
	exitOn("query", err)
	for _, r := range recs {
		printJSON(r)
	}
}

func exitOn(what string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
		os.Exit(1)
	}
}
