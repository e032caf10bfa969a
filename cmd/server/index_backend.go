package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"survivalsim.ai/internal/persistence/indexdb"
	"survivalsim.ai/internal/persistence/pgstats"
)

// openRuntimeIndex opens the SQLite read model unless disabled by flag or
// SURVIVALSIM_INDEX_BACKEND=none. A nil index is valid and means no index.
func openRuntimeIndex(worldDir string, disableDB bool) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("SURVIVALSIM_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(worldDir, "index", "world.sqlite"))
	default:
		return nil, fmt.Errorf("unsupported SURVIVALSIM_INDEX_BACKEND: %s", backend)
	}
}

// openMoonStore connects the Postgres moon archive when a DSN is configured.
func openMoonStore(dsn, worldID string, logger *log.Logger) (*pgstats.Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("SURVIVALSIM_PG_DSN"))
	}
	if dsn == "" {
		return nil, nil
	}
	db, err := pgstats.OpenPostgres(dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return pgstats.NewStore(db, worldID, logger)
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
