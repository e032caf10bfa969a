// Package indexdb keeps a queryable SQLite copy of the tick and moon logs.
// The zstd JSONL logs remain the source of truth; the index may drop
// records when its writer falls behind.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"survivalsim.ai/internal/sim/world"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick atomic.Uint64
	dropMoon atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqMoon
	reqFlush
)

type req struct {
	kind reqKind

	tick world.TickLogEntry
	moon world.MoonLogEntry
	done chan struct{}
}

type Stats struct {
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
	DropTickTotal uint64 `json:"drop_tick_total"`
	DropMoonTotal uint64 `json:"drop_moon_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{db: db, ch: make(chan req, 65536)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			moon INTEGER NOT NULL,
			digest TEXT NOT NULL,
			actions INTEGER NOT NULL,
			rejected INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS actions (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			species INTEGER NOT NULL,
			member INTEGER NOT NULL,
			type TEXT NOT NULL,
			dx INTEGER NOT NULL,
			dy INTEGER NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_species_tick ON actions(species, tick);`,
		`CREATE TABLE IF NOT EXISTS deaths (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			species INTEGER NOT NULL,
			member INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			food INTEGER NOT NULL,
			reason TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_deaths_species ON deaths(species, tick);`,
		`CREATE TABLE IF NOT EXISTS moons (
			moon INTEGER PRIMARY KEY,
			end_tick INTEGER NOT NULL,
			extinct INTEGER NOT NULL,
			bushes_fed INTEGER NOT NULL,
			bushes_eaten INTEGER NOT NULL,
			walls INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS moon_species (
			moon INTEGER NOT NULL,
			species INTEGER NOT NULL,
			name TEXT NOT NULL,
			population INTEGER NOT NULL,
			total_food INTEGER NOT NULL,
			PRIMARY KEY (moon, species)
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		s.dropTick.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) WriteMoon(entry world.MoonLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqMoon, moon: entry}:
	default:
		s.dropMoon.Add(1)
	}
	return nil
}

// Flush blocks until everything queued before it is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTickTotal: s.dropTick.Load(),
		DropMoonTotal: s.dropMoon.Load(),
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(q string, args ...any) bool {
		if _, err := tx.Exec(q, args...); err != nil {
			_ = tx.Rollback()
			tx = nil
			return false
		}
		opCount++
		return true
	}

	// Idle commits keep readers (which share the single connection) from
	// waiting on an open write transaction.
	idle := time.NewTicker(commitMaxWait)
	defer idle.Stop()

	for {
		var r req
		var ok bool
		select {
		case r, ok = <-s.ch:
			if !ok {
				commit()
				return
			}
		case <-idle.C:
			if time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
			continue
		}

		if r.kind == reqFlush {
			commit()
			close(r.done)
			continue
		}

		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			s.writeTick(r.tick, exec)
		case reqMoon:
			s.writeMoon(r.moon, exec)
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}
}

func (s *SQLiteIndex) writeTick(e world.TickLogEntry, exec func(string, ...any) bool) {
	raw, _ := json.Marshal(e)
	tick := int64(e.Tick)
	if !exec(`INSERT OR REPLACE INTO ticks(tick,moon,digest,actions,rejected,deaths,raw_json) VALUES(?,?,?,?,?,?,?)`,
		tick, int64(e.Moon), e.Digest, len(e.Actions), e.Rejected, len(e.Deaths), string(raw)) {
		return
	}
	for i, a := range e.Actions {
		if !exec(`INSERT OR REPLACE INTO actions(tick,seq,species,member,type,dx,dy) VALUES(?,?,?,?,?,?,?)`,
			tick, i, a.Species, a.Member, a.Action.Kind.String(), a.Action.Dir.DX, a.Action.Dir.DY) {
			return
		}
	}
	for i, d := range e.Deaths {
		if !exec(`INSERT OR REPLACE INTO deaths(tick,seq,species,member,x,y,food,reason) VALUES(?,?,?,?,?,?,?,?)`,
			tick, i, d.Species, d.Member, int64(d.Pos.X), int64(d.Pos.Y), d.Food, string(d.Reason)) {
			return
		}
	}
}

func (s *SQLiteIndex) writeMoon(e world.MoonLogEntry, exec func(string, ...any) bool) {
	raw, _ := json.Marshal(e)
	extinct := 0
	if e.Extinct {
		extinct = 1
	}
	if !exec(`INSERT OR REPLACE INTO moons(moon,end_tick,extinct,bushes_fed,bushes_eaten,walls,raw_json) VALUES(?,?,?,?,?,?,?)`,
		int64(e.Moon), int64(e.EndTick), extinct, e.Bushes.Fed, e.Bushes.Eaten, e.Bushes.Walls, string(raw)) {
		return
	}
	for _, sp := range e.Species {
		if !exec(`INSERT OR REPLACE INTO moon_species(moon,species,name,population,total_food) VALUES(?,?,?,?,?)`,
			int64(e.Moon), sp.ID, sp.Name, sp.Population, sp.TotalFood) {
			return
		}
	}
}
