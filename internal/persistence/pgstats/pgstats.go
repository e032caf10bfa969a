// Package pgstats mirrors moon summaries into Postgres through gorm, for
// dashboards that outlive a single server's files.
package pgstats

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"survivalsim.ai/internal/sim/world"
)

// MoonRecord is one species' state at the end of a moon.
type MoonRecord struct {
	ID          uint64    `gorm:"primaryKey"`
	WorldID     string    `gorm:"size:64;not null;uniqueIndex:idx_moon_species"`
	Moon        uint64    `gorm:"not null;uniqueIndex:idx_moon_species"`
	SpeciesID   int       `gorm:"not null;uniqueIndex:idx_moon_species"`
	SpeciesName string    `gorm:"size:64;not null"`
	EndTick     uint64    `gorm:"not null"`
	Population  int       `gorm:"not null"`
	TotalFood   int       `gorm:"not null"`
	Extinct     bool      `gorm:"not null"`
	RecordedAt  time.Time `gorm:"not null"`
}

func (MoonRecord) TableName() string { return "moon_records" }

func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// Store is a world.MoonLogger. Writes are queued and applied by a
// background goroutine so a slow database never stalls the world loop.
type Store struct {
	db      *gorm.DB
	worldID string
	now     func() time.Time
	logger  *log.Logger

	ch      chan world.MoonLogEntry
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Uint64
}

func NewStore(db *gorm.DB, worldID string, logger *log.Logger) (*Store, error) {
	if err := db.AutoMigrate(&MoonRecord{}); err != nil {
		return nil, fmt.Errorf("migrate moon_records: %w", err)
	}
	s := &Store{
		db:      db,
		worldID: worldID,
		now:     time.Now,
		logger:  logger,
		ch:      make(chan world.MoonLogEntry, 1024),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for e := range s.ch {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := s.Save(ctx, e); err != nil && s.logger != nil {
				s.logger.Printf("pgstats: moon %d: %v", e.Moon, err)
			}
			cancel()
		}
	}()
	return s, nil
}

func (s *Store) WriteMoon(e world.MoonLogEntry) error {
	if s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- e:
	default:
		s.dropped.Add(1)
	}
	return nil
}

func (s *Store) Dropped() uint64 { return s.dropped.Load() }

// Save upserts the records of one moon synchronously.
func (s *Store) Save(ctx context.Context, e world.MoonLogEntry) error {
	rows := Records(s.worldID, e, s.now())
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range rows {
			err := tx.
				Where("world_id = ? AND moon = ? AND species_id = ?", r.WorldID, r.Moon, r.SpeciesID).
				Attrs(MoonRecord{WorldID: r.WorldID, Moon: r.Moon, SpeciesID: r.SpeciesID}).
				Assign(MoonRecord{
					SpeciesName: r.SpeciesName,
					EndTick:     r.EndTick,
					Population:  r.Population,
					TotalFood:   r.TotalFood,
					Extinct:     r.Extinct,
					RecordedAt:  r.RecordedAt,
				}).
				FirstOrCreate(&MoonRecord{}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// History returns a species' records in moon order.
func (s *Store) History(ctx context.Context, speciesID int, limit int) ([]MoonRecord, error) {
	var out []MoonRecord
	q := s.db.WithContext(ctx).
		Where("world_id = ? AND species_id = ?", s.worldID, speciesID).
		Order("moon ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (s *Store) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
	})
	return nil
}

// Records flattens a moon entry into one row per species.
func Records(worldID string, e world.MoonLogEntry, at time.Time) []MoonRecord {
	out := make([]MoonRecord, 0, len(e.Species))
	for _, sp := range e.Species {
		out = append(out, MoonRecord{
			WorldID:     worldID,
			Moon:        e.Moon,
			SpeciesID:   sp.ID,
			SpeciesName: sp.Name,
			EndTick:     e.EndTick,
			Population:  sp.Population,
			TotalFood:   sp.TotalFood,
			Extinct:     sp.Population == 0,
			RecordedAt:  at.UTC(),
		})
	}
	return out
}
