package indexdb

import (
	"context"
	"database/sql"
	"errors"
)

type MoonRow struct {
	Moon       uint64 `json:"moon"`
	EndTick    uint64 `json:"end_tick"`
	Species    int    `json:"species"`
	Name       string `json:"name"`
	Population int    `json:"population"`
	TotalFood  int    `json:"total_food"`
}

// LastTick returns the highest indexed tick and whether any tick exists.
func (s *SQLiteIndex) LastTick(ctx context.Context) (uint64, string, bool, error) {
	var tick int64
	var digest string
	err := s.db.QueryRowContext(ctx, `SELECT tick, digest FROM ticks ORDER BY tick DESC LIMIT 1`).Scan(&tick, &digest)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", false, nil
	}
	if err != nil {
		return 0, "", false, err
	}
	return uint64(tick), digest, true, nil
}

// DeathCounts returns deaths per reason, optionally for one species
// (species < 0 means all).
func (s *SQLiteIndex) DeathCounts(ctx context.Context, species int) (map[string]int, error) {
	q := `SELECT reason, COUNT(*) FROM deaths GROUP BY reason`
	args := []any{}
	if species >= 0 {
		q = `SELECT reason, COUNT(*) FROM deaths WHERE species = ? GROUP BY reason`
		args = append(args, species)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, err
		}
		out[reason] = n
	}
	return out, rows.Err()
}

// MoonHistory returns per-species moon summaries, newest moon first.
func (s *SQLiteIndex) MoonHistory(ctx context.Context, limit int) ([]MoonRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.moon, m.end_tick, ms.species, ms.name, ms.population, ms.total_food
		FROM moons m JOIN moon_species ms ON ms.moon = m.moon
		WHERE m.moon IN (SELECT moon FROM moons ORDER BY moon DESC LIMIT ?)
		ORDER BY m.moon DESC, ms.species ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MoonRow
	for rows.Next() {
		var r MoonRow
		var moon, end int64
		if err := rows.Scan(&moon, &end, &r.Species, &r.Name, &r.Population, &r.TotalFood); err != nil {
			return nil, err
		}
		r.Moon, r.EndTick = uint64(moon), uint64(end)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ActionCounts returns how often each action type was chosen.
func (s *SQLiteIndex) ActionCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM actions GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		out[typ] = n
	}
	return out, rows.Err()
}
