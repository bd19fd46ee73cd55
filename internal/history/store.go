// Package history persists completed workout sessions and derives the
// statistics shown on the history screen.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

const selectAllSessions = "SELECT id, formula_name, duration_min, completed_at FROM sessions"

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	formula_name TEXT    NOT NULL,
	duration_min INTEGER NOT NULL,
	completed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_completed_at ON sessions(completed_at);
`

// SessionRecord is one completed workout: which formula, how long (whole
// minutes), and when it finished.
type SessionRecord struct {
	ID              int64
	FormulaName     string
	DurationMinutes int
	CompletedAt     time.Time
}

// Stats aggregates the session table for display.
type Stats struct {
	TotalSessions     int
	TotalMinutes      int
	CurrentStreakDays int
}

// DailyCount is the number of sessions completed on one calendar day.
type DailyCount struct {
	Day      time.Time // midnight, local time
	Sessions int
}

// Store is the sqlite-backed session repository.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Open opens (creating if needed) the session database at path.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		panic("history.Store: logger cannot be nil")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InsertSession records one completed workout. The caller guarantees it is
// invoked exactly once per completion edge.
func (s *Store) InsertSession(ctx context.Context, formulaName string, durationMinutes int, completedAt time.Time) (SessionRecord, error) {
	if formulaName == "" {
		return SessionRecord{}, fmt.Errorf("provide formula name")
	}
	if durationMinutes < 1 {
		durationMinutes = 1
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (formula_name, duration_min, completed_at) VALUES (?, ?, ?)",
		formulaName, durationMinutes, completedAt.Unix())
	if err != nil {
		return SessionRecord{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return SessionRecord{}, err
	}

	s.logger.Printf("history: recorded session %d (%s, %d min)", id, formulaName, durationMinutes)
	return SessionRecord{
		ID:              id,
		FormulaName:     formulaName,
		DurationMinutes: durationMinutes,
		CompletedAt:     completedAt,
	}, nil
}

// RecentSessions returns up to limit sessions, newest first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectAllSessions+" ORDER BY completed_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var completedAt int64
		if err := rows.Scan(&rec.ID, &rec.FormulaName, &rec.DurationMinutes, &completedAt); err != nil {
			return nil, err
		}
		rec.CompletedAt = time.Unix(completedAt, 0)
		sessions = append(sessions, rec)
	}
	return sessions, rows.Err()
}

// Stats aggregates totals and the current daily streak. The streak counts
// consecutive calendar days with at least one session, ending today or
// yesterday (a streak is not broken until a full day is missed).
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(duration_min), 0) FROM sessions").
		Scan(&stats.TotalSessions, &stats.TotalMinutes)
	if err != nil {
		return Stats{}, err
	}

	days, err := s.distinctDays(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.CurrentStreakDays = currentStreak(days, time.Now())
	return stats, nil
}

// DailyCounts returns per-day session counts for the last `days` calendar
// days (oldest first), including zero days, for the calendar grid.
func (s *Store) DailyCounts(ctx context.Context, days int) ([]DailyCount, error) {
	today := midnight(time.Now())
	cutoff := today.AddDate(0, 0, -(days - 1))

	rows, err := s.db.QueryContext(ctx,
		"SELECT completed_at FROM sessions WHERE completed_at >= ?", cutoff.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byDay := make(map[time.Time]int)
	for rows.Next() {
		var completedAt int64
		if err := rows.Scan(&completedAt); err != nil {
			return nil, err
		}
		byDay[midnight(time.Unix(completedAt, 0))]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	counts := make([]DailyCount, 0, days)
	for day := cutoff; !day.After(today); day = day.AddDate(0, 0, 1) {
		counts = append(counts, DailyCount{Day: day, Sessions: byDay[day]})
	}
	return counts, nil
}

// distinctDays returns the distinct local calendar days with sessions,
// newest first.
func (s *Store) distinctDays(ctx context.Context) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT completed_at FROM sessions ORDER BY completed_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[time.Time]bool)
	var days []time.Time
	for rows.Next() {
		var completedAt int64
		if err := rows.Scan(&completedAt); err != nil {
			return nil, err
		}
		day := midnight(time.Unix(completedAt, 0))
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	return days, rows.Err()
}

func currentStreak(daysNewestFirst []time.Time, now time.Time) int {
	if len(daysNewestFirst) == 0 {
		return 0
	}
	expected := midnight(now)
	if !daysNewestFirst[0].Equal(expected) {
		// No session yet today; the streak may still be alive from yesterday.
		expected = expected.AddDate(0, 0, -1)
	}
	streak := 0
	for _, day := range daysNewestFirst {
		if !day.Equal(expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}

func midnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
