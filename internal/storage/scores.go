package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ScoreEntry represents a single leaderboard record.
type ScoreEntry struct {
	ID        int64
	SessionID string
	Initials  string
	Score     int64
	Metadata  string // canonical JSON, empty when none was sent
	CreatedAt time.Time
}

// InsertScore appends a leaderboard entry. Returns the ID of the inserted record.
func (t *Tx) InsertScore(ctx context.Context, e ScoreEntry) (int64, error) {
	var metadata sql.NullString
	if e.Metadata != "" {
		metadata = sql.NullString{String: e.Metadata, Valid: true}
	}

	result, err := t.tx.ExecContext(ctx,
		`INSERT INTO highscores (session_id, initials, score, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.SessionID, e.Initials, e.Score, metadata, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// TopScores retrieves the top N scores. Ties go to the earlier entry.
func (s *Store) TopScores(ctx context.Context, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, initials, score, COALESCE(metadata, ''), created_at
		 FROM highscores
		 ORDER BY score DESC, created_at ASC, id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Initials, &e.Score, &e.Metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = fromMillis(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the highest accepted score, or 0 if none exist.
func (s *Store) HighScore(ctx context.Context) (int64, error) {
	var score sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MAX(score) FROM highscores").Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}
	if !score.Valid {
		return 0, nil
	}
	return score.Int64, nil
}

// ClearScores deletes every leaderboard entry.
func (s *Store) ClearScores(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM highscores"); err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// Stats contains aggregated leaderboard statistics.
type Stats struct {
	Entries    int
	HighScore  int64
	AvgScore   float64
	Players    int // distinct initials
	LastPlayed time.Time
}

// Stats retrieves aggregated leaderboard statistics.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	var last sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MAX(score), 0), COALESCE(AVG(score), 0),
		        COUNT(DISTINCT initials), MAX(created_at)
		 FROM highscores`,
	).Scan(&stats.Entries, &stats.HighScore, &stats.AvgScore, &stats.Players, &last)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get stats: %w", err)
	}
	if last.Valid {
		stats.LastPlayed = fromMillis(last.Int64)
	}
	return stats, nil
}
