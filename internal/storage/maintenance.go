package storage

import (
	"context"
	"fmt"
	"time"
)

// HitRateLimit counts one request for client in the window starting at
// windowStart and returns the count including this request.
func (s *Store) HitRateLimit(ctx context.Context, client string, windowStart time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO rate_limits (client_key, window_start, count) VALUES (?, ?, 1)
		 ON CONFLICT(client_key, window_start) DO UPDATE SET count = count + 1
		 RETURNING count`,
		client, windowStart.UnixMilli(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot update rate limit: %w", err)
	}
	return count, nil
}

// PurgeCutoffs selects what Purge removes. Zero cutoffs are skipped.
type PurgeCutoffs struct {
	NoncesUsedBefore       time.Time
	SessionsExpiredBy      time.Time
	RateWindowsStartBefore time.Time
}

// PurgeResult reports how many rows Purge deleted per table.
type PurgeResult struct {
	Nonces     int64
	Sessions   int64
	RateLimits int64
}

// Total returns the number of rows deleted.
func (r PurgeResult) Total() int64 {
	return r.Nonces + r.Sessions + r.RateLimits
}

// Purge removes stale replay, session and rate-limit bookkeeping.
func (s *Store) Purge(ctx context.Context, c PurgeCutoffs) (PurgeResult, error) {
	var res PurgeResult

	steps := []struct {
		query  string
		cutoff time.Time
		dst    *int64
	}{
		{"DELETE FROM used_nonces WHERE used_at < ?", c.NoncesUsedBefore, &res.Nonces},
		{"DELETE FROM sessions WHERE expires_at <= ?", c.SessionsExpiredBy, &res.Sessions},
		{"DELETE FROM rate_limits WHERE window_start < ?", c.RateWindowsStartBefore, &res.RateLimits},
	}

	for _, step := range steps {
		if step.cutoff.IsZero() {
			continue
		}
		r, err := s.db.ExecContext(ctx, step.query, step.cutoff.UnixMilli())
		if err != nil {
			return res, fmt.Errorf("storage: purge failed: %w", err)
		}
		n, err := r.RowsAffected()
		if err != nil {
			return res, fmt.Errorf("storage: purge failed: %w", err)
		}
		*step.dst = n
	}

	return res, nil
}
