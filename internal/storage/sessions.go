package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Session is an issued submission challenge.
type Session struct {
	ID        string
	Token     string
	ClientIP  string
	CreatedAt time.Time
	ExpiresAt time.Time
	LastScore int64
	HasScore  bool // LastScore is only meaningful once a score was accepted
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// CreateSession persists a freshly issued session.
func (s *Store) CreateSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, token, client_ip, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Token, sess.ClientIP, sess.CreatedAt.UnixMilli(), sess.ExpiresAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot create session: %w", err)
	}
	return nil
}

// Session retrieves a session by id. Returns nil if it does not exist.
func (s *Store) Session(ctx context.Context, id string) (*Session, error) {
	return sessionByID(ctx, s.db, id)
}

// Session retrieves a session by id inside the transaction.
func (t *Tx) Session(ctx context.Context, id string) (*Session, error) {
	return sessionByID(ctx, t.tx, id)
}

func sessionByID(ctx context.Context, q queryer, id string) (*Session, error) {
	var sess Session
	var createdAt, expiresAt int64
	var lastScore sql.NullInt64

	err := q.QueryRowContext(ctx,
		`SELECT id, token, client_ip, created_at, expires_at, last_score
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.Token, &sess.ClientIP, &createdAt, &expiresAt, &lastScore)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query session: %w", err)
	}

	sess.CreatedAt = fromMillis(createdAt)
	sess.ExpiresAt = fromMillis(expiresAt)
	if lastScore.Valid {
		sess.LastScore = lastScore.Int64
		sess.HasScore = true
	}
	return &sess, nil
}

// ClaimNonce records a nonce as used for the session. It returns false
// when the pair was already recorded.
func (t *Tx) ClaimNonce(ctx context.Context, sessionID, nonce string, at time.Time) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO used_nonces (session_id, nonce, used_at) VALUES (?, ?, ?)`,
		sessionID, nonce, at.UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("storage: cannot record nonce: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage: cannot read nonce insert result: %w", err)
	}
	return n == 1, nil
}

// SetLastScore stores the latest accepted score of a session.
func (t *Tx) SetLastScore(ctx context.Context, sessionID string, score int64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE sessions SET last_score = ? WHERE id = ?`,
		score, sessionID,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot update session score: %w", err)
	}
	return nil
}
