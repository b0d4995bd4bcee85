package highscore

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vovakirdan/dude-platformer/internal/config"
	"github.com/vovakirdan/dude-platformer/internal/storage"
)

// Service runs the challenge, submission and leaderboard operations
// against the store. It is safe for concurrent use.
type Service struct {
	store  *storage.Store
	cfg    config.HighScoreConfig
	logger *log.Logger
	now    func() time.Time

	lastMaintenance atomic.Int64 // unix millis
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a service. A nil logger discards output.
func NewService(store *storage.Store, cfg config.HighScoreConfig, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Service{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueChallenge creates a session bound to clientIP.
func (s *Service) IssueChallenge(ctx context.Context, clientIP string) (Challenge, error) {
	token, err := newToken()
	if err != nil {
		return Challenge{}, err
	}

	now := s.now()
	sess := storage.Session{
		ID:        uuid.NewString(),
		Token:     token,
		ClientIP:  clientIP,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL()),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return Challenge{}, err
	}

	s.maybeMaintain(ctx)

	return Challenge{
		SessionID:               sess.ID,
		SubmitToken:             sess.Token,
		ExpiresAt:               sess.ExpiresAt.Unix(),
		MaxTimestampSkewSeconds: s.cfg.Security.MaxTimestampSkewSeconds,
	}, nil
}

// Submit processes one raw POST body from clientIP. A rejected submission
// returns *Error; any other error is a storage failure.
//
// Every call counts toward the client's rate-limit window, including
// calls that are rejected later on. The counter is committed on its own,
// before the submission transaction, so a rollback never refunds it.
func (s *Service) Submit(ctx context.Context, clientIP string, body []byte) error {
	now := s.now()

	count, err := s.store.HitRateLimit(ctx, clientIP, windowStart(now, s.cfg.RateWindow()))
	if err != nil {
		return err
	}
	if count > s.cfg.RateLimit.MaxRequests {
		s.logger.Warn("rate limit exceeded", "remote", clientIP, "count", count)
		return errRateLimited
	}

	req, err := decodeSubmission(body)
	if err != nil {
		return err
	}
	sub, canonical, err := req.check(s.cfg.Scores)
	if err != nil {
		return err
	}

	if !withinSkew(now.Unix(), sub.Timestamp, int64(s.cfg.Security.MaxTimestampSkewSeconds)) {
		return unauthorized("timestamp outside allowed window")
	}

	err = s.store.InTx(ctx, func(tx *storage.Tx) error {
		sess, err := tx.Session(ctx, sub.SessionID)
		if err != nil {
			return err
		}
		if sess == nil || sess.ClientIP != clientIP || sess.Expired(now) {
			return errBadSession
		}

		if !verify(sess.Token, StringToSign(sub, canonical), sub.Signature) {
			return errSignature
		}

		claimed, err := tx.ClaimNonce(ctx, sess.ID, sub.Nonce, now)
		if err != nil {
			return err
		}
		if !claimed {
			return errReplay
		}

		if sess.HasScore {
			if sub.Score < sess.LastScore {
				return invalid("score cannot decrease within a session")
			}
			if sub.Score-sess.LastScore > s.cfg.Scores.MaxDelta {
				return invalid("score increase exceeds %d", s.cfg.Scores.MaxDelta)
			}
		}

		if err := tx.SetLastScore(ctx, sess.ID, sub.Score); err != nil {
			return err
		}
		_, err = tx.InsertScore(ctx, storage.ScoreEntry{
			SessionID: sess.ID,
			Initials:  sub.Initials,
			Score:     sub.Score,
			Metadata:  canonical,
			CreatedAt: now,
		})
		return err
	})
	if err != nil {
		var rejected *Error
		if errors.As(err, &rejected) {
			s.logger.Debug("submission rejected", "remote", clientIP, "status", rejected.Status, "reason", rejected.Message)
		}
		return err
	}

	s.logger.Info("score accepted", "remote", clientIP, "initials", sub.Initials, "score", sub.Score)
	s.maybeMaintain(ctx)
	return nil
}

// Leaderboard returns the top entries. limit < 1 selects the default and
// larger values are clamped to the configured maximum.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]Entry, error) {
	if limit < 1 {
		limit = s.cfg.Leaderboard.DefaultLimit
	}
	limit = min(limit, s.cfg.Leaderboard.MaxLimit)

	rows, err := s.store.TopScores(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			Initials:  row.Initials,
			Score:     row.Score,
			CreatedAt: row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return entries, nil
}

// Maintain purges used nonces past their TTL, expired sessions and old
// rate-limit windows.
func (s *Service) Maintain(ctx context.Context) (storage.PurgeResult, error) {
	now := s.now()
	s.lastMaintenance.Store(now.UnixMilli())
	return s.store.Purge(ctx, storage.PurgeCutoffs{
		NoncesUsedBefore:       now.Add(-s.cfg.NonceTTL()),
		SessionsExpiredBy:      now,
		RateWindowsStartBefore: now.Add(-s.cfg.RateRetention()),
	})
}

// maybeMaintain runs Maintain at most once per maintenance interval.
// Failures are logged and never fail the request that triggered it.
func (s *Service) maybeMaintain(ctx context.Context) {
	now := s.now().UnixMilli()
	last := s.lastMaintenance.Load()
	if now-last < s.cfg.MaintenanceInterval().Milliseconds() {
		return
	}
	if !s.lastMaintenance.CompareAndSwap(last, now) {
		return
	}

	res, err := s.Maintain(ctx)
	if err != nil {
		s.logger.Error("maintenance failed", "error", err)
		return
	}
	if res.Total() > 0 {
		s.logger.Debug("maintenance", "nonces", res.Nonces, "sessions", res.Sessions, "rate_limits", res.RateLimits)
	}
}

func decodeSubmission(body []byte) (submitRequest, error) {
	var req submitRequest
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return req, badRequest("invalid JSON input")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return req, invalid("field %q has the wrong type", typeErr.Field)
		}
		return req, badRequest("invalid JSON input")
	}
	if dec.More() {
		return req, badRequest("invalid JSON input")
	}
	return req, nil
}

// windowStart aligns now to the start of its fixed rate-limit window.
func windowStart(now time.Time, window time.Duration) time.Time {
	ms := now.UnixMilli()
	size := window.Milliseconds()
	return time.UnixMilli(ms - ms%size)
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
