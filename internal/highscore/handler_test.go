package highscore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/dude-platformer/internal/config"
	"github.com/vovakirdan/dude-platformer/internal/storage"
)

const allowedOrigin = "http://localhost:8080"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	srv    *httptest.Server
	svc    *Service
	client *Client
	clock  *fakeClock
	cfg    config.HighScoreConfig
}

// testConfig matches the settings the security checks were written against.
func testConfig() config.HighScoreConfig {
	cfg := config.DefaultHighScoreConfig()
	cfg.AllowedOrigins = []string{allowedOrigin}
	cfg.Scores = config.ScoreRules{Min: 1, Max: 1_000_000, MaxDelta: 500_000}
	cfg.Security = config.SecurityConfig{MaxTimestampSkewSeconds: 30, NonceTTLSeconds: 120, SessionTTLSeconds: 180}
	cfg.RateLimit.WindowSeconds = 60
	cfg.RateLimit.MaxRequests = 12
	return cfg
}

func newTestEnv(t *testing.T, cfg config.HighScoreConfig) *testEnv {
	t.Helper()

	store, err := storage.Open(filepath.Join(t.TempDir(), "highscores.db"))
	if err != nil {
		t.Fatalf("storage.Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)}
	svc := NewService(store, cfg, nil, WithClock(clock.Now))
	srv := httptest.NewServer(NewHandler(svc, cfg, nil).Routes())
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL + "/api/highscores")
	client.Origin = allowedOrigin
	client.now = clock.Now

	return &testEnv{srv: srv, svc: svc, client: client, clock: clock, cfg: cfg}
}

// prepare fetches a challenge and returns an unsigned submission for it.
func (e *testEnv) prepare(t *testing.T, score int64, nonce string) (Submission, string) {
	t.Helper()
	ch, err := e.client.Challenge(context.Background())
	if err != nil {
		t.Fatalf("Challenge() failed: %v", err)
	}
	return Submission{
		Initials:  "ABC",
		Score:     score,
		SessionID: ch.SessionID,
		Timestamp: e.clock.Now().Unix(),
		Nonce:     nonce,
	}, ch.SubmitToken
}

func mustSign(t *testing.T, token string, sub Submission) Submission {
	t.Helper()
	sig, err := Sign(token, sub)
	if err != nil {
		t.Fatalf("Sign() failed: %v", err)
	}
	sub.Signature = sig
	return sub
}

// status converts a client result to the HTTP status the server sent.
func status(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return http.StatusCreated
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("unexpected transport error: %v", err)
	}
	return apiErr.Status
}

func do(t *testing.T, method, url, origin, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestSubmitHappyPath(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	err := env.client.Submit(ctx, "abc", 100, Metadata{"wave": 3, "mode": "classic"})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	entries, fromCache, err := env.client.Top(ctx)
	if err != nil {
		t.Fatalf("Top() failed: %v", err)
	}
	if fromCache {
		t.Error("first Top() should not be served from cache")
	}
	want := Entry{Initials: "ABC", Score: 100, CreatedAt: "2026-03-01T12:00:30Z"}
	if len(entries) != 1 || entries[0] != want {
		t.Errorf("Top() = %+v, want [%+v]", entries, want)
	}
}

func TestChallengeResponse(t *testing.T) {
	env := newTestEnv(t, testConfig())

	resp := do(t, http.MethodGet, env.srv.URL+"/highscores?action=challenge", allowedOrigin, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var ch Challenge
	if err := json.NewDecoder(resp.Body).Decode(&ch); err != nil {
		t.Fatal(err)
	}
	if ch.SessionID == "" || len(ch.SubmitToken) < 40 {
		t.Errorf("challenge = %+v", ch)
	}
	if want := env.clock.Now().Add(180 * time.Second).Unix(); ch.ExpiresAt != want {
		t.Errorf("ExpiresAt = %d, want %d", ch.ExpiresAt, want)
	}
	if ch.MaxTimestampSkewSeconds != 30 {
		t.Errorf("MaxTimestampSkewSeconds = %d", ch.MaxTimestampSkewSeconds)
	}
}

func TestSubmitRejections(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.MaxRequests = 100
	env := newTestEnv(t, cfg)

	tests := []struct {
		name   string
		before func(*Submission)
		after  func(*Submission)
		want   int
	}{
		{"valid", nil, nil, http.StatusCreated},
		{"valid metadata", func(s *Submission) { s.Metadata = Metadata{"wave": 3, "mode": "classic"} }, nil, http.StatusCreated},
		{"initials normalized before verification", nil, func(s *Submission) { s.Initials = "a.b.c" }, http.StatusCreated},
		{"uppercase signature", nil, func(s *Submission) { s.Signature = strings.ToUpper(s.Signature) }, http.StatusCreated},
		{"invalid initials", func(s *Submission) { s.Initials = "1234" }, nil, http.StatusUnprocessableEntity},
		{"score above max", func(s *Submission) { s.Score = 1_000_001 }, nil, http.StatusUnprocessableEntity},
		{"score below min", func(s *Submission) { s.Score = 0 }, nil, http.StatusUnprocessableEntity},
		{"short nonce", func(s *Submission) { s.Nonce = "abc" }, nil, http.StatusUnprocessableEntity},
		{"nested metadata", func(s *Submission) { s.Metadata = Metadata{"k": map[string]any{"x": 1}} }, nil, http.StatusUnprocessableEntity},
		{"missing signature", nil, func(s *Submission) { s.Signature = "" }, http.StatusUnprocessableEntity},
		{"stale timestamp", func(s *Submission) { s.Timestamp -= 300 }, nil, http.StatusUnauthorized},
		{"future timestamp", func(s *Submission) { s.Timestamp += 300 }, nil, http.StatusUnauthorized},
		{"unknown session", func(s *Submission) { s.SessionID = "no-such-session" }, nil, http.StatusUnauthorized},
		{"bad signature", nil, func(s *Submission) { s.Signature = "deadbeef" }, http.StatusUnauthorized},
		{"tampered score", nil, func(s *Submission) { s.Score = 999 }, http.StatusUnauthorized},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, token := env.prepare(t, 100, fmt.Sprintf("nonce_case_%d", i))
			if tt.before != nil {
				tt.before(&sub)
			}
			sub = mustSign(t, token, sub)
			if tt.after != nil {
				tt.after(&sub)
			}

			if got := status(t, env.client.Post(context.Background(), sub)); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSubmitReplay(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	sub, token := env.prepare(t, 400, "nonce_replay_1")
	sub = mustSign(t, token, sub)

	if got := status(t, env.client.Post(ctx, sub)); got != http.StatusCreated {
		t.Fatalf("first submit = %d, want 201", got)
	}
	if got := status(t, env.client.Post(ctx, sub)); got != http.StatusConflict {
		t.Fatalf("replayed submit = %d, want 409", got)
	}

	entries, err := env.svc.Leaderboard(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("replay stored a second entry: %+v", entries)
	}
}

func TestSubmitRegressionAndDelta(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	base, token := env.prepare(t, 0, "")
	post := func(score int64, nonce string) int {
		sub := base
		sub.Score, sub.Nonce = score, nonce
		return status(t, env.client.Post(ctx, mustSign(t, token, sub)))
	}

	steps := []struct {
		score int64
		nonce string
		want  int
	}{
		{500, "nonce_reg_0001", http.StatusCreated},
		{100, "nonce_reg_0002", http.StatusUnprocessableEntity},
		// the rejected attempt must not have consumed its nonce
		{600, "nonce_reg_0002", http.StatusCreated},
		{600 + 500_000 + 1, "nonce_reg_0003", http.StatusUnprocessableEntity},
		{600 + 500_000, "nonce_reg_0004", http.StatusCreated},
		{600 + 500_000, "nonce_reg_0005", http.StatusCreated},
	}
	for i, s := range steps {
		if got := post(s.score, s.nonce); got != s.want {
			t.Errorf("step %d (score %d): status = %d, want %d", i, s.score, got, s.want)
		}
	}
}

func TestSubmitRateLimit(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	// Rejected attempts count toward the window too.
	for i := 0; i < 3; i++ {
		sub, _ := env.prepare(t, 100, fmt.Sprintf("nonce_bad_%d", i))
		sub.Signature = "deadbeef"
		if got := status(t, env.client.Post(ctx, sub)); got != http.StatusUnauthorized {
			t.Fatalf("bad signature = %d, want 401", got)
		}
	}

	for i := 1; i <= 9; i++ {
		if got := status(t, env.client.Submit(ctx, "RLT", float64(900+i), nil)); got != http.StatusCreated {
			t.Fatalf("request %d = %d, want 201", i+3, got)
		}
	}

	if got := status(t, env.client.Submit(ctx, "RLT", 1000, nil)); got != http.StatusTooManyRequests {
		t.Fatalf("request 13 = %d, want 429", got)
	}

	env.clock.Advance(time.Minute)
	if got := status(t, env.client.Submit(ctx, "RLT", 1000, nil)); got != http.StatusCreated {
		t.Errorf("first request of the next window = %d, want 201", got)
	}
}

func TestSubmitSessionChecks(t *testing.T) {
	ctx := context.Background()

	t.Run("ip mismatch", func(t *testing.T) {
		env := newTestEnv(t, testConfig())
		ch, err := env.svc.IssueChallenge(ctx, "198.51.100.9")
		if err != nil {
			t.Fatal(err)
		}
		sub := mustSign(t, ch.SubmitToken, Submission{
			Initials:  "ABC",
			Score:     100,
			SessionID: ch.SessionID,
			Timestamp: env.clock.Now().Unix(),
			Nonce:     "nonce_ip_0001",
		})
		if got := status(t, env.client.Post(ctx, sub)); got != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", got)
		}
	})

	t.Run("expired", func(t *testing.T) {
		env := newTestEnv(t, testConfig())
		sub, token := env.prepare(t, 100, "nonce_exp_0001")
		env.clock.Advance(env.cfg.SessionTTL())
		sub.Timestamp = env.clock.Now().Unix()
		if got := status(t, env.client.Post(ctx, mustSign(t, token, sub))); got != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", got)
		}
	})
}

func TestSubmitMalformedBodies(t *testing.T) {
	env := newTestEnv(t, testConfig())
	url := env.srv.URL + "/highscores"

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty", "", http.StatusBadRequest},
		{"truncated", "{", http.StatusBadRequest},
		{"null", "null", http.StatusBadRequest},
		{"array", "[1]", http.StatusBadRequest},
		{"trailing value", `{} {}`, http.StatusBadRequest},
		{"wrong field type", `{"initials": 5}`, http.StatusUnprocessableEntity},
		{"fractional score", `{"initials":"ABC","score":1.5}`, http.StatusUnprocessableEntity},
		{"too large", `{"initials":"` + strings.Repeat("A", maxBodyBytes) + `"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, url, "", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			var body errorBody
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
				t.Errorf("expected JSON error body, got %v / %+v", err, body)
			}
		})
	}
}

func TestLeaderboardOrderingAndLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Leaderboard = config.LeaderboardConfig{DefaultLimit: 2, MaxLimit: 3}
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	for _, s := range []struct {
		initials string
		score    float64
	}{{"AAA", 300}, {"BBB", 500}, {"CCC", 300}, {"DDD", 100}} {
		if err := env.client.Submit(ctx, s.initials, s.score, nil); err != nil {
			t.Fatalf("Submit(%s) failed: %v", s.initials, err)
		}
		env.clock.Advance(time.Second)
	}

	get := func(query string) []string {
		resp := do(t, http.MethodGet, env.srv.URL+"/highscores"+query, "", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s = %d", query, resp.StatusCode)
		}
		var entries []Entry
		if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
			t.Fatal(err)
		}
		initials := make([]string, len(entries))
		for i, e := range entries {
			initials[i] = e.Initials
		}
		return initials
	}

	tests := []struct {
		query string
		want  string
	}{
		{"", "BBB,AAA"},
		{"?limit=abc", "BBB,AAA"},
		{"?limit=0", "BBB,AAA"},
		{"?limit=1", "BBB"},
		{"?limit=1000", "BBB,AAA,CCC"},
	}
	for _, tt := range tests {
		if got := strings.Join(get(tt.query), ","); got != tt.want {
			t.Errorf("GET %q = %s, want %s", tt.query, got, tt.want)
		}
	}
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, testConfig())
	url := env.srv.URL + "/api/highscores"
	const evil = "https://evil.example"

	resp := do(t, http.MethodOptions, url, allowedOrigin, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("allowed preflight = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != allowedOrigin {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if !strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "POST") {
		t.Error("preflight does not allow POST")
	}

	if resp := do(t, http.MethodOptions, url, evil, ""); resp.StatusCode != http.StatusForbidden {
		t.Errorf("disallowed preflight = %d, want 403", resp.StatusCode)
	}
	if resp := do(t, http.MethodPost, url, evil, "{}"); resp.StatusCode != http.StatusForbidden {
		t.Errorf("disallowed POST = %d, want 403", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, url, evil, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET from other origin = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("other origin received Access-Control-Allow-Origin %q", got)
	}

	if resp := do(t, http.MethodGet, url, "", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("GET without origin = %d, want 200", resp.StatusCode)
	}
}

func TestCORSWildcard(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"*"}
	env := newTestEnv(t, cfg)

	resp := do(t, http.MethodOptions, env.srv.URL+"/highscores", "https://any.example", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://any.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRouting(t *testing.T) {
	env := newTestEnv(t, testConfig())

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodDelete, "/highscores", http.StatusMethodNotAllowed},
		{http.MethodPut, "/api/highscores", http.StatusMethodNotAllowed},
		{http.MethodGet, "/highscores?action=reset", http.StatusBadRequest},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		resp := do(t, tt.method, env.srv.URL+tt.path, "", "")
		if resp.StatusCode != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, resp.StatusCode, tt.want)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s %s Content-Type = %q", tt.method, tt.path, ct)
		}
		data, _ := io.ReadAll(resp.Body)
		if tt.want == http.StatusMethodNotAllowed && !strings.Contains(string(data), tt.method) {
			t.Errorf("405 body %q does not name the method", data)
		}
	}
}

func TestMaintainPurgesStaleState(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	sub, token := env.prepare(t, 100, "nonce_maint_1")
	if got := status(t, env.client.Post(ctx, mustSign(t, token, sub))); got != http.StatusCreated {
		t.Fatalf("submit = %d", got)
	}

	env.clock.Advance(3 * time.Hour)
	res, err := env.svc.Maintain(ctx)
	if err != nil {
		t.Fatalf("Maintain() failed: %v", err)
	}
	if res.Nonces != 1 || res.Sessions != 1 || res.RateLimits != 1 {
		t.Errorf("Maintain() = %+v, want one row of each", res)
	}

	entries, _ := env.svc.Leaderboard(ctx, 0)
	if len(entries) != 1 {
		t.Error("maintenance removed leaderboard entries")
	}
}
