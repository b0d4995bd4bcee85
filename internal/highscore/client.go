package highscore

import (
	"bytes"
	"cmp"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Client defaults.
const (
	DefaultBaseURL  = "/api/highscores"
	DefaultLimit    = 20
	DefaultTimeout  = 5 * time.Second
	DefaultCacheTTL = 60 * time.Second
)

// Client talks to the high-score API. Leaderboard reads are cached for
// CacheTTL and the cache is dropped after every accepted submission.
type Client struct {
	BaseURL  string
	Origin   string // sent as the Origin header when set
	Limit    int
	CacheTTL time.Duration
	HTTP     *http.Client

	now func() time.Time

	mu       sync.Mutex
	cached   []Entry
	cachedAt time.Time
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Limit:    DefaultLimit,
		CacheTTL: DefaultCacheTTL,
		HTTP:     &http.Client{Timeout: DefaultTimeout},
		now:      time.Now,
	}
}

// Challenge requests a new submission session.
func (c *Client) Challenge(ctx context.Context) (Challenge, error) {
	var ch Challenge
	err := c.do(ctx, http.MethodGet, c.BaseURL+"?action=challenge", nil, &ch)
	return ch, err
}

// Submit signs and posts a score under a fresh challenge. Initials and
// score are sanitized the same way the game does before sending.
func (c *Client) Submit(ctx context.Context, initials string, score float64, meta Metadata) error {
	ch, err := c.Challenge(ctx)
	if err != nil {
		return err
	}

	nonce, err := NewNonce()
	if err != nil {
		return err
	}

	sub := Submission{
		Initials:  SanitizeInitials(initials),
		Score:     NormalizeScore(score),
		SessionID: ch.SessionID,
		Timestamp: c.now().Unix(),
		Nonce:     nonce,
		Metadata:  meta,
	}
	if sub.Signature, err = Sign(ch.SubmitToken, sub); err != nil {
		return err
	}
	return c.Post(ctx, sub)
}

// Post sends an already signed submission.
func (c *Client) Post(ctx context.Context, sub Submission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodPost, c.BaseURL, body, nil); err != nil {
		return err
	}

	c.mu.Lock()
	c.cached, c.cachedAt = nil, time.Time{}
	c.mu.Unlock()
	return nil
}

// Top returns the leaderboard, from cache when it is fresh enough.
func (c *Client) Top(ctx context.Context) (entries []Entry, fromCache bool, err error) {
	c.mu.Lock()
	if c.cached != nil && c.now().Sub(c.cachedAt) < c.CacheTTL {
		entries = c.cached
		c.mu.Unlock()
		return entries, true, nil
	}
	c.mu.Unlock()

	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.Limit))
	q.Set("_t", strconv.FormatInt(c.now().UnixMilli(), 10))
	sep := "?"
	if strings.Contains(c.BaseURL, "?") {
		sep = "&"
	}

	var raw []Entry
	if err := c.do(ctx, http.MethodGet, c.BaseURL+sep+q.Encode(), nil, &raw); err != nil {
		return nil, false, err
	}

	entries = coerceEntries(raw, c.Limit)
	c.mu.Lock()
	c.cached, c.cachedAt = entries, c.now()
	c.mu.Unlock()
	return entries, false, nil
}

// do performs one request. Non-2xx responses become *Error carrying the
// server's message.
func (c *Client) do(ctx context.Context, method, target string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Origin != "" {
		req.Header.Set("Origin", c.Origin)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("highscore: %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload errorBody
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if json.Unmarshal(data, &payload) != nil || payload.Error == "" {
			payload.Error = strings.TrimSpace(string(data))
		}
		return &Error{Status: resp.StatusCode, Message: payload.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("highscore: cannot decode response: %w", err)
	}
	return nil
}

// SanitizeInitials uppercases, keeps A-Z only and truncates to three
// letters. An empty result becomes "UNK".
func SanitizeInitials(initials string) string {
	safe := NormalizeInitials(initials)
	if len(safe) > 3 {
		safe = safe[:3]
	}
	if safe == "" {
		return "UNK"
	}
	return safe
}

// NormalizeScore floors finite non-negative scores; anything else is 0.
func NormalizeScore(score float64) int64 {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return 0
	}
	if score >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Floor(score))
}

// NewNonce returns a random 32 character hex nonce.
func NewNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// coerceEntries drops non-positive scores, re-sanitizes initials, sorts
// descending and trims to limit.
func coerceEntries(raw []Entry, limit int) []Entry {
	entries := lo.FilterMap(raw, func(e Entry, _ int) (Entry, bool) {
		e.Initials = SanitizeInitials(e.Initials)
		return e, e.Score > 0
	})
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
