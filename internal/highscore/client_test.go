package highscore

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestSanitizeInitials(t *testing.T) {
	tests := map[string]string{
		"abc":    "ABC",
		"ab1c d": "ABC",
		"abcd":   "ABC",
		"x":      "X",
		"":       "UNK",
		"123":    "UNK",
	}
	for in, want := range tests {
		if got := SanitizeInitials(in); got != want {
			t.Errorf("SanitizeInitials(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeScore(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{100, 100},
		{12.9, 12},
		{0, 0},
		{-1, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tt := range tests {
		if got := NormalizeScore(tt.in); got != tt.want {
			t.Errorf("NormalizeScore(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCoerceEntries(t *testing.T) {
	raw := []Entry{
		{Initials: "low", Score: 10},
		{Initials: "zero", Score: 0},
		{Initials: "", Score: 50},
		{Initials: "Top!", Score: 90},
		{Initials: "neg", Score: -5},
	}

	got := coerceEntries(raw, 2)
	want := []Entry{{Initials: "TOP", Score: 90}, {Initials: "UNK", Score: 50}}
	if len(got) != len(want) {
		t.Fatalf("coerceEntries() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestClientTopCache(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	if err := env.client.Submit(ctx, "AAA", 10, nil); err != nil {
		t.Fatal(err)
	}

	if _, fromCache, err := env.client.Top(ctx); err != nil || fromCache {
		t.Fatalf("first Top() = fromCache %v, err %v", fromCache, err)
	}
	if _, fromCache, _ := env.client.Top(ctx); !fromCache {
		t.Error("second Top() within TTL should come from cache")
	}

	env.clock.Advance(DefaultCacheTTL)
	if _, fromCache, _ := env.client.Top(ctx); fromCache {
		t.Error("Top() after TTL should refetch")
	}

	if err := env.client.Submit(ctx, "BBB", 20, nil); err != nil {
		t.Fatal(err)
	}
	entries, fromCache, err := env.client.Top(ctx)
	if err != nil || fromCache {
		t.Fatalf("Top() after submit = fromCache %v, err %v", fromCache, err)
	}
	if len(entries) != 2 || entries[0].Initials != "BBB" {
		t.Errorf("Top() = %+v", entries)
	}
}

func TestClientSurfacesServerError(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.client.Origin = "https://evil.example"

	err := env.client.Post(context.Background(), Submission{Initials: "ABC"})
	if got := status(t, err); got != 403 {
		t.Fatalf("status = %d, want 403", got)
	}
	if err.(*Error).Message != "origin not allowed" {
		t.Errorf("message = %q", err.(*Error).Message)
	}
}

func TestClientLimiter(t *testing.T) {
	l := newClientLimiter(1, 2)
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if !l.Allow("a", t0) || !l.Allow("a", t0) {
		t.Fatal("burst should be allowed")
	}
	if l.Allow("a", t0) {
		t.Error("request beyond burst allowed")
	}
	if !l.Allow("b", t0) {
		t.Error("buckets are not per client")
	}
	if !l.Allow("a", t0.Add(time.Second)) {
		t.Error("bucket did not refill")
	}

	l.Allow("c", t0.Add(limiterIdleTTL+2*time.Second))
	if n := l.size(); n != 1 {
		t.Errorf("idle buckets not pruned, size = %d", n)
	}
}
