package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// LoadLayout loads layout tuning.
// Search order: customPath -> ~/.dude/configs/layout.yaml -> ./configs/layout.yaml -> embedded default
func LoadLayout(customPath string) (LayoutConfig, error) {
	cfg := DefaultLayoutConfig()
	if err := load("layout.yaml", customPath, defaultLayoutYAML, &cfg); err != nil {
		return cfg, err
	}
	// Bands replace rather than merge, so an empty list falls back to the defaults.
	if len(cfg.Platforms.Bands) == 0 {
		cfg.Platforms.Bands = DefaultLayoutConfig().Platforms.Bands
	}
	return cfg, cfg.Validate()
}

// LoadHighScore loads the service settings and applies HIGHSCORE_* overrides
// from the process environment.
// Search order: customPath -> ~/.dude/configs/highscore.yaml -> ./configs/highscore.yaml -> embedded default
func LoadHighScore(customPath string) (HighScoreConfig, error) {
	cfg := DefaultHighScoreConfig()
	if err := load("highscore.yaml", customPath, defaultHighScoreYAML, &cfg); err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// load decodes the first config found into cfg. Fields missing from the
// file keep the values cfg already holds.
func load(name, customPath string, embedded []byte, cfg any) error {
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return nil
	}

	if userCfgPath := userConfigPath(name); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, cfg); err == nil {
				return nil
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join("configs", name)); err == nil {
		if err := yaml.Unmarshal(data, cfg); err == nil {
			return nil
		}
	}

	if err := yaml.Unmarshal(embedded, cfg); err != nil {
		return fmt.Errorf("failed to parse embedded %s: %w", name, err)
	}
	return nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dude", "configs", filename)
}

// LoadEnvFiles loads KEY=VALUE files into the process environment. Missing
// files are skipped and variables already set are never overwritten.
func LoadEnvFiles(paths ...string) error {
	existing := lo.Filter(paths, func(p string, _ int) bool {
		_, err := os.Stat(p)
		return err == nil
	})
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("config: cannot load env files: %w", err)
	}
	return nil
}

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides service settings from HIGHSCORE_* variables.
// Unset or empty variables leave the current value untouched.
func ApplyEnv(cfg *HighScoreConfig, lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("HIGHSCORE_LISTEN"); ok {
		cfg.Listen = v
	}
	if v, ok := get("HIGHSCORE_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := get("HIGHSCORE_ALLOWED_ORIGINS"); ok {
		cfg.AllowedOrigins = SplitOrigins(v)
	}
	if v, ok := get("HIGHSCORE_TRUST_PROXY_HEADERS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: HIGHSCORE_TRUST_PROXY_HEADERS: %w", err)
		}
		cfg.TrustProxyHeaders = b
	}

	int64s := []struct {
		key string
		dst *int64
	}{
		{"HIGHSCORE_SCORE_MIN", &cfg.Scores.Min},
		{"HIGHSCORE_SCORE_MAX", &cfg.Scores.Max},
		{"HIGHSCORE_MAX_SCORE_DELTA", &cfg.Scores.MaxDelta},
	}
	for _, o := range int64s {
		v, ok := get(o.key)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %s: invalid integer %q", o.key, v)
		}
		*o.dst = n
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"HIGHSCORE_MAX_TIMESTAMP_SKEW_SECONDS", &cfg.Security.MaxTimestampSkewSeconds},
		{"HIGHSCORE_NONCE_TTL_SECONDS", &cfg.Security.NonceTTLSeconds},
		{"HIGHSCORE_SESSION_TTL_SECONDS", &cfg.Security.SessionTTLSeconds},
		{"HIGHSCORE_RATE_LIMIT_WINDOW_SECONDS", &cfg.RateLimit.WindowSeconds},
		{"HIGHSCORE_RATE_LIMIT_MAX_REQUESTS", &cfg.RateLimit.MaxRequests},
		{"HIGHSCORE_RATE_LIMIT_RETENTION_SECONDS", &cfg.RateLimit.RetentionSeconds},
		{"HIGHSCORE_LEADERBOARD_DEFAULT_LIMIT", &cfg.Leaderboard.DefaultLimit},
		{"HIGHSCORE_LEADERBOARD_MAX_LIMIT", &cfg.Leaderboard.MaxLimit},
	}
	for _, o := range ints {
		v, ok := get(o.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: invalid integer %q", o.key, v)
		}
		*o.dst = n
	}

	return nil
}

// SplitOrigins parses a comma separated origin allowlist, dropping blanks,
// trailing slashes and duplicates.
func SplitOrigins(raw string) []string {
	origins := lo.Map(strings.Split(raw, ","), func(o string, _ int) string {
		return strings.TrimRight(strings.TrimSpace(o), "/")
	})
	return lo.Uniq(lo.Compact(origins))
}
