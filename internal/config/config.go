// Package config provides YAML-based configuration loading for the layout
// generator, the moving platform planner and the high-score service.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Moving platform modes.
const (
	MovingModeWrap   = "wrap"
	MovingModeBounce = "bounce"
)

// LayoutConfig contains all tuning for platform layout generation.
type LayoutConfig struct {
	Field      FieldConfig      `yaml:"field"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Player     PlayerConfig     `yaml:"player"`
	Platforms  PlatformsConfig  `yaml:"platforms"`
	Generation GenerationConfig `yaml:"generation"`
	Reach      ReachConfig      `yaml:"reach"`
	Traps      TrapConfig       `yaml:"traps"`
	Moving     MovingConfig     `yaml:"moving_platform"`
}

// FieldConfig is the playfield size in pixels.
type FieldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PhysicsConfig mirrors the arcade physics the player is simulated with.
type PhysicsConfig struct {
	Gravity      float64 `yaml:"gravity"`
	JumpVelocity float64 `yaml:"jump_velocity"`
	PlayerSpeedX float64 `yaml:"player_speed_x"`
}

// PlayerConfig is the player's collision body.
type PlayerConfig struct {
	BodyWidth  float64 `yaml:"body_width"`
	BodyHeight float64 `yaml:"body_height"`
}

// PlatformsConfig defines platform dimensions and vertical bands.
type PlatformsConfig struct {
	Width           float64      `yaml:"width"`
	Height          float64      `yaml:"height"`
	GroundY         float64      `yaml:"ground_y"`
	ElevatedCount   int          `yaml:"elevated_count"`
	EdgeEntryMargin float64      `yaml:"edge_entry_margin"`
	Bands           []BandConfig `yaml:"bands"`
}

// BandConfig is a vertical band with a base y and a symmetric jitter.
type BandConfig struct {
	Base   float64 `yaml:"base"`
	Jitter float64 `yaml:"jitter"`
}

// GenerationConfig controls the randomized placement loop.
type GenerationConfig struct {
	MaxAttempts      int     `yaml:"max_attempts"`
	CorrectionPasses int     `yaml:"correction_passes"`
	DefaultSeed      uint32  `yaml:"default_seed"`
	AnchorMin        float64 `yaml:"anchor_min"`
	AnchorSpan       float64 `yaml:"anchor_span"`
	Drift            float64 `yaml:"drift"`
	Spread           float64 `yaml:"spread"`
}

// ReachConfig is the jump envelope between two platforms.
type ReachConfig struct {
	RiseSafetyMargin    float64 `yaml:"rise_safety_margin"`
	MaxDrop             float64 `yaml:"max_drop"`
	MaxEdgeGapFlat      float64 `yaml:"max_edge_gap_flat"`
	MaxEdgeGapAtMaxRise float64 `yaml:"max_edge_gap_at_max_rise"`
	MaxEdgeGapDownward  float64 `yaml:"max_edge_gap_downward"`
}

// TrapConfig holds the anti-trap thresholds. Padding values are added to
// the player body dimensions to form the final thresholds.
type TrapConfig struct {
	TraversalPadding    float64 `yaml:"traversal_padding"`
	SlotHeightPadding   float64 `yaml:"slot_height_padding"`
	SlotRisePadding     float64 `yaml:"slot_rise_padding"`
	SlotMinOverlap      float64 `yaml:"slot_min_overlap"`
	SlotMaxCenterOffset float64 `yaml:"slot_max_center_offset"`
	SideApproachPadding float64 `yaml:"side_approach_padding"`
	SideEdgePadding     float64 `yaml:"side_edge_padding"`
	SideScanAbove       float64 `yaml:"side_scan_above"`
	SideScanBelow       float64 `yaml:"side_scan_below"`
	MaxTopFraction      float64 `yaml:"max_top_fraction"`
}

// MovingConfig configures horizontally moving platforms.
type MovingConfig struct {
	Enabled             bool    `yaml:"enabled"`
	Indexes             []int   `yaml:"indexes"`
	Mode                string  `yaml:"mode"`
	SpeedMin            float64 `yaml:"speed_min"`
	SpeedMax            float64 `yaml:"speed_max"`
	ConservativeJumpGap float64 `yaml:"conservative_jump_gap"`
	WrapBuffer          float64 `yaml:"wrap_buffer"`
}

// Validate reports the first inconsistent layout setting.
func (c LayoutConfig) Validate() error {
	switch {
	case c.Field.Width <= 0 || c.Field.Height <= 0:
		return errors.New("config: field dimensions must be positive")
	case c.Physics.Gravity <= 0:
		return errors.New("config: physics.gravity must be positive")
	case c.Platforms.Width <= 0 || c.Platforms.Height <= 0:
		return errors.New("config: platform dimensions must be positive")
	case c.Platforms.ElevatedCount < 1:
		return errors.New("config: platforms.elevated_count must be at least 1")
	case len(c.Platforms.Bands) == 0:
		return errors.New("config: platforms.bands must not be empty")
	case c.Generation.MaxAttempts < 1:
		return errors.New("config: generation.max_attempts must be at least 1")
	case c.Moving.SpeedMin < 0 || c.Moving.SpeedMax < c.Moving.SpeedMin:
		return fmt.Errorf("config: moving speed range [%v, %v] is invalid", c.Moving.SpeedMin, c.Moving.SpeedMax)
	case c.Moving.Mode != MovingModeWrap && c.Moving.Mode != MovingModeBounce:
		return fmt.Errorf("config: unknown moving platform mode %q", c.Moving.Mode)
	}
	return nil
}

// HighScoreConfig contains the high-score service settings.
type HighScoreConfig struct {
	Listen                     string            `yaml:"listen"`
	DBPath                     string            `yaml:"db_path"`
	AllowedOrigins             []string          `yaml:"allowed_origins"`
	TrustProxyHeaders          bool              `yaml:"trust_proxy_headers"`
	RequestTimeoutSeconds      int               `yaml:"request_timeout_seconds"`
	MaintenanceIntervalSeconds int               `yaml:"maintenance_interval_seconds"`
	Scores                     ScoreRules        `yaml:"scores"`
	Security                   SecurityConfig    `yaml:"security"`
	RateLimit                  RateLimitConfig   `yaml:"rate_limit"`
	Leaderboard                LeaderboardConfig `yaml:"leaderboard"`
}

// ScoreRules bounds accepted scores.
type ScoreRules struct {
	Min      int64 `yaml:"min"`
	Max      int64 `yaml:"max"`
	MaxDelta int64 `yaml:"max_delta"`
}

// SecurityConfig holds the replay and freshness windows.
type SecurityConfig struct {
	MaxTimestampSkewSeconds int `yaml:"max_timestamp_skew_seconds"`
	NonceTTLSeconds         int `yaml:"nonce_ttl_seconds"`
	SessionTTLSeconds       int `yaml:"session_ttl_seconds"`
}

// RateLimitConfig configures submission and challenge throttling.
type RateLimitConfig struct {
	WindowSeconds      int     `yaml:"window_seconds"`
	MaxRequests        int     `yaml:"max_requests"`
	RetentionSeconds   int     `yaml:"retention_seconds"`
	ChallengePerSecond float64 `yaml:"challenge_per_second"`
	ChallengeBurst     int     `yaml:"challenge_burst"`
}

// LeaderboardConfig bounds leaderboard reads.
type LeaderboardConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

func (c HighScoreConfig) TimestampSkew() time.Duration {
	return time.Duration(c.Security.MaxTimestampSkewSeconds) * time.Second
}

func (c HighScoreConfig) NonceTTL() time.Duration {
	return time.Duration(c.Security.NonceTTLSeconds) * time.Second
}

func (c HighScoreConfig) SessionTTL() time.Duration {
	return time.Duration(c.Security.SessionTTLSeconds) * time.Second
}

func (c HighScoreConfig) RateWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

func (c HighScoreConfig) RateRetention() time.Duration {
	return time.Duration(c.RateLimit.RetentionSeconds) * time.Second
}

func (c HighScoreConfig) MaintenanceInterval() time.Duration {
	return time.Duration(c.MaintenanceIntervalSeconds) * time.Second
}

func (c HighScoreConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Validate reports the first inconsistent service setting.
func (c HighScoreConfig) Validate() error {
	switch {
	case c.Scores.Min < 0 || c.Scores.Max < c.Scores.Min:
		return fmt.Errorf("config: score bounds [%d, %d] are invalid", c.Scores.Min, c.Scores.Max)
	case c.Scores.MaxDelta <= 0:
		return errors.New("config: scores.max_delta must be positive")
	case c.Security.MaxTimestampSkewSeconds <= 0:
		return errors.New("config: security.max_timestamp_skew_seconds must be positive")
	case c.Security.SessionTTLSeconds <= 0:
		return errors.New("config: security.session_ttl_seconds must be positive")
	case c.Security.NonceTTLSeconds < 2*c.Security.MaxTimestampSkewSeconds:
		// A purged nonce must never belong to a payload whose timestamp is still fresh.
		return errors.New("config: security.nonce_ttl_seconds must be at least twice the timestamp skew")
	case c.RateLimit.WindowSeconds <= 0 || c.RateLimit.MaxRequests <= 0:
		return errors.New("config: rate_limit window and max_requests must be positive")
	case c.RateLimit.RetentionSeconds < c.RateLimit.WindowSeconds:
		return errors.New("config: rate_limit.retention_seconds must cover at least one window")
	case c.RateLimit.ChallengePerSecond <= 0 || c.RateLimit.ChallengeBurst <= 0:
		return errors.New("config: challenge limiter rate and burst must be positive")
	case c.Leaderboard.DefaultLimit <= 0 || c.Leaderboard.MaxLimit < c.Leaderboard.DefaultLimit:
		return errors.New("config: leaderboard limits are invalid")
	}
	return nil
}
