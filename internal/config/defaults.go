package config

import (
	_ "embed"
)

//go:embed defaults/layout.yaml
var defaultLayoutYAML []byte

//go:embed defaults/highscore.yaml
var defaultHighScoreYAML []byte

// DefaultLayoutConfig returns the built-in layout tuning.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Field: FieldConfig{Width: 800, Height: 600},
		Physics: PhysicsConfig{
			Gravity:      300,
			JumpVelocity: -330,
			PlayerSpeedX: 160,
		},
		Player: PlayerConfig{BodyWidth: 32, BodyHeight: 48},
		Platforms: PlatformsConfig{
			Width:           400,
			Height:          32,
			GroundY:         568,
			ElevatedCount:   4,
			EdgeEntryMargin: 32,
			Bands: []BandConfig{
				{Base: 460, Jitter: 22},
				{Base: 370, Jitter: 28},
				{Base: 285, Jitter: 32},
				{Base: 200, Jitter: 24},
			},
		},
		Generation: GenerationConfig{
			MaxAttempts:      140,
			CorrectionPasses: 2,
			DefaultSeed:      0xc0ffee,
			AnchorMin:        120,
			AnchorSpan:       120,
			Drift:            260,
			Spread:           90,
		},
		Reach: ReachConfig{
			RiseSafetyMargin:    32,
			MaxDrop:             320,
			MaxEdgeGapFlat:      220,
			MaxEdgeGapAtMaxRise: 120,
			MaxEdgeGapDownward:  260,
		},
		Traps: TrapConfig{
			TraversalPadding:    32,
			SlotHeightPadding:   8,
			SlotRisePadding:     20,
			SlotMinOverlap:      220,
			SlotMaxCenterOffset: 96,
			SideApproachPadding: 108,
			SideEdgePadding:     8,
			SideScanAbove:       180,
			SideScanBelow:       180,
			MaxTopFraction:      0.45,
		},
		Moving: MovingConfig{
			Enabled:             true,
			Indexes:             []int{2},
			Mode:                MovingModeWrap,
			SpeedMin:            40,
			SpeedMax:            90,
			ConservativeJumpGap: 140,
			WrapBuffer:          24,
		},
	}
}

// DefaultHighScoreConfig returns the built-in service settings.
func DefaultHighScoreConfig() HighScoreConfig {
	return HighScoreConfig{
		Listen:                     ":8080",
		DBPath:                     "~/.dude/highscores.db",
		AllowedOrigins:             []string{"http://localhost:8080"},
		RequestTimeoutSeconds:      10,
		MaintenanceIntervalSeconds: 30,
		Scores: ScoreRules{
			Min:      0,
			Max:      1_000_000,
			MaxDelta: 500_000,
		},
		Security: SecurityConfig{
			MaxTimestampSkewSeconds: 30,
			NonceTTLSeconds:         600,
			SessionTTLSeconds:       1800,
		},
		RateLimit: RateLimitConfig{
			WindowSeconds:      60,
			MaxRequests:        12,
			RetentionSeconds:   7200,
			ChallengePerSecond: 2,
			ChallengeBurst:     30,
		},
		Leaderboard: LeaderboardConfig{
			DefaultLimit: 20,
			MaxLimit:     50,
		},
	}
}
