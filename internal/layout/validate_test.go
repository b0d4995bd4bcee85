package layout_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/vovakirdan/dude-platformer/internal/config"
	"github.com/vovakirdan/dude-platformer/internal/layout"
)

func ground() layout.Platform {
	return layout.Platform{X: 400, Y: 568, Width: 800, Height: 32, ScaleX: 2}
}

func plat(x, y float64) layout.Platform {
	return layout.Platform{X: x, Y: y, Width: 400, Height: 32, ScaleX: 1}
}

func TestTuningDerivation(t *testing.T) {
	tn := layout.DefaultTuning()

	checks := []struct {
		name      string
		got, want float64
	}{
		{"theoretical rise", tn.TheoreticalRise, 181},
		{"max upward rise", tn.MaxUpwardRise, 149},
		{"min traversal gap", tn.MinTraversalGap, 64},
		{"slot dy min", tn.SlotDyMin, 56},
		{"slot dy max", tn.SlotDyMax, 129},
		{"side approach depth", tn.SideApproachDepth, 140},
		{"side approach edge buffer", tn.SideApproachEdgeBuffer, 24},
		{"x min", tn.XMin, 232},
		{"x max", tn.XMax, 568},
		{"max top y", tn.MaxTopY, 270},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestCanJumpBetween(t *testing.T) {
	tests := []struct {
		name           string
		source, target layout.Platform
		expected       bool
	}{
		{"ground to first band", ground(), plat(232, 461), true},
		{"level gap at downward limit", plat(200, 400), plat(860, 400), true},
		{"level gap beyond downward limit", plat(200, 400), plat(861, 400), false},
		{"max rise at narrowest gap", plat(200, 400), plat(720, 251), true},
		{"max rise one pixel too far", plat(200, 400), plat(721, 251), false},
		{"rise above envelope", plat(200, 400), plat(200, 250), false},
		{"mid rise at interpolated limit", plat(200, 400), plat(752, 300), true},
		{"mid rise past interpolated limit", plat(200, 400), plat(753, 300), false},
		{"drop at max", plat(200, 100), plat(200, 420), true},
		{"drop beyond max", plat(200, 100), plat(200, 421), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := layout.CanJumpBetween(tc.source, tc.target); got != tc.expected {
				t.Errorf("CanJumpBetween() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name      string
		platforms []layout.Platform
		code      string
		contains  string
	}{
		{
			name:      "ground only",
			platforms: []layout.Platform{ground()},
			code:      layout.CodeTooFewPlatforms,
		},
		{
			name:      "platform out of reach",
			platforms: []layout.Platform{ground(), plat(400, 300)},
			code:      layout.CodeUnreachable,
			contains:  "unreachable platforms: 1",
		},
		{
			name:      "narrow corridor",
			platforms: []layout.Platform{ground(), plat(232, 460), plat(672, 460)},
			code:      layout.CodeNarrowCorridor,
			contains:  "gap=40",
		},
		{
			name:      "vertical slot",
			platforms: []layout.Platform{ground(), plat(300, 460), plat(340, 380)},
			code:      layout.CodeSlotTrap,
			contains:  "dy=80, overlap=360",
		},
		{
			name:      "side approach pinched above and below",
			platforms: []layout.Platform{ground(), plat(20, 460), plat(400, 380), plat(20, 300)},
			code:      layout.CodeSideApproach,
			contains:  "blocked left approach on platform 2",
		},
		{
			name:      "moving platform only reachable over a long gap",
			platforms: []layout.Platform{ground(), plat(232, 420), plat(812, 410)},
			code:      layout.CodeMovingIsolated,
			contains:  "moving platform 2",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := layout.Validate(tc.platforms)
			var ve layout.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Code != tc.code {
				t.Errorf("code = %s, want %s (%s)", ve.Code, tc.code, ve.Message)
			}
			if tc.contains != "" && !strings.Contains(ve.Message, tc.contains) {
				t.Errorf("message %q does not contain %q", ve.Message, tc.contains)
			}
		})
	}
}

func TestValidateCoverageWithoutMovingPlatform(t *testing.T) {
	cfg := config.DefaultLayoutConfig()
	cfg.Moving.Enabled = false
	gen := layout.NewGenerator(cfg)

	low := []layout.Platform{ground(), plat(232, 420), plat(812, 410)}
	var ve layout.ValidationError
	if err := gen.Validate(low); !errors.As(err, &ve) || ve.Code != layout.CodeLowCoverage {
		t.Errorf("expected %s, got %v", layout.CodeLowCoverage, err)
	}
}

func TestValidateAcceptsGenerated(t *testing.T) {
	l := layout.Generate(0, 12345)
	if err := layout.Validate(l.Platforms); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestValidationErrorFormat(t *testing.T) {
	err := layout.ValidationError{Code: "X", Message: "boom"}
	if err.Error() != "[X] boom" {
		t.Errorf("Error() = %q", err.Error())
	}
}
