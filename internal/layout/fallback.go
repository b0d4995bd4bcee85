package layout

// staircase is a hand-checked layout that climbs right to left in even
// steps. It validates under the default tuning.
var staircase = [][2]float64{
	{555, 440},
	{439, 350},
	{338, 270},
	{241, 190},
}

func (g *Generator) fallbackPlatforms() []Platform {
	platforms := make([]Platform, 0, len(staircase)+1)
	platforms = append(platforms, g.ground())
	for _, step := range staircase {
		platforms = append(platforms, g.elevated(step[0], step[1]))
	}
	return platforms
}

// Fallback returns the staircase layout tagged with the variant's seed.
func (g *Generator) Fallback(variantIndex int, runSeed uint32) Layout {
	return Layout{
		Seed:      DeriveSeed(variantIndex, runSeed),
		Platforms: g.fallbackPlatforms(),
		Tuning:    g.tuning,
		Attempts:  0,
		Fallback:  true,
	}
}
