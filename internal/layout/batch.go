package layout

// BatchFailure records a variant whose generated layout failed validation.
type BatchFailure struct {
	Variant int
	Err     error
}

// BatchReport summarises a run over many consecutive variants.
type BatchReport struct {
	Count     int
	Passed    int
	Failed    int
	Fallbacks int
	Failures  []BatchFailure
}

// PassRate returns the share of valid layouts as a percentage.
func (r BatchReport) PassRate() float64 {
	if r.Count == 0 {
		return 0
	}
	return float64(r.Passed) / float64(r.Count) * 100
}

// ValidateBatch generates variants 0..count-1 for one run seed and
// validates each result independently of how it was produced.
func (g *Generator) ValidateBatch(count int, runSeed uint32) BatchReport {
	report := BatchReport{Count: count}
	for v := 0; v < count; v++ {
		l := g.Generate(v, runSeed)
		if l.Fallback {
			report.Fallbacks++
		}
		if err := g.Validate(l.Platforms); err != nil {
			report.Failed++
			report.Failures = append(report.Failures, BatchFailure{Variant: v, Err: err})
			continue
		}
		report.Passed++
	}
	return report
}
