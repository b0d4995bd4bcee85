package layout

// RNG is a deterministic 32-bit generator (mulberry32). Every value it
// produces depends only on the seed and the number of prior draws, so a
// layout can be rebuilt from its seed alone.
type RNG struct {
	state uint32
}

// NewRNG creates a new RNG with the given seed. Zero is a valid seed.
func NewRNG(seed uint32) *RNG {
	return &RNG{state: seed}
}

// Next returns the next random uint32.
func (r *RNG) Next() uint32 {
	r.state += 0x6d2b79f5
	t := r.state
	z := (t ^ t>>15) * (1 | t)
	z ^= z + (z^z>>7)*(61|z)
	return z ^ z>>14
}

// Float returns a random float64 in [0, 1).
func (r *RNG) Float() float64 {
	return float64(r.Next()) / 4294967296
}

// Signed returns a random float64 in [-1, 1).
func (r *RNG) Signed() float64 {
	return r.Float()*2 - 1
}

// DeriveSeed mixes a variant index into a run seed with the golden-ratio
// constant so neighbouring variants get unrelated streams.
func DeriveSeed(variantIndex int, runSeed uint32) uint32 {
	if variantIndex < 0 {
		variantIndex = 0
	}
	return uint32(variantIndex+1)*0x9e3779b1 ^ runSeed
}
