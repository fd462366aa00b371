package emotion

import "math/rand/v2"

// Sampler yields uniform samples in [0,1) for the probability gate.
type Sampler interface {
	Float64() float64
}

type globalSampler struct{}

func (globalSampler) Float64() float64 {
	return rand.Float64()
}

// NewSeededSampler returns a reproducible sampler.
func NewSeededSampler(seed uint64) Sampler {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// FixedSampler always returns the same sample.
type FixedSampler float64

func (f FixedSampler) Float64() float64 {
	return float64(f)
}
