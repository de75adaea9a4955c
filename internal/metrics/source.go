// Package metrics builds the metrics, health and report documents printed by
// the personas. Every number that is not derived from tracker state comes
// from a Source, which is a simulator in production and a fixture in tests.
package metrics

import (
	"math/rand/v2"
	"sync"
)

// Source supplies values for named metrics. Int returns a value in
// [min, max) and Float a value in [min, max).
type Source interface {
	Int(metric string, min, max int) int
	Float(metric string, min, max float64) float64
}

// Simulator draws every value uniformly at random. It is not a measurement.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator seeds the generator with seed, or from the runtime when seed
// is zero.
func NewSimulator(seed uint64) *Simulator {
	var src rand.Source
	if seed == 0 {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	} else {
		src = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
	return &Simulator{rng: rand.New(src)}
}

func (s *Simulator) Int(_ string, min, max int) int {
	if max <= min {
		return min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.rng.IntN(max-min)
}

func (s *Simulator) Float(_ string, min, max float64) float64 {
	if max <= min {
		return min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.rng.Float64()*(max-min)
}

// Fixed returns the configured value for a metric and the lower bound for
// everything else.
type Fixed map[string]float64

func (f Fixed) Int(metric string, min, _ int) int {
	if v, ok := f[metric]; ok {
		return int(v)
	}
	return min
}

func (f Fixed) Float(metric string, min, _ float64) float64 {
	if v, ok := f[metric]; ok {
		return v
	}
	return min
}
