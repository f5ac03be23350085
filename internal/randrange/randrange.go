// Package randrange provides closed float intervals and an injectable
// random source for drawing from them.
package randrange

import (
	"fmt"
	"math/rand/v2"
)

// Range is a closed interval [Min, Max].
type Range struct {
	Min float32 `yaml:"min"`
	Max float32 `yaml:"max"`
}

// R is shorthand for Range{Min: min, Max: max}.
func R(min, max float32) Range {
	return Range{Min: min, Max: max}
}

func (r Range) Validate() error {
	if r.Min > r.Max {
		return fmt.Errorf("range min %v greater than max %v", r.Min, r.Max)
	}
	return nil
}

// Contains reports whether v lies within the interval, bounds included.
func (r Range) Contains(v float32) bool {
	return v >= r.Min && v <= r.Max
}

// Within reports whether r is fully inside [lo, hi].
func (r Range) Within(lo, hi float32) bool {
	return r.Min >= lo && r.Max <= hi
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}

// Source draws uniform values. Implementations need not be safe for
// concurrent use.
type Source interface {
	// Float32In returns a value in [r.Min, r.Max].
	Float32In(r Range) float32
	// IntN returns a value in [0, n). It panics if n <= 0.
	IntN(n int) int
}

type pcgSource struct {
	rng *rand.Rand
}

// NewSource returns a reproducible Source seeded with seed.
func NewSource(seed uint64) Source {
	return &pcgSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *pcgSource) Float32In(r Range) float32 {
	if r.Max <= r.Min {
		return r.Min
	}
	v := r.Min + s.rng.Float32()*(r.Max-r.Min)
	// float rounding can land one ulp past Max
	if v > r.Max {
		v = r.Max
	}
	return v
}

func (s *pcgSource) IntN(n int) int {
	return s.rng.IntN(n)
}
