package randrange

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat32InStaysWithinBounds(t *testing.T) {
	src := NewSource(7)
	r := R(-0.82, 0.82)
	lo, hi := r.Max, r.Min
	for i := 0; i < 20000; i++ {
		v := src.Float32In(r)
		if !r.Contains(v) {
			t.Fatalf("draw %d: %v outside %v", i, v, r)
		}
		lo = min(lo, v)
		hi = max(hi, v)
	}
	// coverage sanity: both ends of the interval get close
	assert.Less(t, lo, float32(-0.78))
	assert.Greater(t, hi, float32(0.78))
}

func TestFloat32InDegenerateRange(t *testing.T) {
	src := NewSource(1)
	assert.Equal(t, float32(0.5), src.Float32In(R(0.5, 0.5)))
}

func TestIntNCoversAllValues(t *testing.T) {
	src := NewSource(42)
	var seen [3]int
	for i := 0; i < 3000; i++ {
		seen[src.IntN(3)]++
	}
	for i, n := range seen {
		if n < 800 {
			t.Fatalf("value %d drawn %d times out of 3000", i, n)
		}
	}
}

func TestSeededSourcesAreReproducible(t *testing.T) {
	a, b := NewSource(99), NewSource(99)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float32In(R(1, 5)), b.Float32In(R(1, 5)))
		assert.Equal(t, a.IntN(10), b.IntN(10))
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, R(1, 4).Validate())
	assert.NoError(t, R(2, 2).Validate())
	assert.Error(t, R(5, 1).Validate())
	assert.True(t, R(-0.4, 0.4).Within(-1, 1))
	assert.False(t, R(0.5, 1.2).Within(0, 1))
}
