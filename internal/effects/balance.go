package effects

import (
	"math"
	"sync/atomic"
)

// Balance is a stereo balance control. Pan is in [-1, 1]: negative values
// attenuate the right channel, positive values the left, 0 leaves both at
// unity. Pan is stored as uint32 (bit-cast float32) for lock-free reads from
// the audio thread.
type Balance struct {
	pan atomic.Uint32
}

func NewBalance(pan float32) *Balance {
	b := &Balance{}
	b.SetPan(pan)
	return b
}

// SetPan clamps pan to [-1, 1].
func (b *Balance) SetPan(pan float32) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	b.pan.Store(math.Float32bits(pan))
}

func (b *Balance) Pan() float32 {
	return math.Float32frombits(b.pan.Load())
}

func (b *Balance) Process(l, r float32) (float32, float32) {
	p := b.Pan()
	switch {
	case p < 0:
		r *= 1 + p
	case p > 0:
		l *= 1 - p
	}
	return l, r
}

func (b *Balance) Reset() {}
