package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/cbegin/bgmloop-go/internal/effects"
)

// bytesPerFrame is one stereo float32 little-endian frame.
const bytesPerFrame = 8

// panReader applies an effect to a stereo float32 stream as it is read.
type panReader struct {
	src io.ReadSeeker
	fx  effects.Effector
}

func newPanReader(src io.ReadSeeker, fx effects.Effector) *panReader {
	return &panReader{src: src, fx: fx}
}

func (r *panReader) Read(p []byte) (int, error) {
	p = p[:len(p)/bytesPerFrame*bytesPerFrame]
	if len(p) == 0 {
		return 0, nil
	}
	n, err := r.src.Read(p)
	// Top up to a whole frame so the effect never sees half a sample pair.
	if rem := n % bytesPerFrame; rem != 0 && err == nil {
		var m int
		m, err = io.ReadFull(r.src, p[n:n+bytesPerFrame-rem])
		n += m
		if errors.Is(err, io.ErrUnexpectedEOF) {
			err = io.EOF
		}
	}
	n -= n % bytesPerFrame
	for i := 0; i < n; i += bytesPerFrame {
		l := math.Float32frombits(binary.LittleEndian.Uint32(p[i:]))
		rt := math.Float32frombits(binary.LittleEndian.Uint32(p[i+4:]))
		l, rt = r.fx.Process(l, rt)
		binary.LittleEndian.PutUint32(p[i:], math.Float32bits(l))
		binary.LittleEndian.PutUint32(p[i+4:], math.Float32bits(rt))
	}
	return n, err
}

func (r *panReader) Seek(offset int64, whence int) (int64, error) {
	return r.src.Seek(offset, whence)
}
