// Package beepaudio plays clips through the faiface/beep speaker. It backs
// the terminal player, where no ebiten window drives the audio context.
package beepaudio

import (
	"bytes"
	"fmt"
	"io/fs"
	"math"
	"path"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
)

// output is the slice of the speaker package the sink uses.
type output interface {
	Init(sr beep.SampleRate) error
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

type speakerOutput struct{}

func (speakerOutput) Init(sr beep.SampleRate) error {
	return speaker.Init(sr, sr.N(time.Second/20))
}
func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Clear()               { speaker.Clear() }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }

type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }

func decode(name string, data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	src := readSeekNopCloser{bytes.NewReader(data)}
	switch strings.ToLower(path.Ext(name)) {
	case ".ogg", ".oga":
		return vorbis.Decode(src)
	case ".wav":
		return wav.Decode(src)
	}
	return nil, beep.Format{}, fmt.Errorf("unsupported clip format %q", path.Ext(name))
}

// Sink plays one clip at a time. The speaker is initialized at the sample
// rate of the first clip and every later clip must match it.
type Sink struct {
	out   output
	fsys  fs.FS
	files map[string][]byte

	sampleRate beep.SampleRate
	name       string
	stream     beep.StreamSeekCloser
	ctrl       *beep.Ctrl
	vol        *effects.Volume
	pan        *effects.Pan
	gen        int
	finished   bool

	gain    float32
	panning float32
}

func NewSink(fsys fs.FS) *Sink {
	return newSink(fsys, speakerOutput{})
}

func newSink(fsys fs.FS, out output) *Sink {
	return &Sink{out: out, fsys: fsys, files: make(map[string][]byte), gain: 1}
}

func (s *Sink) load(name string) ([]byte, error) {
	if data, ok := s.files[name]; ok {
		return data, nil
	}
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, err
	}
	s.files[name] = data
	return data, nil
}

// SetClip replaces the current clip with name, paused at its first sample.
func (s *Sink) SetClip(name string) error {
	data, err := s.load(name)
	if err != nil {
		return err
	}
	stream, format, err := decode(name, data)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if s.sampleRate == 0 {
		if err := s.out.Init(format.SampleRate); err != nil {
			stream.Close()
			return err
		}
		s.sampleRate = format.SampleRate
	} else if format.SampleRate != s.sampleRate {
		stream.Close()
		return fmt.Errorf("%s: sample rate %d Hz, speaker runs at %d Hz", name, format.SampleRate, s.sampleRate)
	}

	s.out.Clear()
	s.out.Lock()
	if s.stream != nil {
		s.stream.Close()
	}
	s.stream = stream
	s.name = name
	s.out.Unlock()
	s.arm(true)
	return nil
}

// arm wraps the current stream in a fresh control chain and hands it to the
// output. The stream keeps its position.
func (s *Sink) arm(paused bool) {
	s.out.Lock()
	s.gen++
	gen := s.gen
	s.finished = false
	s.ctrl = &beep.Ctrl{Streamer: s.stream, Paused: paused}
	s.vol = &effects.Volume{Streamer: s.ctrl, Base: 2}
	applyGain(s.vol, s.gain)
	s.pan = &effects.Pan{Streamer: s.vol, Pan: float64(s.panning)}
	chain := beep.Seq(s.pan, beep.Callback(func() {
		// runs on the speaker goroutine with the lock held
		if gen == s.gen {
			s.finished = true
		}
	}))
	s.out.Unlock()
	s.out.Play(chain)
}

func (s *Sink) Clip() string {
	s.out.Lock()
	defer s.out.Unlock()
	return s.name
}

// Play resumes the current clip. A clip that ran out resumes from its
// current position, or from the beginning if it is still at the end.
func (s *Sink) Play() {
	s.out.Lock()
	if s.ctrl == nil {
		s.out.Unlock()
		return
	}
	if !s.finished {
		s.ctrl.Paused = false
		s.out.Unlock()
		return
	}
	if s.stream.Position() >= s.stream.Len() {
		if err := s.stream.Seek(0); err != nil {
			// leave the clip finished so IsPlaying stays false
			s.out.Unlock()
			return
		}
	}
	s.out.Unlock()
	s.arm(false)
}

func (s *Sink) Pause() {
	s.out.Lock()
	defer s.out.Unlock()
	if s.ctrl != nil {
		s.ctrl.Paused = true
	}
}

func (s *Sink) IsPlaying() bool {
	s.out.Lock()
	defer s.out.Unlock()
	return s.ctrl != nil && !s.ctrl.Paused && !s.finished
}

func (s *Sink) Position() uint64 {
	s.out.Lock()
	defer s.out.Unlock()
	if s.stream == nil {
		return 0
	}
	return uint64(s.stream.Position())
}

func (s *Sink) SetPosition(sample uint64) error {
	s.out.Lock()
	defer s.out.Unlock()
	if s.stream == nil {
		return fmt.Errorf("beepaudio: no clip set")
	}
	if sample > uint64(s.stream.Len()) {
		return fmt.Errorf("beepaudio: seek to %d past clip end %d", sample, s.stream.Len())
	}
	return s.stream.Seek(int(sample))
}

// SetVolume takes a linear gain in [0, 1].
func (s *Sink) SetVolume(v float32) {
	s.out.Lock()
	defer s.out.Unlock()
	s.gain = float32(math.Max(0, math.Min(1, float64(v))))
	if s.vol != nil {
		applyGain(s.vol, s.gain)
	}
}

func (s *Sink) SetPan(p float32) {
	s.out.Lock()
	defer s.out.Unlock()
	s.panning = float32(math.Max(-1, math.Min(1, float64(p))))
	if s.pan != nil {
		s.pan.Pan = float64(s.panning)
	}
}

func (s *Sink) Close() error {
	s.out.Clear()
	s.out.Lock()
	defer s.out.Unlock()
	if s.stream == nil {
		return nil
	}
	err := s.stream.Close()
	s.stream, s.ctrl, s.vol, s.pan = nil, nil, nil, nil
	return err
}

// applyGain maps a linear gain onto beep's exponential volume.
func applyGain(v *effects.Volume, gain float32) {
	if gain <= 0 {
		v.Silent = true
		v.Volume = 0
		return
	}
	v.Silent = false
	v.Volume = math.Log2(float64(gain))
}

// Probe decodes the header of a clip and reports its length in sample
// frames and its sample rate.
func Probe(fsys fs.FS, name string) (uint64, int, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return 0, 0, err
	}
	stream, format, err := decode(name, data)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", name, err)
	}
	defer stream.Close()
	return uint64(stream.Len()), int(format.SampleRate), nil
}
