// Package audio plays clips through ebiten's audio context.
package audio

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"

	"github.com/cbegin/bgmloop-go/internal/effects"
)

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (clip is %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// decodedStream is the part of vorbis.Stream and wav.Stream the sink needs.
type decodedStream interface {
	io.ReadSeeker
	SampleRate() int
}

func decode(name string, data []byte) (decodedStream, error) {
	src := bytes.NewReader(data)
	switch strings.ToLower(path.Ext(name)) {
	case ".ogg", ".oga":
		return vorbis.DecodeF32(src)
	case ".wav":
		return wav.DecodeF32(src)
	}
	return nil, fmt.Errorf("unsupported clip format %q", path.Ext(name))
}

// Sink plays one clip at a time from fsys. Positions are in sample frames at
// the clip's native rate; every clip must share the rate of the first one.
type Sink struct {
	mu         sync.Mutex
	fsys       fs.FS
	files      map[string][]byte
	player     *ebitaudio.Player
	name       string
	sampleRate int
	volume     float64
	balance    *effects.Balance
}

func NewSink(fsys fs.FS) *Sink {
	return &Sink{
		fsys:    fsys,
		files:   make(map[string][]byte),
		volume:  1,
		balance: effects.NewBalance(0),
	}
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

// SetClip stops the current clip and prepares name for playback from its
// first sample. Volume and pan carry over.
func (s *Sink) SetClip(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(name)
	if err != nil {
		return err
	}
	stream, err := decode(name, data)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	ctx, err := sharedAudioContext(stream.SampleRate())
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	pl, err := ctx.NewPlayerF32(newPanReader(stream, s.balance))
	if err != nil {
		return err
	}
	pl.SetVolume(s.volume)
	if s.player != nil {
		s.player.Pause()
		_ = s.player.Close()
	}
	s.player = pl
	s.name = name
	s.sampleRate = stream.SampleRate()
	return nil
}

func (s *Sink) Clip() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Sink) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		s.player.Play()
	}
}

func (s *Sink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		s.player.Pause()
	}
}

func (s *Sink) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player != nil && s.player.IsPlaying()
}

// Position returns the sample frame the listener hears right now.
func (s *Sink) Position() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return 0
	}
	return durationToSamples(s.player.Position(), s.sampleRate)
}

func (s *Sink) SetPosition(sample uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return fmt.Errorf("audio: no clip set")
	}
	return s.player.SetPosition(samplesToDuration(sample, s.sampleRate))
}

func (s *Sink) SetVolume(v float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = clamp(float64(v), 0, 1)
	if s.player != nil {
		s.player.SetVolume(s.volume)
	}
}

// SetPan takes effect on the audio thread without restarting the clip.
func (s *Sink) SetPan(p float32) {
	s.balance.SetPan(p)
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return nil
	}
	s.player.Pause()
	err := s.player.Close()
	s.player = nil
	return err
}

func durationToSamples(d time.Duration, sampleRate int) uint64 {
	if d <= 0 || sampleRate <= 0 {
		return 0
	}
	return uint64(d) * uint64(sampleRate) / uint64(time.Second)
}

// samplesToDuration rounds up so that converting back lands on sample.
func samplesToDuration(sample uint64, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	sr := uint64(sampleRate)
	return time.Duration((sample*uint64(time.Second) + sr - 1) / sr)
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
