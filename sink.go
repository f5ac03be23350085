// Package bgmloop drives background music from a per-frame update loop: a
// Looper keeps one long track inside its tagged loop points, and an Ambient
// player strings short clips together at random.
package bgmloop

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math/rand/v2"

	"github.com/cbegin/bgmloop-go/internal/randrange"
	"github.com/cbegin/bgmloop-go/internal/sequencer"
)

var (
	ErrMissingResource = errors.New("missing audio resource")
	ErrNoEnding        = errors.New("no ending clip configured")
)

// Sink is the audio output both players drive. Positions are sample frames
// of the current clip.
type Sink interface {
	SetClip(resource string) error
	Play()
	IsPlaying() bool
	Position() uint64
	SetPosition(sample uint64) error
	SetVolume(v float32)
	SetPan(p float32)
}

// setClip reports empty names and files the sink cannot find as
// ErrMissingResource.
func setClip(s Sink, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrMissingResource)
	}
	if err := s.SetClip(name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w %q: %w", ErrMissingResource, name, err)
		}
		return err
	}
	return nil
}

type Option func(*config)

type config struct {
	autoplay bool
	ending   string
	logger   *log.Logger
	src      randrange.Source
	seq      sequencer.Config
}

func defaultConfig() config {
	return config{autoplay: true, seq: sequencer.DefaultConfig()}
}

func buildConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.src == nil {
		cfg.src = randrange.NewSource(rand.Uint64())
	}
	return cfg
}

// WithAutoplay controls whether Start begins playback. Default true.
func WithAutoplay(enabled bool) Option {
	return func(cfg *config) {
		cfg.autoplay = enabled
	}
}

// WithEnding gives a Looper a clip to switch to when End is called.
func WithEnding(resource string) Option {
	return func(cfg *config) {
		cfg.ending = resource
	}
}

// WithLogger enables loop and clip transition logging.
func WithLogger(l *log.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// WithSource injects the random source used by Ambient.
func WithSource(src randrange.Source) Option {
	return func(cfg *config) {
		cfg.src = src
	}
}

// WithSeed is WithSource(randrange.NewSource(seed)).
func WithSeed(seed uint64) Option {
	return func(cfg *config) {
		cfg.src = randrange.NewSource(seed)
	}
}

// WithSequencerConfig replaces the default volume, pan and wait ranges.
func WithSequencerConfig(c sequencer.Config) Option {
	return func(cfg *config) {
		cfg.seq = c
	}
}

func (c *config) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
