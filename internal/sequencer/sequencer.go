// Package sequencer picks the next ambient clip. Playback alternates between
// Part0 and Part1; each Part1 turn draws one of three segments. Volume, pan
// and the silence before the following clip are randomized per clip.
package sequencer

import (
	"errors"
	"fmt"

	"github.com/cbegin/bgmloop-go/internal/randrange"
)

var (
	ErrEmptyPartition = errors.New("empty catalog partition")
	ErrInvalidClip    = errors.New("clip has unknown part or segment")
)

type ErrorKind int

const (
	EmptyPartition ErrorKind = iota + 1
	InvalidClip
)

// ConfigError reports a catalog that cannot serve a selection.
type ConfigError struct {
	Kind     ErrorKind
	Part     Part
	Segment  Segment
	Resource string // set for InvalidClip
}

func (e *ConfigError) Error() string {
	switch e.Kind {
	case EmptyPartition:
		if e.Part == Part0 {
			return fmt.Sprintf("sequencer: %v: %s", ErrEmptyPartition, e.Part)
		}
		return fmt.Sprintf("sequencer: %v: %s segment %s", ErrEmptyPartition, e.Part, e.Segment)
	case InvalidClip:
		return fmt.Sprintf("sequencer: %v: %q (%s, %s)", ErrInvalidClip, e.Resource, e.Part, e.Segment)
	}
	return "sequencer: configuration error"
}

func (e *ConfigError) Unwrap() error {
	switch e.Kind {
	case EmptyPartition:
		return ErrEmptyPartition
	case InvalidClip:
		return ErrInvalidClip
	}
	return nil
}

// PartRanges bounds the per-clip gain and stereo pan for one part.
type PartRanges struct {
	Volume randrange.Range
	Pan    randrange.Range
}

// Config holds every randomized range. Intervals are in seconds.
type Config struct {
	Part0         PartRanges
	Part1         PartRanges
	Part0Interval randrange.Range
	Part1Interval [3]randrange.Range // indexed by Segment
}

func DefaultConfig() Config {
	return Config{
		Part0:         PartRanges{Volume: randrange.R(0.5, 1), Pan: randrange.R(-0.82, 0.82)},
		Part1:         PartRanges{Volume: randrange.R(0.5, 1), Pan: randrange.R(-0.4, 0.4)},
		Part0Interval: randrange.R(1, 4),
		Part1Interval: [3]randrange.Range{
			SegmentA: randrange.R(1, 4),
			SegmentB: randrange.R(1, 5),
			SegmentC: randrange.R(1, 5),
		},
	}
}

func (c Config) Validate() error {
	for _, p := range []struct {
		part Part
		r    PartRanges
	}{{Part0, c.Part0}, {Part1, c.Part1}} {
		if err := p.r.Volume.Validate(); err != nil {
			return fmt.Errorf("%s volume: %w", p.part, err)
		}
		if !p.r.Volume.Within(0, 1) {
			return fmt.Errorf("%s volume %v outside [0, 1]", p.part, p.r.Volume)
		}
		if err := p.r.Pan.Validate(); err != nil {
			return fmt.Errorf("%s pan: %w", p.part, err)
		}
		if !p.r.Pan.Within(-1, 1) {
			return fmt.Errorf("%s pan %v outside [-1, 1]", p.part, p.r.Pan)
		}
	}
	for sl := slotPart0; sl < numSlots; sl++ {
		iv := c.interval(sl)
		if err := iv.Validate(); err != nil {
			return fmt.Errorf("interval %d: %w", sl, err)
		}
		if iv.Min < 0 {
			return fmt.Errorf("interval %d: negative wait %v", sl, iv)
		}
	}
	return nil
}

func (c Config) ranges(p Part) PartRanges {
	if p == Part0 {
		return c.Part0
	}
	return c.Part1
}

func (c Config) interval(sl slot) randrange.Range {
	if sl == slotPart0 {
		return c.Part0Interval
	}
	return c.Part1Interval[sl-slotPart1A]
}

// State is the sequencer position between transitions. WaitElapsed grows
// while the sink is idle; a transition is due once it reaches WaitTarget.
type State struct {
	Part        Part
	Segment     Segment
	WaitTarget  float32
	WaitElapsed float32
}

// Initial is the state before the first clip: Part0, segment A.
func Initial() State {
	return State{Part: Part0, Segment: SegmentA}
}

// Due reports whether the wait after the last clip has elapsed.
func (s State) Due() bool {
	return s.WaitElapsed >= s.WaitTarget
}

// Selection is what the caller applies to the sink: set clip, volume, pan,
// then play. Wait is the silence to leave after the clip finishes.
type Selection struct {
	Clip   Clip
	Volume float32
	Pan    float32
	Wait   float32
}

// Select draws a clip, volume, pan and wait for (p, s). Segment is ignored
// for Part0.
func Select(p Part, s Segment, cat *Catalog, cfg Config, src randrange.Source) (Selection, error) {
	sl, ok := slotFor(p, s)
	if !ok {
		return Selection{}, &ConfigError{Kind: InvalidClip, Part: p, Segment: s}
	}
	clips := cat.parts[sl]
	if len(clips) == 0 {
		return Selection{}, &ConfigError{Kind: EmptyPartition, Part: p, Segment: s}
	}
	r := cfg.ranges(p)
	return Selection{
		Clip:   clips[src.IntN(len(clips))],
		Volume: src.Float32In(r.Volume),
		Pan:    src.Float32In(r.Pan),
		Wait:   src.Float32In(cfg.interval(sl)),
	}, nil
}

// Start selects the first clip for st, normally Initial().
func Start(st State, cat *Catalog, cfg Config, src randrange.Source) (Selection, State, error) {
	sel, err := Select(st.Part, st.Segment, cat, cfg, src)
	if err != nil {
		return Selection{}, st, err
	}
	return sel, State{Part: st.Part, Segment: st.Segment, WaitTarget: sel.Wait}, nil
}

// Advance moves to the other part, drawing a fresh segment when entering
// Part1, and selects the next clip. On error cur is returned unchanged.
func Advance(cur State, cat *Catalog, cfg Config, src randrange.Source) (Selection, State, error) {
	next := State{Part: cur.Part.Next(), Segment: cur.Segment}
	if next.Part == Part1 {
		next.Segment = segments[src.IntN(len(segments))]
	}
	sel, err := Select(next.Part, next.Segment, cat, cfg, src)
	if err != nil {
		return Selection{}, cur, err
	}
	next.WaitTarget = sel.Wait
	return sel, next, nil
}
