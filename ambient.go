package bgmloop

import (
	"fmt"

	"github.com/cbegin/bgmloop-go/internal/sequencer"
)

// Ambient plays short clips back to back, alternating Part0 and Part1 with a
// random pause between them. Call Update once per frame.
type Ambient struct {
	cfg     config
	sink    Sink
	catalog *sequencer.Catalog
	state   sequencer.State
	current sequencer.Selection
	started bool
	played  int
}

func NewAmbient(sink Sink, clips []sequencer.Clip, opts ...Option) (*Ambient, error) {
	cfg := buildConfig(opts)
	if err := cfg.seq.Validate(); err != nil {
		return nil, fmt.Errorf("sequencer config: %w", err)
	}
	cat, err := sequencer.NewCatalog(clips)
	if err != nil {
		return nil, err
	}
	return &Ambient{
		cfg:     cfg,
		sink:    sink,
		catalog: cat,
		state:   sequencer.Initial(),
	}, nil
}

// Start plays a Part0 clip. When autoplay is off it only loads the clip.
func (a *Ambient) Start() error {
	sel, next, err := sequencer.Start(sequencer.Initial(), a.catalog, a.cfg.seq, a.cfg.src)
	if err != nil {
		return err
	}
	if err := a.apply(sel, a.cfg.autoplay); err != nil {
		return err
	}
	a.state = next
	a.started = a.cfg.autoplay
	return nil
}

// Play starts a clip loaded by Start with autoplay off. The sequence does not
// advance until playback has started once.
func (a *Ambient) Play() {
	a.sink.Play()
	a.started = true
}

// Update advances the wait timer by dt seconds while the sink is idle and
// plays the next clip once the wait has elapsed.
func (a *Ambient) Update(dt float32) error {
	if !a.started || a.sink.IsPlaying() {
		return nil
	}
	if dt > 0 {
		a.state.WaitElapsed += dt
	}
	if !a.state.Due() {
		return nil
	}
	sel, next, err := sequencer.Advance(a.state, a.catalog, a.cfg.seq, a.cfg.src)
	if err != nil {
		return err
	}
	if err := a.apply(sel, true); err != nil {
		return err
	}
	a.state = next
	return nil
}

func (a *Ambient) apply(sel sequencer.Selection, play bool) error {
	if err := setClip(a.sink, sel.Clip.Resource); err != nil {
		return err
	}
	a.sink.SetVolume(sel.Volume)
	a.sink.SetPan(sel.Pan)
	if play {
		a.sink.Play()
	}
	a.current = sel
	a.played++
	a.cfg.logf("clip %s (%s %s) volume %.2f pan %+.2f, then wait %.2fs",
		sel.Clip.Resource, sel.Clip.Part, sel.Clip.Segment, sel.Volume, sel.Pan, sel.Wait)
	return nil
}

func (a *Ambient) State() sequencer.State { return a.state }

// Current is the most recently selected clip.
func (a *Ambient) Current() sequencer.Selection { return a.current }

// Played counts clips handed to the sink.
func (a *Ambient) Played() int { return a.played }

func (a *Ambient) Catalog() *sequencer.Catalog { return a.catalog }

// Status renders the sequencer position for a progress display.
func (a *Ambient) Status() string {
	s := a.state
	seg := s.Segment.String()
	if s.Part == sequencer.Part0 {
		seg = "-"
	}
	return fmt.Sprintf("Part: %s  Segment: %s\n"+
		"Clip: %s\n"+
		"Volume: %.2f  Pan: %+.2f\n"+
		"Wait: %.2f/%.2fs\n"+
		"Clips played: %d",
		s.Part, seg, a.current.Clip.Resource, a.current.Volume, a.current.Pan,
		min(s.WaitElapsed, s.WaitTarget), s.WaitTarget, a.played)
}
