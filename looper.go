package bgmloop

import (
	"fmt"

	"github.com/cbegin/bgmloop-go/internal/looper"
	"github.com/cbegin/bgmloop-go/internal/looppoint"
)

// Track is a loopable clip and the metadata tags read from it.
type Track struct {
	Name string
	Tags map[string]string
}

// Looper repeats the tagged region of one track. Call Update once per frame.
type Looper struct {
	cfg   config
	sink  Sink
	track Track
	ctrl  *looper.Controller
	loops int
	// started is set once playback has been asked for
	started bool
}

// NewLooper parses the track's loop tags. A malformed tag fails with a
// *looppoint.ParseError; absent tags disable looping.
func NewLooper(sink Sink, track Track, opts ...Option) (*Looper, error) {
	if track.Name == "" {
		return nil, fmt.Errorf("%w: track has no name", ErrMissingResource)
	}
	r, err := looppoint.Parse(track.Tags)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", track.Name, err)
	}
	return &Looper{
		cfg:   buildConfig(opts),
		sink:  sink,
		track: track,
		ctrl:  looper.New(r),
	}, nil
}

// Start loads the track into the sink and plays it when autoplay is on.
func (l *Looper) Start() error {
	if err := setClip(l.sink, l.track.Name); err != nil {
		return err
	}
	r := l.ctrl.Range()
	if r.Enabled() {
		l.cfg.logf("loaded %s: loop %d..%d", l.track.Name, r.Start, r.End)
	} else {
		l.cfg.logf("loaded %s: no loop points, playing through", l.track.Name)
	}
	if l.cfg.autoplay {
		l.Play()
	}
	return nil
}

// Play starts playback manually.
func (l *Looper) Play() {
	l.started = true
	l.sink.Play()
}

// Update checks the playback position and seeks back to the loop start once
// the loop end is reached. It does nothing while the sink is not playing,
// except that a started track which ran out at its loop end wraps and
// resumes, as happens when the loop end is the last sample of the file.
func (l *Looper) Update() error {
	playing := l.sink.IsPlaying()
	if !playing && !l.started {
		return nil
	}
	seek, ok := l.ctrl.Tick(l.sink.Position())
	if !ok {
		return nil
	}
	if err := l.sink.SetPosition(seek.Target); err != nil {
		return fmt.Errorf("loop %s: %w", l.track.Name, err)
	}
	if !playing {
		l.sink.Play()
	}
	l.loops++
	l.cfg.logf("looped %s (%d)", l.track.Name, l.loops)
	return nil
}

// End stops looping and plays the ending clip once. Calls after the first
// are no-ops.
func (l *Looper) End() error {
	if l.cfg.ending == "" {
		return ErrNoEnding
	}
	if l.ctrl.Ended() {
		return nil
	}
	// load first so a missing clip leaves the loop running
	if err := setClip(l.sink, l.cfg.ending); err != nil {
		return err
	}
	play, _ := l.ctrl.ForceEnd(l.cfg.ending)
	l.started = true
	l.sink.Play()
	l.cfg.logf("ending %s with %s", l.track.Name, play.Resource)
	return nil
}

// HasEnding reports whether End has a clip to switch to.
func (l *Looper) HasEnding() bool { return l.cfg.ending != "" }

func (l *Looper) Ended() bool { return l.ctrl.Ended() }

// Loops returns how many times playback has wrapped.
func (l *Looper) Loops() int { return l.loops }

func (l *Looper) Range() looppoint.Range { return l.ctrl.Range() }

func (l *Looper) Progress() looper.Progress {
	p := l.ctrl.Progress(l.sink.Position())
	p.Name = l.track.Name
	return p
}
