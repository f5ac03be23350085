package bgmloop

import (
	"fmt"
	"io/fs"

	"github.com/cbegin/bgmloop-go/internal/sequencer"
)

// SinkOp names a call made on a VirtualSink.
type SinkOp string

const (
	OpSetClip     SinkOp = "set_clip"
	OpPlay        SinkOp = "play"
	OpSetPosition SinkOp = "set_position"
	OpSetVolume   SinkOp = "set_volume"
	OpSetPan      SinkOp = "set_pan"
)

type SinkCall struct {
	Op       SinkOp
	Resource string
	Value    float64
}

// VirtualSink is a Sink that plays against a simulated clock instead of an
// audio device. Clip lengths are given in sample frames.
type VirtualSink struct {
	sampleRate int
	lengths    map[string]uint64

	clip    string
	pos     float64
	playing bool
	volume  float32
	pan     float32
	calls   []SinkCall
}

func NewVirtualSink(sampleRate int, lengths map[string]uint64) *VirtualSink {
	return &VirtualSink{sampleRate: sampleRate, lengths: lengths, volume: 1}
}

func (s *VirtualSink) record(op SinkOp, resource string, v float64) {
	s.calls = append(s.calls, SinkCall{Op: op, Resource: resource, Value: v})
}

func (s *VirtualSink) SetClip(resource string) error {
	if _, ok := s.lengths[resource]; !ok {
		return fmt.Errorf("virtual sink: %q: %w", resource, fs.ErrNotExist)
	}
	s.clip = resource
	s.pos = 0
	s.playing = false
	s.record(OpSetClip, resource, 0)
	return nil
}

func (s *VirtualSink) Play() {
	if s.clip == "" {
		return
	}
	if s.pos >= float64(s.lengths[s.clip]) {
		s.pos = 0
	}
	s.playing = true
	s.record(OpPlay, s.clip, 0)
}

func (s *VirtualSink) IsPlaying() bool { return s.playing }

func (s *VirtualSink) Position() uint64 { return uint64(s.pos) }

func (s *VirtualSink) SetPosition(sample uint64) error {
	if s.clip == "" {
		return fmt.Errorf("virtual sink: no clip set")
	}
	s.pos = float64(sample)
	s.record(OpSetPosition, s.clip, float64(sample))
	return nil
}

func (s *VirtualSink) SetVolume(v float32) {
	s.volume = v
	s.record(OpSetVolume, s.clip, float64(v))
}

func (s *VirtualSink) SetPan(p float32) {
	s.pan = p
	s.record(OpSetPan, s.clip, float64(p))
}

func (s *VirtualSink) Clip() string    { return s.clip }
func (s *VirtualSink) Volume() float32 { return s.volume }
func (s *VirtualSink) Pan() float32    { return s.pan }

// Calls returns every call made on the sink, oldest first.
func (s *VirtualSink) Calls() []SinkCall { return s.calls }

// Advance moves the clock forward by seconds. Playback stops at clip end.
func (s *VirtualSink) Advance(seconds float64) {
	if !s.playing {
		return
	}
	s.pos += seconds * float64(s.sampleRate)
	if end := float64(s.lengths[s.clip]); s.pos >= end {
		s.pos = end
		s.playing = false
	}
}

// ScheduledClip is a clip start observed during SimulateAmbient.
type ScheduledClip struct {
	At float64 // seconds from start
	sequencer.Selection
}

// SimulateAmbient runs an Ambient player for seconds of virtual time in
// steps of tick and returns every clip it started.
func SimulateAmbient(clips []sequencer.Clip, lengths map[string]uint64, sampleRate int, seconds, tick float64, opts ...Option) ([]ScheduledClip, error) {
	if tick <= 0 {
		return nil, fmt.Errorf("tick must be positive")
	}
	sink := NewVirtualSink(sampleRate, lengths)
	amb, err := NewAmbient(sink, clips, append(opts, WithAutoplay(true))...)
	if err != nil {
		return nil, err
	}
	if err := amb.Start(); err != nil {
		return nil, err
	}
	out := []ScheduledClip{{At: 0, Selection: amb.Current()}}
	played := amb.Played()
	for now := tick; now <= seconds; now += tick {
		sink.Advance(tick)
		if err := amb.Update(float32(tick)); err != nil {
			return out, err
		}
		if amb.Played() != played {
			played = amb.Played()
			out = append(out, ScheduledClip{At: now, Selection: amb.Current()})
		}
	}
	return out, nil
}

// LoopReport summarizes a SimulateLoop run.
type LoopReport struct {
	Range    [2]uint64
	Loops    int
	Seeks    []uint64 // position observed at each wrap
	Final    uint64
	Finished bool // playback ran off the end of the track
}

// SimulateLoop plays a track of length frames through a Looper for seconds
// of virtual time. endAt, when positive, triggers End at that time.
func SimulateLoop(track Track, length uint64, sampleRate int, seconds, tick, endAt float64, opts ...Option) (LoopReport, error) {
	var rep LoopReport
	if tick <= 0 {
		return rep, fmt.Errorf("tick must be positive")
	}
	lengths := map[string]uint64{track.Name: length}
	if ending := buildConfig(opts).ending; ending != "" {
		lengths[ending] = length
	}
	sink := NewVirtualSink(sampleRate, lengths)
	l, err := NewLooper(sink, track, append(opts, WithAutoplay(true))...)
	if err != nil {
		return rep, err
	}
	if err := l.Start(); err != nil {
		return rep, err
	}
	r := l.Range()
	rep.Range = [2]uint64{r.Start, r.End}
	for now := tick; now <= seconds; now += tick {
		sink.Advance(tick)
		if endAt > 0 && now >= endAt && !l.Ended() {
			if err := l.End(); err != nil {
				return rep, err
			}
		}
		before := sink.Position()
		if err := l.Update(); err != nil {
			return rep, err
		}
		if l.Loops() > rep.Loops {
			rep.Loops = l.Loops()
			rep.Seeks = append(rep.Seeks, before)
		}
		if !sink.IsPlaying() {
			rep.Finished = true
			break
		}
	}
	rep.Final = sink.Position()
	return rep, nil
}
