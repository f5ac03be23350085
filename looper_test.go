package bgmloop

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/bgmloop-go/internal/looppoint"
)

func loopTrack() Track {
	return Track{Name: "field.ogg", Tags: map[string]string{"LOOPSTART": "1000", "LOOPLENGTH": "500", "TITLE": "Field"}}
}

func TestLooperSeeksAtLoopEnd(t *testing.T) {
	sink := NewVirtualSink(1000, map[string]uint64{"field.ogg": 5000})
	l, err := NewLooper(sink, loopTrack())
	require.NoError(t, err)
	require.NoError(t, l.Start())
	require.True(t, sink.IsPlaying(), "autoplay is on by default")

	require.NoError(t, sink.SetPosition(1499))
	require.NoError(t, l.Update())
	assert.Equal(t, uint64(1499), sink.Position())
	assert.Equal(t, 0, l.Loops())

	require.NoError(t, sink.SetPosition(1500))
	require.NoError(t, l.Update())
	assert.Equal(t, uint64(1000), sink.Position(), "seek applied in the same update")
	assert.Equal(t, 1, l.Loops())

	require.NoError(t, l.Update())
	assert.Equal(t, 1, l.Loops(), "position back inside the loop, no second seek")
}

func TestLooperSkipsTickWhileStopped(t *testing.T) {
	sink := NewVirtualSink(1000, map[string]uint64{"field.ogg": 5000})
	l, err := NewLooper(sink, loopTrack(), WithAutoplay(false))
	require.NoError(t, err)
	require.NoError(t, l.Start())
	assert.False(t, sink.IsPlaying())

	require.NoError(t, sink.SetPosition(4000))
	require.NoError(t, l.Update())
	assert.Equal(t, uint64(4000), sink.Position(), "no seek on a stopped track")

	l.Play()
	require.NoError(t, l.Update())
	assert.Equal(t, uint64(1000), sink.Position())
}

func TestLooperWithoutTagsPlaysThrough(t *testing.T) {
	sink := NewVirtualSink(1000, map[string]uint64{"plain.ogg": 3000})
	l, err := NewLooper(sink, Track{Name: "plain.ogg"})
	require.NoError(t, err)
	require.NoError(t, l.Start())
	for i := 0; i < 10; i++ {
		sink.Advance(0.5)
		require.NoError(t, l.Update())
	}
	assert.Equal(t, 0, l.Loops())
	assert.False(t, sink.IsPlaying())
	assert.Equal(t, float64(0), l.Progress().Percent)
}

func TestLooperMalformedTag(t *testing.T) {
	_, err := NewLooper(NewVirtualSink(1000, nil), Track{Name: "bad.ogg", Tags: map[string]string{"LOOPSTART": "12a"}})
	var pe *looppoint.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "LOOPSTART", pe.Tag)
}

func TestLooperMissingResource(t *testing.T) {
	_, err := NewLooper(NewVirtualSink(1000, nil), Track{})
	assert.ErrorIs(t, err, ErrMissingResource)

	l, err := NewLooper(NewVirtualSink(1000, nil), Track{Name: "gone.ogg"})
	require.NoError(t, err)
	assert.ErrorIs(t, l.Start(), ErrMissingResource)
}

func TestLooperEnd(t *testing.T) {
	sink := NewVirtualSink(1000, map[string]uint64{"field.ogg": 5000, "ending.ogg": 800})
	l, err := NewLooper(sink, loopTrack(), WithEnding("ending.ogg"))
	require.NoError(t, err)
	require.True(t, l.HasEnding())
	require.NoError(t, l.Start())

	require.NoError(t, l.End())
	assert.True(t, l.Ended())
	assert.Equal(t, "ending.ogg", sink.Clip())
	assert.True(t, sink.IsPlaying())

	calls := len(sink.Calls())
	require.NoError(t, l.End())
	assert.Len(t, sink.Calls(), calls, "second End must not touch the sink")

	// the ending clip runs past the loop end without being pulled back
	require.NoError(t, sink.SetPosition(1600))
	require.NoError(t, l.Update())
	assert.Equal(t, uint64(1600), sink.Position())
	assert.Equal(t, 0, l.Loops())
}

func TestLooperEndWithoutEnding(t *testing.T) {
	sink := NewVirtualSink(1000, map[string]uint64{"field.ogg": 5000})
	l, err := NewLooper(sink, loopTrack())
	require.NoError(t, err)
	require.NoError(t, l.Start())
	assert.True(t, errors.Is(l.End(), ErrNoEnding))
	assert.False(t, l.Ended())
}

func TestLooperEndMissingClip(t *testing.T) {
	sink := NewVirtualSink(1000, map[string]uint64{"field.ogg": 5000})
	l, err := NewLooper(sink, loopTrack(), WithEnding("nope.ogg"))
	require.NoError(t, err)
	require.NoError(t, l.Start())
	assert.ErrorIs(t, l.End(), ErrMissingResource)
	assert.ErrorIs(t, l.End(), ErrMissingResource, "a failed End must not latch")
	assert.False(t, l.Ended())
	assert.Equal(t, "field.ogg", sink.Clip())

	require.NoError(t, sink.SetPosition(1500))
	require.NoError(t, l.Update())
	assert.Equal(t, uint64(1000), sink.Position(), "loop keeps running after a failed End")
	assert.Equal(t, 1, l.Loops())
}

func TestLooperWrapsWhenLoopEndIsTrackEnd(t *testing.T) {
	track := Track{Name: "field.ogg", Tags: map[string]string{"LOOPSTART": "1000", "LOOPLENGTH": "4000"}}
	sink := NewVirtualSink(1000, map[string]uint64{"field.ogg": 5000})
	l, err := NewLooper(sink, track)
	require.NoError(t, err)
	require.NoError(t, l.Start())

	sink.Advance(10)
	require.False(t, sink.IsPlaying(), "sink stops at end of file")
	require.NoError(t, l.Update())
	assert.Equal(t, uint64(1000), sink.Position())
	assert.True(t, sink.IsPlaying())
	assert.Equal(t, 1, l.Loops())
}

func TestLooperProgressAndLogging(t *testing.T) {
	var buf bytes.Buffer
	sink := NewVirtualSink(1000, map[string]uint64{"field.ogg": 5000})
	l, err := NewLooper(sink, loopTrack(), WithLogger(log.New(&buf, "", 0)))
	require.NoError(t, err)
	require.NoError(t, l.Start())

	require.NoError(t, sink.SetPosition(750))
	p := l.Progress()
	assert.Equal(t, "field.ogg", p.Name)
	assert.Equal(t, 50.0, p.Percent)
	assert.Contains(t, p.String(), "Loop Sample: 1500")

	require.NoError(t, sink.SetPosition(1500))
	require.NoError(t, l.Update())
	assert.True(t, strings.Contains(buf.String(), "looped field.ogg (1)"), buf.String())
}
