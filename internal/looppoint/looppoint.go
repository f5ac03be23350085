// Package looppoint parses sample loop points from track metadata tags.
package looppoint

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	TagStart  = "LOOPSTART"
	TagLength = "LOOPLENGTH"
)

var errOverflow = errors.New("loop end overflows uint64")

// Range is the repeatable region of a track, in samples. A zero End means
// the track has no loop points and plays through.
type Range struct {
	Start uint64
	End   uint64
}

// Enabled reports whether the range describes a loop.
func (r Range) Enabled() bool { return r.End != 0 }

// Length is End - Start.
func (r Range) Length() uint64 { return r.End - r.Start }

// ParseError reports a loop tag that is present but not an unsigned integer.
type ParseError struct {
	Tag   string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("looppoint: tag %s=%q: %v", e.Tag, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse reads LOOPSTART and LOOPLENGTH from tags. LOOPLENGTH is relative to
// LOOPSTART, so End = LOOPSTART + LOOPLENGTH. Missing tags count as zero and
// a zero LOOPLENGTH disables looping. Tag names match case-insensitively, as
// Vorbis comment names do.
func Parse(tags map[string]string) (Range, error) {
	var r Range
	var length uint64
	for k, v := range tags {
		var dst *uint64
		switch strings.ToUpper(k) {
		case TagStart:
			dst = &r.Start
		case TagLength:
			dst = &length
		default:
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return Range{}, &ParseError{Tag: strings.ToUpper(k), Value: v, Err: err}
		}
		*dst = n
	}
	// an empty loop would seek back every frame
	if length == 0 {
		return Range{}, nil
	}
	if length > math.MaxUint64-r.Start {
		return Range{}, &ParseError{Tag: TagLength, Value: strconv.FormatUint(length, 10), Err: errOverflow}
	}
	r.End = r.Start + length
	return r, nil
}
