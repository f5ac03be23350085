package sequencer

import (
	"fmt"
	"strings"
)

// Part is the top-level tag on a clip. Playback alternates between parts.
type Part int

const (
	Part0 Part = iota
	Part1
)

// Next returns the part that follows p.
func (p Part) Next() Part {
	if p == Part0 {
		return Part1
	}
	return Part0
}

func (p Part) String() string {
	switch p {
	case Part0:
		return "part0"
	case Part1:
		return "part1"
	}
	return fmt.Sprintf("Part(%d)", int(p))
}

// Segment subdivides Part1 clips. It carries no meaning for Part0.
type Segment int

const (
	SegmentA Segment = iota
	SegmentB
	SegmentC
)

var segments = [...]Segment{SegmentA, SegmentB, SegmentC}

func (s Segment) String() string {
	switch s {
	case SegmentA:
		return "A"
	case SegmentB:
		return "B"
	case SegmentC:
		return "C"
	}
	return fmt.Sprintf("Segment(%d)", int(s))
}

// ParsePart accepts "0", "1", "part0" or "part1".
func ParsePart(s string) (Part, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "part0":
		return Part0, nil
	case "1", "part1":
		return Part1, nil
	}
	return 0, fmt.Errorf("invalid part %q (expected 0|1)", s)
}

// ParseSegment accepts "a", "b" or "c" in any case. An empty string means A.
func ParseSegment(s string) (Segment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "a":
		return SegmentA, nil
	case "b":
		return SegmentB, nil
	case "c":
		return SegmentC, nil
	}
	return 0, fmt.Errorf("invalid segment %q (expected a|b|c)", s)
}

// Clip is one short piece of music in the catalog.
type Clip struct {
	Resource string
	Part     Part
	Segment  Segment
}

// slot indexes the catalog partitions and their wait intervals.
type slot int

const (
	slotPart0 slot = iota
	slotPart1A
	slotPart1B
	slotPart1C
	numSlots
)

// slotFor maps a (part, segment) pair to its partition. Part0 has a single
// partition regardless of segment.
func slotFor(p Part, s Segment) (slot, bool) {
	switch {
	case p == Part0:
		return slotPart0, true
	case p == Part1 && s >= SegmentA && s <= SegmentC:
		return slotPart1A + slot(s-SegmentA), true
	}
	return 0, false
}

// Catalog partitions clips by (part, segment). It is read-only after
// construction.
type Catalog struct {
	parts [numSlots][]Clip
}

// NewCatalog partitions clips, keeping their input order within each
// partition. Empty partitions are allowed here and only fail at selection.
func NewCatalog(clips []Clip) (*Catalog, error) {
	c := &Catalog{}
	for _, clip := range clips {
		sl, ok := slotFor(clip.Part, clip.Segment)
		if !ok {
			return nil, &ConfigError{Kind: InvalidClip, Part: clip.Part, Segment: clip.Segment, Resource: clip.Resource}
		}
		c.parts[sl] = append(c.parts[sl], clip)
	}
	return c, nil
}

// Partition returns the clips tagged (p, s). The slice must not be modified.
func (c *Catalog) Partition(p Part, s Segment) []Clip {
	sl, ok := slotFor(p, s)
	if !ok {
		return nil
	}
	return c.parts[sl]
}

// Len returns the total number of clips across all partitions.
func (c *Catalog) Len() int {
	n := 0
	for _, p := range c.parts {
		n += len(p)
	}
	return n
}

// Check returns an error for the first empty partition, so a manifest can be
// rejected before playback starts.
func (c *Catalog) Check() error {
	if len(c.parts[slotPart0]) == 0 {
		return &ConfigError{Kind: EmptyPartition, Part: Part0}
	}
	for _, s := range segments {
		if len(c.Partition(Part1, s)) == 0 {
			return &ConfigError{Kind: EmptyPartition, Part: Part1, Segment: s}
		}
	}
	return nil
}
