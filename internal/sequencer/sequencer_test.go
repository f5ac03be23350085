package sequencer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cbegin/bgmloop-go/internal/randrange"
)

// scriptedSource replays fixed IntN answers and returns the midpoint of
// every range.
type scriptedSource struct {
	ints []int
}

func (s *scriptedSource) IntN(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *scriptedSource) Float32In(r randrange.Range) float32 {
	return (r.Min + r.Max) / 2
}

func fullCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := NewCatalog([]Clip{
		{Resource: "p0-1.ogg", Part: Part0},
		{Resource: "p0-2.ogg", Part: Part0},
		{Resource: "p1a-1.ogg", Part: Part1, Segment: SegmentA},
		{Resource: "p1b-1.ogg", Part: Part1, Segment: SegmentB},
		{Resource: "p1b-2.ogg", Part: Part1, Segment: SegmentB},
		{Resource: "p1c-1.ogg", Part: Part1, Segment: SegmentC},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func TestNewCatalogPartitions(t *testing.T) {
	var clips []Clip
	want := map[string]int{}
	for i := 0; i < 40; i++ {
		c := Clip{Resource: fmt.Sprintf("clip%02d", i), Part: Part(i % 2), Segment: Segment(i % 3)}
		clips = append(clips, c)
		sl, _ := slotFor(c.Part, c.Segment)
		want[c.Resource] = int(sl)
	}
	cat, err := NewCatalog(clips)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if cat.Len() != len(clips) {
		t.Fatalf("catalog len = %d, want %d", cat.Len(), len(clips))
	}
	total := 0
	for sl, part := range cat.parts {
		total += len(part)
		for _, c := range part {
			if want[c.Resource] != sl {
				t.Fatalf("clip %s in partition %d, want %d", c.Resource, sl, want[c.Resource])
			}
		}
	}
	if total != len(clips) {
		t.Fatalf("partition sizes sum to %d, want %d", total, len(clips))
	}
	// Part0 ignores segment tags.
	if got := len(cat.Partition(Part0, SegmentC)); got != 20 {
		t.Fatalf("part0 size = %d, want 20", got)
	}
}

func TestNewCatalogKeepsOrder(t *testing.T) {
	cat := fullCatalog(t)
	b := cat.Partition(Part1, SegmentB)
	if len(b) != 2 || b[0].Resource != "p1b-1.ogg" || b[1].Resource != "p1b-2.ogg" {
		t.Fatalf("segment B partition = %+v", b)
	}
}

func TestNewCatalogRejectsUnknownTags(t *testing.T) {
	_, err := NewCatalog([]Clip{{Resource: "x", Part: Part1, Segment: Segment(7)}})
	if !errors.Is(err, ErrInvalidClip) {
		t.Fatalf("expected ErrInvalidClip, got %v", err)
	}
	_, err = NewCatalog([]Clip{{Resource: "y", Part: Part(3)}})
	if !errors.Is(err, ErrInvalidClip) {
		t.Fatalf("expected ErrInvalidClip, got %v", err)
	}
}

func TestAdvanceAlternatesParts(t *testing.T) {
	cat := fullCatalog(t)
	cfg := DefaultConfig()
	src := randrange.NewSource(3)

	st := Initial()
	for i := 0; i < 500; i++ {
		sel, next, err := Advance(st, cat, cfg, src)
		if err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		if next.Part == st.Part {
			t.Fatalf("advance %d: part did not alternate (%s)", i, st.Part)
		}
		if sel.Clip.Part != next.Part {
			t.Fatalf("advance %d: clip %s from %s, state in %s", i, sel.Clip.Resource, sel.Clip.Part, next.Part)
		}
		if next.Part == Part1 && sel.Clip.Segment != next.Segment {
			t.Fatalf("advance %d: clip segment %s, drawn %s", i, sel.Clip.Segment, next.Segment)
		}
		if next.Part == Part0 && next.Segment != st.Segment {
			t.Fatalf("advance %d: segment changed entering part0", i)
		}
		if next.WaitElapsed != 0 || next.WaitTarget != sel.Wait {
			t.Fatalf("advance %d: bad wait state %+v for wait %v", i, next, sel.Wait)
		}
		st = next
	}
}

func TestAdvanceFirstStepFromPart0(t *testing.T) {
	cat, err := NewCatalog([]Clip{
		{Resource: "p0", Part: Part0},
		{Resource: "a", Part: Part1, Segment: SegmentA},
		{Resource: "b", Part: Part1, Segment: SegmentB},
		{Resource: "c", Part: Part1, Segment: SegmentC},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	for drawn, want := range []string{"a", "b", "c"} {
		src := &scriptedSource{ints: []int{drawn, 0}}
		sel, next, err := Advance(Initial(), cat, DefaultConfig(), src)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if next.Part != Part1 || next.Segment != Segment(drawn) {
			t.Fatalf("state = %+v, want part1 segment %s", next, Segment(drawn))
		}
		if sel.Clip.Resource != want {
			t.Fatalf("clip = %s, want %s", sel.Clip.Resource, want)
		}
	}
}

func TestAdvanceUsesRangesForNewPart(t *testing.T) {
	cat := fullCatalog(t)
	cfg := DefaultConfig()
	src := &scriptedSource{ints: []int{2, 0}}

	sel, next, err := Advance(Initial(), cat, cfg, src)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if next.Segment != SegmentC {
		t.Fatalf("segment = %s, want C", next.Segment)
	}
	if sel.Volume != 0.75 || sel.Pan != 0 || sel.Wait != 3 {
		t.Fatalf("selection = %+v, want volume 0.75 pan 0 wait 3", sel)
	}

	sel, next, err = Advance(next, cat, cfg, src)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if next.Part != Part0 || sel.Wait != 2.5 {
		t.Fatalf("part0 selection = %+v state %+v", sel, next)
	}
}

func TestDrawsStayWithinConfiguredRanges(t *testing.T) {
	cat := fullCatalog(t)
	cfg := DefaultConfig()
	src := randrange.NewSource(11)

	type span struct{ lo, hi float32 }
	seen := map[string]*span{}
	note := func(key string, v float32) {
		s, ok := seen[key]
		if !ok {
			seen[key] = &span{v, v}
			return
		}
		s.lo = min(s.lo, v)
		s.hi = max(s.hi, v)
	}

	st := Initial()
	for i := 0; i < 6000; i++ {
		sel, next, err := Advance(st, cat, cfg, src)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		r := cfg.ranges(next.Part)
		sl, _ := slotFor(next.Part, next.Segment)
		iv := cfg.interval(sl)
		if !r.Volume.Contains(sel.Volume) || !r.Pan.Contains(sel.Pan) || !iv.Contains(sel.Wait) {
			t.Fatalf("draw %d out of range: %+v (%s %s)", i, sel, next.Part, next.Segment)
		}
		note(fmt.Sprintf("vol-%s", next.Part), sel.Volume)
		note(fmt.Sprintf("pan-%s", next.Part), sel.Pan)
		note(fmt.Sprintf("wait-%d", sl), sel.Wait)
		st = next
	}

	check := func(key string, r randrange.Range) {
		s := seen[key]
		if s == nil {
			t.Fatalf("%s never drawn", key)
		}
		slack := (r.Max - r.Min) * 0.1
		if s.lo > r.Min+slack || s.hi < r.Max-slack {
			t.Fatalf("%s covers [%v, %v], want close to %v", key, s.lo, s.hi, r)
		}
	}
	check("vol-part0", cfg.Part0.Volume)
	check("pan-part0", cfg.Part0.Pan)
	check("vol-part1", cfg.Part1.Volume)
	check("pan-part1", cfg.Part1.Pan)
	check("wait-0", cfg.Part0Interval)
	check("wait-1", cfg.Part1Interval[SegmentA])
	check("wait-2", cfg.Part1Interval[SegmentB])
	check("wait-3", cfg.Part1Interval[SegmentC])
}

func TestAdvanceEmptyPartitionFails(t *testing.T) {
	cat, err := NewCatalog([]Clip{
		{Resource: "p0", Part: Part0},
		{Resource: "a", Part: Part1, Segment: SegmentA},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	cur := State{Part: Part0, Segment: SegmentA, WaitTarget: 2, WaitElapsed: 2.1}
	_, got, err := Advance(cur, cat, DefaultConfig(), &scriptedSource{ints: []int{1}})
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if ce.Kind != EmptyPartition || ce.Part != Part1 || ce.Segment != SegmentB {
		t.Fatalf("unexpected error %+v", ce)
	}
	if !errors.Is(err, ErrEmptyPartition) {
		t.Fatalf("error should match ErrEmptyPartition")
	}
	if got != cur {
		t.Fatalf("state changed on error: %+v", got)
	}
	if cat.Check() == nil {
		t.Fatalf("Check should report the empty partition")
	}
}

func TestStartSelectsPart0(t *testing.T) {
	cat := fullCatalog(t)
	sel, st, err := Start(Initial(), cat, DefaultConfig(), randrange.NewSource(5))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if sel.Clip.Part != Part0 || st.Part != Part0 || st.WaitTarget != sel.Wait {
		t.Fatalf("start = %+v, %+v", sel, st)
	}
	if err := cat.Check(); err != nil {
		t.Fatalf("check: %v", err)
	}

	empty, _ := NewCatalog(nil)
	if _, _, err := Start(Initial(), empty, DefaultConfig(), randrange.NewSource(5)); !errors.Is(err, ErrEmptyPartition) {
		t.Fatalf("expected empty partition error, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Part1.Pan = randrange.R(-1.5, 0)
	if cfg.Validate() == nil {
		t.Fatalf("pan outside [-1, 1] should fail")
	}
	cfg = DefaultConfig()
	cfg.Part1Interval[SegmentB] = randrange.R(5, 1)
	if cfg.Validate() == nil {
		t.Fatalf("inverted interval should fail")
	}
}

func TestParsePartAndSegment(t *testing.T) {
	if p, err := ParsePart("Part1"); err != nil || p != Part1 {
		t.Fatalf("ParsePart = %v, %v", p, err)
	}
	if _, err := ParsePart("2"); err == nil {
		t.Fatalf("ParsePart(2) should fail")
	}
	if s, err := ParseSegment("c"); err != nil || s != SegmentC {
		t.Fatalf("ParseSegment = %v, %v", s, err)
	}
	if s, err := ParseSegment(""); err != nil || s != SegmentA {
		t.Fatalf("ParseSegment(empty) = %v, %v", s, err)
	}
	if _, err := ParseSegment("d"); err == nil {
		t.Fatalf("ParseSegment(d) should fail")
	}
}
