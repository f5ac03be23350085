// Package config loads the YAML manifest describing a loop track and an
// ambient clip catalog. File names in the manifest are relative to the
// manifest's directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cbegin/bgmloop-go/internal/randrange"
	"github.com/cbegin/bgmloop-go/internal/sequencer"
)

type Manifest struct {
	Track    string      `yaml:"track"`
	Ending   string      `yaml:"ending"`
	Autoplay *bool       `yaml:"autoplay"`
	Seed     uint64      `yaml:"seed"` // 0 = random each run
	Clips    []ClipEntry `yaml:"clips"`
	Ranges   Ranges      `yaml:"ranges"`

	// Dir is the directory the manifest was loaded from.
	Dir string `yaml:"-"`
}

type ClipEntry struct {
	File    string `yaml:"file"`
	Part    string `yaml:"part"`
	Segment string `yaml:"segment"`
}

// Ranges overrides the default randomized ranges. Omitted entries keep
// their defaults.
type Ranges struct {
	Part0 struct {
		Volume   *randrange.Range `yaml:"volume"`
		Pan      *randrange.Range `yaml:"pan"`
		Interval *randrange.Range `yaml:"interval"`
	} `yaml:"part0"`
	Part1 struct {
		Volume   *randrange.Range `yaml:"volume"`
		Pan      *randrange.Range `yaml:"pan"`
		Interval struct {
			A *randrange.Range `yaml:"a"`
			B *randrange.Range `yaml:"b"`
			C *randrange.Range `yaml:"c"`
		} `yaml:"interval"`
	} `yaml:"part1"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Dir = filepath.Dir(path)
	return m, nil
}

func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if _, err := m.SequencerConfig(); err != nil {
		return nil, err
	}
	if _, err := m.CatalogClips(); err != nil {
		return nil, err
	}
	return &m, nil
}

// AutoplayOr returns the manifest's autoplay setting, or def when unset.
func (m *Manifest) AutoplayOr(def bool) bool {
	if m.Autoplay == nil {
		return def
	}
	return *m.Autoplay
}

func (m *Manifest) CatalogClips() ([]sequencer.Clip, error) {
	clips := make([]sequencer.Clip, 0, len(m.Clips))
	for i, e := range m.Clips {
		if e.File == "" {
			return nil, fmt.Errorf("clips[%d]: missing file", i)
		}
		part, err := sequencer.ParsePart(e.Part)
		if err != nil {
			return nil, fmt.Errorf("clips[%d] %s: %w", i, e.File, err)
		}
		seg, err := sequencer.ParseSegment(e.Segment)
		if err != nil {
			return nil, fmt.Errorf("clips[%d] %s: %w", i, e.File, err)
		}
		clips = append(clips, sequencer.Clip{Resource: e.File, Part: part, Segment: seg})
	}
	return clips, nil
}

func (m *Manifest) SequencerConfig() (sequencer.Config, error) {
	cfg := sequencer.DefaultConfig()
	set := func(dst *randrange.Range, src *randrange.Range) {
		if src != nil {
			*dst = *src
		}
	}
	r := m.Ranges
	set(&cfg.Part0.Volume, r.Part0.Volume)
	set(&cfg.Part0.Pan, r.Part0.Pan)
	set(&cfg.Part0Interval, r.Part0.Interval)
	set(&cfg.Part1.Volume, r.Part1.Volume)
	set(&cfg.Part1.Pan, r.Part1.Pan)
	set(&cfg.Part1Interval[sequencer.SegmentA], r.Part1.Interval.A)
	set(&cfg.Part1Interval[sequencer.SegmentB], r.Part1.Interval.B)
	set(&cfg.Part1Interval[sequencer.SegmentC], r.Part1.Interval.C)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("ranges: %w", err)
	}
	return cfg, nil
}

// ParseClipArg parses a clip given on the command line as PART:FILE or
// PART:SEGMENT:FILE, e.g. "0:wind.ogg" or "1:b:birds.ogg".
func ParseClipArg(s string) (sequencer.Clip, error) {
	fields := strings.SplitN(s, ":", 3)
	var part, seg, file string
	switch len(fields) {
	case 2:
		part, file = fields[0], fields[1]
	case 3:
		part, seg, file = fields[0], fields[1], fields[2]
	default:
		return sequencer.Clip{}, fmt.Errorf("clip %q: want PART:FILE or PART:SEGMENT:FILE", s)
	}
	e := ClipEntry{File: file, Part: part, Segment: seg}
	m := Manifest{Clips: []ClipEntry{e}}
	clips, err := m.CatalogClips()
	if err != nil {
		return sequencer.Clip{}, fmt.Errorf("clip %q: %w", s, err)
	}
	return clips[0], nil
}
