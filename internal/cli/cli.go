// Package cli holds the command line surface shared by the terminal and
// windowed players.
package cli

import (
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path"
	"strings"

	"github.com/cbegin/bgmloop-go"
	"github.com/cbegin/bgmloop-go/internal/config"
	"github.com/cbegin/bgmloop-go/internal/oggtags"
	"github.com/cbegin/bgmloop-go/internal/sequencer"
)

// Options are the flags every player accepts. Embed it in the command's
// go-arg struct.
type Options struct {
	Config  string `arg:"-c,--config,env:BGMLOOP_CONFIG" help:"YAML manifest with track, ending, clips and ranges"`
	Dir     string `arg:"--dir,env:BGMLOOP_DIR" help:"directory clip names are resolved against [default: manifest dir or .]"`
	Seed    uint64 `arg:"--seed,env:BGMLOOP_SEED" help:"random seed for ambient mode, 0 picks one"`
	Paused  bool   `arg:"--paused" help:"load without starting playback"`
	LogFile string `arg:"--log,env:BGMLOOP_LOG" help:"append log output to this file"`
}

type LoopCmd struct {
	Track  string `arg:"positional" help:"loop track, an .ogg carrying LOOPSTART/LOOPLENGTH"`
	Ending string `arg:"--ending,env:BGMLOOP_ENDING" help:"clip that replaces the track when the end key is pressed"`
}

type AmbientCmd struct {
	Clips []string `arg:"positional" help:"clips as PART:FILE or 1:SEGMENT:FILE, added to the manifest's"`
}

// Session is the resolved state behind a set of Options.
type Session struct {
	FS       fs.FS
	Manifest *config.Manifest // nil without --config
	Logger   *log.Logger

	closer io.Closer
}

// Open loads the manifest, resolves the clip directory and opens the log.
// Without --log the logger writes to fallback.
func (o Options) Open(fallback io.Writer) (*Session, error) {
	s := &Session{}
	dir := o.Dir
	if o.Config != "" {
		m, err := config.Load(o.Config)
		if err != nil {
			return nil, err
		}
		s.Manifest = m
		if dir == "" {
			dir = m.Dir
		}
	}
	if dir == "" {
		dir = "."
	}
	s.FS = os.DirFS(dir)

	w := fallback
	if o.LogFile != "" {
		f, err := os.OpenFile(o.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		s.closer = f
		w = f
	}
	s.Logger = log.New(w, "bgmloop ", log.LstdFlags)
	return s, nil
}

func (s *Session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// PlayerOptions turns the flags and manifest into player options.
func (s *Session) PlayerOptions(o Options) ([]bgmloop.Option, error) {
	opts := []bgmloop.Option{bgmloop.WithLogger(s.Logger)}
	autoplay := !o.Paused
	seed := o.Seed
	if m := s.Manifest; m != nil {
		cfg, err := m.SequencerConfig()
		if err != nil {
			return nil, err
		}
		opts = append(opts, bgmloop.WithSequencerConfig(cfg))
		if !o.Paused {
			autoplay = m.AutoplayOr(true)
		}
		if seed == 0 {
			seed = m.Seed
		}
	}
	opts = append(opts, bgmloop.WithAutoplay(autoplay))
	if seed != 0 {
		opts = append(opts, bgmloop.WithSeed(seed))
	}
	return opts, nil
}

// Track resolves the loop track and its ending clip. The command line wins
// over the manifest.
func (s *Session) Track(cmd *LoopCmd) (bgmloop.Track, string, error) {
	name, ending := cmd.Track, cmd.Ending
	if m := s.Manifest; m != nil {
		if name == "" {
			name = m.Track
		}
		if ending == "" {
			ending = m.Ending
		}
	}
	if name == "" {
		return bgmloop.Track{}, "", fmt.Errorf("loop: no track given")
	}
	t, err := ReadTrack(s.FS, name)
	return t, ending, err
}

// ReadTrack reads the loop tags of an Ogg Vorbis track. Other formats carry
// no tags and play through.
func ReadTrack(fsys fs.FS, name string) (bgmloop.Track, error) {
	t := bgmloop.Track{Name: name}
	switch strings.ToLower(path.Ext(name)) {
	case ".ogg", ".oga":
		tags, err := oggtags.ReadFile(fsys, name)
		if err != nil {
			return t, err
		}
		t.Tags = tags
	}
	return t, nil
}

// Clips collects the ambient catalog from the manifest and the command line.
func (s *Session) Clips(cmd *AmbientCmd) ([]sequencer.Clip, error) {
	var clips []sequencer.Clip
	if s.Manifest != nil {
		c, err := s.Manifest.CatalogClips()
		if err != nil {
			return nil, err
		}
		clips = append(clips, c...)
	}
	for _, a := range cmd.Clips {
		c, err := config.ParseClipArg(a)
		if err != nil {
			return nil, err
		}
		clips = append(clips, c)
	}
	if len(clips) == 0 {
		return nil, fmt.Errorf("ambient: no clips given")
	}
	return clips, nil
}
