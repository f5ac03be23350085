package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/nsf/termbox-go"

	"github.com/cbegin/bgmloop-go"
	"github.com/cbegin/bgmloop-go/internal/beepaudio"
	"github.com/cbegin/bgmloop-go/internal/cli"
	"github.com/cbegin/bgmloop-go/internal/sequencer"
)

const tickRate = 60

type args struct {
	cli.Options
	Loop    *cli.LoopCmd    `arg:"subcommand:loop" help:"play a track that wraps at its loop tags"`
	Ambient *cli.AmbientCmd `arg:"subcommand:ambient" help:"string randomized clips together"`

	DryRun   bool    `arg:"--dry-run" help:"simulate instead of playing and print what would happen"`
	Duration float64 `arg:"--duration" default:"600" help:"dry run length in seconds"`
	EndAt    float64 `arg:"--end-at" help:"dry run: switch to the ending after this many seconds"`
}

func (args) Description() string {
	return "bgmloop plays looping background music in the terminal.\nKeys: p plays the ending, space starts a paused player, q quits."
}

func main() {
	var a args
	p := arg.MustParse(&a)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand (loop or ambient)")
	}

	// termbox owns the terminal while playing, so logs go nowhere unless --log is set
	var logOut io.Writer = io.Discard
	if a.DryRun {
		logOut = os.Stderr
	}
	sess, err := a.Options.Open(logOut)
	if err != nil {
		log.Fatal(err)
	}
	defer sess.Close()
	opts, err := sess.PlayerOptions(a.Options)
	if err != nil {
		log.Fatal(err)
	}

	switch {
	case a.Loop != nil:
		err = runLoop(&a, sess, opts)
	case a.Ambient != nil:
		err = runAmbient(&a, sess, opts)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runLoop(a *args, sess *cli.Session, opts []bgmloop.Option) error {
	track, ending, err := sess.Track(a.Loop)
	if err != nil {
		return err
	}
	if ending != "" {
		opts = append(opts, bgmloop.WithEnding(ending))
	}
	if a.DryRun {
		length, rate, err := beepaudio.Probe(sess.FS, track.Name)
		if err != nil {
			return err
		}
		rep, err := bgmloop.SimulateLoop(track, length, rate, a.Duration, 1.0/tickRate, a.EndAt, opts...)
		if err != nil {
			return err
		}
		printLoopReport(os.Stdout, track, rate, rep)
		return nil
	}

	sink := beepaudio.NewSink(sess.FS)
	defer sink.Close()
	l, err := bgmloop.NewLooper(sink, track, opts...)
	if err != nil {
		return err
	}
	if err := l.Start(); err != nil {
		return err
	}
	return runTerminal(&loopPlayer{l})
}

func runAmbient(a *args, sess *cli.Session, opts []bgmloop.Option) error {
	clips, err := sess.Clips(a.Ambient)
	if err != nil {
		return err
	}
	if a.DryRun {
		lengths := make(map[string]uint64, len(clips))
		rate := 0
		for _, c := range clips {
			n, r, err := beepaudio.Probe(sess.FS, c.Resource)
			if err != nil {
				return err
			}
			if rate == 0 {
				rate = r
			}
			lengths[c.Resource] = n
		}
		sched, err := bgmloop.SimulateAmbient(clips, lengths, rate, a.Duration, 1.0/tickRate, opts...)
		printSchedule(os.Stdout, sched)
		return err
	}

	sink := beepaudio.NewSink(sess.FS)
	defer sink.Close()
	amb, err := bgmloop.NewAmbient(sink, clips, opts...)
	if err != nil {
		return err
	}
	if err := amb.Start(); err != nil {
		return err
	}
	return runTerminal(&ambientPlayer{amb})
}

// player is what the terminal loop drives each tick.
type player interface {
	Update(dt float32) error
	Play()
	End() error
	Status() string
}

type loopPlayer struct{ l *bgmloop.Looper }

func (p *loopPlayer) Update(float32) error { return p.l.Update() }
func (p *loopPlayer) Play()                { p.l.Play() }
func (p *loopPlayer) End() error           { return p.l.End() }
func (p *loopPlayer) Status() string {
	s := p.l.Progress().String()
	if p.l.Ended() {
		return s + "\n\nEnding"
	}
	return fmt.Sprintf("%s\n\nLoops: %d", s, p.l.Loops())
}

type ambientPlayer struct{ a *bgmloop.Ambient }

func (p *ambientPlayer) Update(dt float32) error { return p.a.Update(dt) }
func (p *ambientPlayer) Play()                   { p.a.Play() }
func (p *ambientPlayer) End() error              { return nil }
func (p *ambientPlayer) Status() string          { return p.a.Status() }

func runTerminal(pl player) error {
	if err := termbox.Init(); err != nil {
		return err
	}
	defer termbox.Close()

	events := make(chan termbox.Event, 8)
	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				return
			}
			events <- ev
		}
	}()
	defer termbox.Interrupt()

	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()
	last := time.Now()
	note := ""
	for {
		select {
		case ev := <-events:
			if ev.Type == termbox.EventError {
				return ev.Err
			}
			if ev.Type != termbox.EventKey {
				continue
			}
			switch {
			case ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC || ev.Ch == 'q':
				return nil
			case ev.Key == termbox.KeySpace:
				pl.Play()
			case ev.Ch == 'p':
				if err := pl.End(); errors.Is(err, bgmloop.ErrNoEnding) {
					note = "no ending clip configured"
				} else if err != nil {
					return err
				}
			}
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			if err := pl.Update(dt); err != nil {
				return err
			}
			draw(pl.Status(), note)
		}
	}
}

func draw(status, note string) {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	y := 0
	for _, line := range strings.Split(status, "\n") {
		printAt(0, y, line, termbox.ColorDefault)
		y++
	}
	y++
	if note != "" {
		printAt(0, y, note, termbox.ColorYellow)
		y++
	}
	printAt(0, y, "p: ending  space: play  q: quit", termbox.ColorCyan)
	termbox.Flush()
}

func printAt(x, y int, s string, fg termbox.Attribute) {
	for _, r := range s {
		termbox.SetCell(x, y, r, fg, termbox.ColorDefault)
		x++
	}
}

func printLoopReport(w io.Writer, track bgmloop.Track, rate int, rep bgmloop.LoopReport) {
	fmt.Fprintf(w, "%s @ %d Hz\n", track.Name, rate)
	if rep.Range[1] == 0 {
		fmt.Fprintln(w, "no loop points")
	} else {
		fmt.Fprintf(w, "loop %d..%d (%.2fs..%.2fs)\n", rep.Range[0], rep.Range[1],
			float64(rep.Range[0])/float64(rate), float64(rep.Range[1])/float64(rate))
	}
	fmt.Fprintf(w, "loops: %d\n", rep.Loops)
	for i, at := range rep.Seeks {
		fmt.Fprintf(w, "  wrap %d at sample %d\n", i+1, at)
	}
	if rep.Finished {
		fmt.Fprintf(w, "finished at sample %d\n", rep.Final)
	} else {
		fmt.Fprintf(w, "still playing at sample %d\n", rep.Final)
	}
}

func printSchedule(w io.Writer, sched []bgmloop.ScheduledClip) {
	for _, sc := range sched {
		seg := ""
		if sc.Clip.Part == sequencer.Part1 {
			seg = sc.Clip.Segment.String()
		}
		fmt.Fprintf(w, "%8.2fs  %-5s %-1s  %-24s vol %.2f  pan %+.2f  wait %.2fs\n",
			sc.At, sc.Clip.Part, seg, sc.Clip.Resource, sc.Volume, sc.Pan, sc.Wait)
	}
}
