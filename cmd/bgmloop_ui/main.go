package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/cbegin/bgmloop-go"
	"github.com/cbegin/bgmloop-go/internal/audio"
	"github.com/cbegin/bgmloop-go/internal/cli"
)

const (
	windowW    = 760
	windowH    = 420
	minWindowW = 640
	minWindowH = 360

	textScale = 2
	charW     = 7 * textScale
	lineH     = 14 * textScale
)

var (
	bgColor         = color.RGBA{192, 192, 192, 255}
	panelColor      = color.RGBA{192, 192, 192, 255}
	borderColor     = color.RGBA{128, 128, 128, 255}
	bevelLight      = color.RGBA{255, 255, 255, 255}
	bevelDarker     = color.RGBA{64, 64, 64, 255}
	sunkenBgColor   = color.RGBA{24, 24, 32, 255}
	sliderFillColor = color.RGBA{0, 0, 128, 255}
)

type args struct {
	cli.Options
	Loop    *cli.LoopCmd    `arg:"subcommand:loop" help:"play a track that wraps at its loop tags"`
	Ambient *cli.AmbientCmd `arg:"subcommand:ambient" help:"string randomized clips together"`
}

func (args) Description() string {
	return "bgmloop_ui plays looping background music in a window.\nKeys: P plays the ending, Space starts a paused player, Esc quits."
}

type game struct {
	sink    *audio.Sink
	looper  *bgmloop.Looper
	ambient *bgmloop.Ambient

	status    string
	statusErr bool

	textCache map[string]*ebiten.Image
	viewW     int
	viewH     int
}

func newGame(sink *audio.Sink) *game {
	return &game{
		sink:      sink,
		status:    "Ready",
		textCache: make(map[string]*ebiten.Image, 256),
		viewW:     windowW,
		viewH:     windowH,
	}
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.play()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.end()
	}

	switch {
	case g.looper != nil:
		return g.looper.Update()
	case g.ambient != nil:
		return g.ambient.Update(1 / float32(ebiten.TPS()))
	}
	return nil
}

func (g *game) play() {
	switch {
	case g.looper != nil:
		g.looper.Play()
	case g.ambient != nil:
		g.ambient.Play()
	}
	g.setStatus("Playing")
}

func (g *game) end() {
	if g.looper == nil {
		return
	}
	err := g.looper.End()
	switch {
	case errors.Is(err, bgmloop.ErrNoEnding):
		g.setError("no ending clip configured")
	case err != nil:
		g.setError(err.Error())
	default:
		g.setStatus("Ending")
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)

	pad := 20
	statusH := 40
	statusRect := image.Rect(pad, g.viewH-pad-statusH, g.viewW-pad, g.viewH-pad)
	barRect := image.Rect(pad, statusRect.Min.Y-12-36, g.viewW-pad, statusRect.Min.Y-12)
	infoRect := image.Rect(pad, pad, g.viewW-pad, barRect.Min.Y-12)

	g.drawSunkenPanel(screen, infoRect)
	y := infoRect.Min.Y + 8
	for _, line := range strings.Split(g.info(), "\n") {
		g.drawText(screen, line, infoRect.Min.X+8, y)
		y += lineH
	}

	label, frac := g.progress()
	g.drawProgressBar(screen, barRect, label, frac)

	g.drawSunkenPanel(screen, statusRect)
	msg := "Status: " + g.status
	if g.statusErr {
		msg = "Status: ERROR - " + g.status
	}
	maxChars := max(8, (statusRect.Dx()-16)/charW)
	g.drawText(screen, shortenEnd(msg, maxChars), statusRect.Min.X+8, statusRect.Min.Y+6)
}

func (g *game) info() string {
	switch {
	case g.looper != nil:
		return g.looper.Progress().String()
	case g.ambient != nil:
		return g.ambient.Status()
	}
	return ""
}

// progress reports the bar label and fill: position within the loop for a
// Looper, time waited before the next clip for Ambient.
func (g *game) progress() (string, float64) {
	switch {
	case g.looper != nil:
		p := g.looper.Progress()
		if g.looper.Ended() {
			return "End", 1
		}
		return fmt.Sprintf("Loop %d", g.looper.Loops()), p.Percent / 100
	case g.ambient != nil:
		st := g.ambient.State()
		if g.sink.IsPlaying() || st.WaitTarget <= 0 {
			return "Clip", 0
		}
		return "Wait", float64(st.WaitElapsed / st.WaitTarget)
	}
	return "", 0
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	if outsideW < minWindowW {
		outsideW = minWindowW
	}
	if outsideH < minWindowH {
		outsideH = minWindowH
	}
	g.viewW = outsideW
	g.viewH = outsideH
	return outsideW, outsideH
}

func (g *game) drawProgressBar(screen *ebiten.Image, rect image.Rectangle, label string, frac float64) {
	g.drawPanel(screen, rect)
	g.drawText(screen, label, rect.Min.X+8, rect.Min.Y+4)

	trackX := rect.Min.X + 130
	trackW := rect.Dx() - 146
	trackY := rect.Min.Y + rect.Dy()/2 - 4
	if trackW < 20 {
		return
	}
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW), 8, bevelDarker)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW-1), 1, borderColor)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), 1, 7, borderColor)
	fillW := int(float64(trackW) * clamp(frac, 0, 1))
	if fillW > 2 {
		ebitenutil.DrawRect(screen, float64(trackX+1), float64(trackY+1), float64(fillW-1), 6, sliderFillColor)
	}
}

func (g *game) setError(msg string) {
	g.status = msg
	g.statusErr = true
}

func (g *game) setStatus(msg string) {
	g.status = msg
	g.statusErr = false
}

func (g *game) drawPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), panelColor)
	drawBorder(screen, rect)
}

func (g *game) drawSunkenPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), sunkenBgColor)
	drawSunkenBorder(screen, rect)
}

// drawBorder draws a raised bevel.
func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDarker)
}

func drawSunkenBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, borderColor)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, borderColor)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelLight)
}

func (g *game) drawText(screen *ebiten.Image, msg string, x int, y int) {
	if msg == "" {
		return
	}
	img := g.textCache[msg]
	if img == nil {
		w := max(1, len([]rune(msg))*7)
		img = ebiten.NewImage(w, 14)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		// progress text changes every frame
		if len(g.textCache) > 1000 {
			g.textCache = make(map[string]*ebiten.Image, 256)
		}
		g.textCache[msg] = img
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(img, op)
}

// startStatus is the first status line; autoplay may be off through either
// --paused or the manifest.
func startStatus(playing bool) string {
	if playing {
		return "Playing"
	}
	return "Paused (space to play)"
}

func shortenEnd(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:max(0, maxChars)])
	}
	return string(r[:maxChars-3]) + "..."
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func main() {
	var a args
	p := arg.MustParse(&a)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand (loop or ambient)")
	}

	sess, err := a.Options.Open(os.Stderr)
	if err != nil {
		log.Fatal(err)
	}
	defer sess.Close()
	opts, err := sess.PlayerOptions(a.Options)
	if err != nil {
		log.Fatal(err)
	}

	sink := audio.NewSink(sess.FS)
	defer sink.Close()
	g := newGame(sink)
	title := "bgmloop"

	switch {
	case a.Loop != nil:
		track, ending, err := sess.Track(a.Loop)
		if err != nil {
			log.Fatal(err)
		}
		if ending != "" {
			opts = append(opts, bgmloop.WithEnding(ending))
		}
		if g.looper, err = bgmloop.NewLooper(sink, track, opts...); err != nil {
			log.Fatal(err)
		}
		if err := g.looper.Start(); err != nil {
			log.Fatal(err)
		}
		title += " - " + track.Name
	case a.Ambient != nil:
		clips, err := sess.Clips(a.Ambient)
		if err != nil {
			log.Fatal(err)
		}
		if g.ambient, err = bgmloop.NewAmbient(sink, clips, opts...); err != nil {
			log.Fatal(err)
		}
		if err := g.ambient.Start(); err != nil {
			log.Fatal(err)
		}
		title += " - ambient"
	}
	g.setStatus(startStatus(sink.IsPlaying()))

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(minWindowW, minWindowH, -1, -1)
	ebiten.SetWindowTitle(title)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
