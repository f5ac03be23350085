// Package looper keeps a playing track inside its loop points.
package looper

import (
	"fmt"

	"github.com/cbegin/bgmloop-go/internal/looppoint"
)

// Seek asks the sink to move playback to Target.
type Seek struct {
	Target uint64
}

// Play asks the sink to switch to Resource and play it once.
type Play struct {
	Resource string
}

// Progress is a snapshot of the playback position relative to the loop.
type Progress struct {
	Name    string
	Current uint64
	Start   uint64
	End     uint64
	Percent float64
}

func (p Progress) String() string {
	return fmt.Sprintf("Current Song: %s\n\n"+
		"Current Sample: %d\n"+
		"Start Sample: %d\n"+
		"Loop Sample: %d\n"+
		"Sample Progress: %d/%d (%.1f%%)",
		p.Name, p.Current, p.Start, p.End, p.Current, p.End, p.Percent)
}

// Controller watches the sample position of one track. It never touches the
// sink itself; callers apply the commands it returns.
type Controller struct {
	r     looppoint.Range
	ended bool
}

func New(r looppoint.Range) *Controller {
	return &Controller{r: r}
}

func (c *Controller) Range() looppoint.Range { return c.r }

// Ended reports whether ForceEnd has latched.
func (c *Controller) Ended() bool { return c.ended }

// Tick is called once per frame while the track is advancing. It returns a
// seek back to the loop start once current reaches the loop end.
func (c *Controller) Tick(current uint64) (Seek, bool) {
	if c.ended || !c.r.Enabled() || current < c.r.End {
		return Seek{}, false
	}
	return Seek{Target: c.r.Start}, true
}

// ForceEnd stops all further looping and returns the command that switches
// playback to the ending clip. Only the first call returns a command.
func (c *Controller) ForceEnd(ending string) (Play, bool) {
	if c.ended {
		return Play{}, false
	}
	c.ended = true
	return Play{Resource: ending}, true
}

func (c *Controller) Progress(current uint64) Progress {
	p := Progress{Current: current, Start: c.r.Start, End: c.r.End}
	if c.r.End != 0 {
		p.Percent = float64(current) / float64(c.r.End) * 100
	}
	return p
}
