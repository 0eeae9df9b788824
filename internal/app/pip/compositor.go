package pip

import (
	"image/color"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/dkeye/pipcast/internal/domain"
	"github.com/fogleman/gg"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
)

var DefaultBackground color.Color = color.RGBA{R: 0x0E, G: 0x0E, B: 0x10, A: 0xFF}

// Compositor draws one frame per call. Apart from the tracker binding and the
// last participant seen it keeps no state: the snapshot is re-read every tick.
type Compositor struct {
	state      core.StateProvider
	stage      core.StageLocator
	tracker    *Tracker
	background color.Color
	metrics    *Metrics

	last    domain.UserID
	hasLast bool
}

func NewCompositor(state core.StateProvider, stage core.StageLocator, tracker *Tracker, background color.Color, metrics *Metrics) *Compositor {
	if background == nil {
		background = DefaultBackground
	}
	return &Compositor{
		state:      state,
		stage:      stage,
		tracker:    tracker,
		background: background,
		metrics:    metrics,
	}
}

// DrawFrame composites the current snapshot onto rt. Errors and panics are
// reported and the frame counts as skipped; the caller keeps ticking.
func (c *Compositor) DrawFrame(rt *RenderTarget) error {
	var err error
	if r := panics.Try(func() { err = c.drawFrame(rt) }); r != nil {
		err = r.AsError()
	}
	if err != nil {
		c.metrics.frameSkipped()
		log.Error().Err(err).Str("module", "pip.compositor").Msg("frame skipped")
		return err
	}
	c.metrics.frameDrawn()
	return nil
}

func (c *Compositor) drawFrame(rt *RenderTarget) error {
	snap := c.state.Snapshot()
	return rt.draw(func(dc *gg.Context) error {
		dc.SetColor(c.background)
		dc.Clear()

		if snap.OnStage == nil {
			return nil
		}
		p := *snap.OnStage
		if !c.hasLast || p.ID != c.last {
			c.last, c.hasLast = p.ID, true
			c.tracker.Bind(snap, p.ID)
		}

		if _, ok := snap.TrackOf(p.ID, domain.MediaVideo); ok && c.stage != nil {
			if video, ok := c.stage.LookupStage(p.ID); ok && video.ReadyState() >= core.HaveCurrentData {
				if frame := video.Frame(); frame != nil {
					drawVideoContain(dc, frame)
					return nil
				}
			}
		}

		name := p.Name
		if name == "" {
			if known, ok := snap.Participant(p.ID); ok {
				name = known.Name
			}
		}
		drawAvatarWithPulse(dc, name, snap.AvatarBackgrounds, c.tracker.Level())
		return nil
	})
}

// Reset forgets the last participant so the next session binds afresh.
func (c *Compositor) Reset() {
	c.last, c.hasLast = "", false
}
