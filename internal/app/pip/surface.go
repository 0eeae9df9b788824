package pip

import (
	"image"
	"image/draw"
	"sync"

	"github.com/fogleman/gg"
)

// RenderTarget is the off-screen raster the compositor draws into. Its size is
// fixed; the floating window scales it on presentation.
type RenderTarget struct {
	mu sync.Mutex
	dc *gg.Context
}

func NewRenderTarget(width, height int) *RenderTarget {
	return &RenderTarget{dc: gg.NewContext(width, height)}
}

func (r *RenderTarget) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.dc.Width(), r.dc.Height())
}

// Snapshot copies the current pixels so callers can encode them while the
// next frame is drawn.
func (r *RenderTarget) Snapshot() image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.dc.Image()
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out
}

func (r *RenderTarget) draw(fn func(dc *gg.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.dc)
}
