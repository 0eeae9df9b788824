package pip

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	baseRadiusRatio = 0.18
	// glowSpread is how far the ring grows past the disc at full level,
	// as a fraction of the base radius.
	glowSpread    = 0.6
	initialsScale = 0.9
)

var (
	glowColor     = color.NRGBA{R: 68, G: 165, B: 255, A: 89}
	initialsColor = color.White
)

func baseRadius(w, h int) float64 {
	return math.Min(float64(w), float64(h)) * baseRadiusRatio
}

// glowRadius is the outer radius of the glow ring for a level in 0..1.
func glowRadius(base, level float64) float64 {
	return base + base*glowSpread*level
}

// containRect fits a src sized box into dst keeping its aspect ratio,
// centred with letterbox bars.
func containRect(srcW, srcH, dstW, dstH int) image.Rectangle {
	if srcW <= 0 {
		srcW = 1
	}
	if srcH <= 0 {
		srcH = 1
	}
	scale := math.Min(float64(dstW)/float64(srcW), float64(dstH)/float64(srcH))
	w := int(math.Round(float64(srcW) * scale))
	h := int(math.Round(float64(srcH) * scale))
	x := (dstW - w) / 2
	y := (dstH - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

func drawVideoContain(dc *gg.Context, frame image.Image) {
	b := frame.Bounds()
	rect := containRect(b.Dx(), b.Dy(), dc.Width(), dc.Height())
	if rect.Dx() == 0 || rect.Dy() == 0 {
		return
	}
	if rect.Dx() != b.Dx() || rect.Dy() != b.Dy() {
		frame = resize.Resize(uint(rect.Dx()), uint(rect.Dy()), frame, resize.Bilinear)
	}
	dc.DrawImage(frame, rect.Min.X, rect.Min.Y)
}

func drawAvatarWithPulse(dc *gg.Context, name string, palette []string, level float64) {
	w, h := dc.Width(), dc.Height()
	cx, cy := float64(w)/2, float64(h)/2
	base := baseRadius(w, h)

	if outer := glowRadius(base, level); outer > base {
		grad := gg.NewRadialGradient(cx, cy, base, cx, cy, outer)
		grad.AddColorStop(0, glowColor)
		grad.AddColorStop(1, color.Transparent)
		dc.SetFillStyle(grad)
		dc.DrawCircle(cx, cy, outer)
		dc.Fill()
	}

	initials := Initials(name)
	dc.SetColor(avatarFill(initials, palette))
	dc.DrawCircle(cx, cy, base)
	dc.Fill()

	dc.SetFontFace(initialsFace(math.Floor(base * initialsScale)))
	dc.SetColor(initialsColor)
	dc.DrawStringAnchored(initials, cx, cy, 0.5, 0.5)
}

var (
	fontOnce  sync.Once
	fontFile  *truetype.Font
	facesMu   sync.Mutex
	faceCache = map[float64]font.Face{}
)

func initialsFace(size float64) font.Face {
	fontOnce.Do(func() {
		// goregular.TTF is embedded and always parses.
		fontFile, _ = truetype.Parse(goregular.TTF)
	})
	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faceCache[size]; ok {
		return f
	}
	f := truetype.NewFace(fontFile, &truetype.Options{Size: size})
	faceCache[size] = f
	return f
}
