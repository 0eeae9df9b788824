package pip

import (
	"image"
	"testing"

	"github.com/fogleman/gg"
	"github.com/stretchr/testify/assert"
)

func TestGlowRadius(t *testing.T) {
	base := baseRadius(1280, 720)
	assert.InDelta(t, 129.6, base, 1e-9)

	assert.Equal(t, base, glowRadius(base, 0))
	assert.InDelta(t, base*1.6, glowRadius(base, 1), 1e-9)
	assert.InDelta(t, base*1.3, glowRadius(base, 0.5), 1e-9)
}

func TestContainRect(t *testing.T) {
	cases := []struct {
		name       string
		srcW, srcH int
		want       image.Rectangle
	}{
		{"same aspect", 1920, 1080, image.Rect(0, 0, 1280, 720)},
		{"pillarbox", 640, 480, image.Rect(160, 0, 1120, 720)},
		{"letterbox", 1000, 100, image.Rect(0, 296, 1280, 424)},
		{"unknown size", 0, 0, image.Rect(280, 0, 1000, 720)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, containRect(tc.srcW, tc.srcH, 1280, 720))
		})
	}
}

func rgbaAt(dc *gg.Context, x, y int) (r, g, b, a uint8) {
	c := dc.Image().(*image.RGBA).RGBAAt(x, y)
	return c.R, c.G, c.B, c.A
}

func TestDrawAvatarWithPulse(t *testing.T) {
	palette := []string{"#112233"}

	dc := gg.NewContext(1280, 720)
	drawAvatarWithPulse(dc, "Ada Lovelace", palette, 0)

	r, g, b, _ := rgbaAt(dc, 640, 260)
	assert.Equal(t, [3]uint8{0x11, 0x22, 0x33}, [3]uint8{r, g, b}, "disc filled with avatar colour")

	_, _, _, a := rgbaAt(dc, 790, 360)
	assert.Zero(t, a, "no glow beyond the disc at level 0")

	dc = gg.NewContext(1280, 720)
	drawAvatarWithPulse(dc, "Ada Lovelace", palette, 1)
	_, _, _, a = rgbaAt(dc, 790, 360)
	assert.NotZero(t, a, "glow ring grows with the level")

	_, _, _, a = rgbaAt(dc, 640+220, 360)
	assert.Zero(t, a, "nothing past the outer radius")
}
