package window

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/chai2010/webp"
)

// Encoder turns a captured raster into the bytes sent to floating window
// viewers.
type Encoder interface {
	Encode(img image.Image) ([]byte, error)
	ContentType() string
}

func NewEncoder(format string, quality int) (Encoder, error) {
	switch format {
	case "webp":
		return webpEncoder{quality: float32(quality)}, nil
	case "jpeg":
		return jpegEncoder{quality: quality}, nil
	default:
		return nil, fmt.Errorf("window: unknown frame format %q", format)
	}
}

type webpEncoder struct {
	quality float32
}

func (e webpEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("window: webp encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (webpEncoder) ContentType() string { return "image/webp" }

type jpegEncoder struct {
	quality int
}

func (e jpegEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("window: jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (jpegEncoder) ContentType() string { return "image/jpeg" }
