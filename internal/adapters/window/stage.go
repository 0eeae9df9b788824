package window

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"
	"time"

	"github.com/chai2010/webp"
	"github.com/dkeye/pipcast/internal/core"
	"github.com/dkeye/pipcast/internal/domain"
)

const (
	MaxStageFrameBytes = 2 << 20
	// Decoded frames are capped by dimensions too: a small compressed file
	// can declare a huge canvas.
	MaxStageFrameSide   = 8192
	MaxStageFramePixels = 3840 * 2160
)

var ErrBadFrame = errors.New("window: bad stage frame")

// StageBoard keeps the last frame each participant's client rendered on
// stage. A frame is ready while fresh and decays to metadata-only once
// uploads stop.
type StageBoard struct {
	staleAfter time.Duration
	now        func() time.Time

	mu     sync.RWMutex
	frames map[domain.UserID]stageFrame
}

type stageFrame struct {
	img image.Image
	at  time.Time
}

var _ core.StageLocator = (*StageBoard)(nil)

func NewStageBoard(staleAfter time.Duration) *StageBoard {
	if staleAfter <= 0 {
		staleAfter = 2 * time.Second
	}
	return &StageBoard{
		staleAfter: staleAfter,
		now:        time.Now,
		frames:     make(map[domain.UserID]stageFrame),
	}
}

// Upload decodes a WebP, JPEG or PNG frame and makes it the stage of id.
func (b *StageBoard) Upload(id domain.UserID, data []byte) error {
	if len(data) == 0 || len(data) > MaxStageFrameBytes {
		return fmt.Errorf("%w: size %d", ErrBadFrame, len(data))
	}
	img, err := decodeFrame(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadFrame, err)
	}
	b.mu.Lock()
	b.frames[id] = stageFrame{img: img, at: b.now()}
	b.mu.Unlock()
	return nil
}

func decodeFrame(data []byte) (image.Image, error) {
	if isWebP(data) {
		w, h, _, err := webp.GetInfo(data)
		if err != nil {
			return nil, err
		}
		if err := checkDimensions(w, h); err != nil {
			return nil, err
		}
		return webp.Decode(bytes.NewReader(data))
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := checkDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

func checkDimensions(w, h int) error {
	if w <= 0 || h <= 0 || w > MaxStageFrameSide || h > MaxStageFrameSide || w*h > MaxStageFramePixels {
		return fmt.Errorf("dimensions %dx%d out of range", w, h)
	}
	return nil
}

func isWebP(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}

func (b *StageBoard) Remove(id domain.UserID) {
	b.mu.Lock()
	delete(b.frames, id)
	b.mu.Unlock()
}

func (b *StageBoard) LookupStage(id domain.UserID) (core.StageVideo, bool) {
	b.mu.RLock()
	f, ok := b.frames[id]
	b.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return stageVideo{frame: f, age: b.now().Sub(f.at), staleAfter: b.staleAfter}, true
}

type stageVideo struct {
	frame      stageFrame
	age        time.Duration
	staleAfter time.Duration
}

func (v stageVideo) ReadyState() core.ReadyState {
	switch {
	case v.frame.img == nil:
		return core.HaveNothing
	case v.age <= v.staleAfter/2:
		return core.HaveEnoughData
	case v.age <= v.staleAfter:
		return core.HaveCurrentData
	default:
		return core.HaveMetadata
	}
}

func (v stageVideo) Frame() image.Image { return v.frame.img }
