package window

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/google/uuid"
)

var ErrNoSource = errors.New("window: player has no source")

// Player is the hidden playback element handed to the floating window.
type Player struct {
	id string

	mu      sync.Mutex
	src     core.MediaStream
	muted   bool
	playing bool
}

func newPlayer() *Player {
	return &Player{id: uuid.NewString(), muted: true}
}

func (p *Player) ID() string { return p.id }

func (p *Player) SetSource(s core.MediaStream) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.src = s
	p.playing = false
}

func (p *Player) Source() core.MediaStream {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src
}

func (p *Player) SetMuted(m bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = m
}

func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

func (p *Player) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.src == nil {
		return ErrNoSource
	}
	p.playing = true
	return nil
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// frame returns the latest captured frame of the attached stream.
func (p *Player) frame() ([]byte, uint64, bool) {
	p.mu.Lock()
	src, playing := p.src, p.playing
	p.mu.Unlock()
	if !playing {
		return nil, 0, false
	}
	cs, ok := src.(*CaptureStream)
	if !ok {
		return nil, 0, false
	}
	data, seq := cs.Track().Latest()
	return data, seq, seq > 0
}
