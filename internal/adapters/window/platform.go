package window

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotPresenting = errors.New("window: nothing is presented")
	ErrForeignPlayer = errors.New("window: element was not created by this platform")
	ErrNotPlaying    = errors.New("window: element is not playing")
)

// Platform is a server side host for the floating window. The window itself
// is rendered by websocket viewers; closing the last viewer counts as the
// user leaving picture-in-picture.
type Platform struct {
	encoder Encoder
	enabled bool

	mu        sync.Mutex
	listeners map[core.PlatformEvent][]core.EventListener
	presented *Player
	hidden    bool
	viewers   int
}

var (
	_ core.Platform            = (*Platform)(nil)
	_ core.PictureInPictureAPI = (*Platform)(nil)
)

func NewPlatform(encoder Encoder, enabled bool) *Platform {
	return &Platform{
		encoder:   encoder,
		enabled:   enabled,
		listeners: make(map[core.PlatformEvent][]core.EventListener),
	}
}

func (p *Platform) Encoder() Encoder { return p.encoder }

func (p *Platform) CreatePlaybackElement() core.PlaybackElement {
	return newPlayer()
}

func (p *Platform) CaptureStream(src core.Surface, fps int) (core.MediaStream, error) {
	if src == nil {
		return nil, fmt.Errorf("window: capture: nil surface")
	}
	if fps <= 0 {
		return nil, fmt.Errorf("window: capture: invalid fps %d", fps)
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("window: capture: empty surface %v", b)
	}
	return startCapture(src, fps, p.encoder), nil
}

func (p *Platform) AddEventListener(ev core.PlatformEvent, l core.EventListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners[ev] = append(p.listeners[ev], l)
}

func (p *Platform) RemoveEventListener(ev core.PlatformEvent, l core.EventListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ls := p.listeners[ev]
	for i, cur := range ls {
		if cur == l {
			p.listeners[ev] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// dispatch calls listeners outside the lock so they may call back in.
func (p *Platform) dispatch(ev core.PlatformEvent) {
	p.mu.Lock()
	ls := append([]core.EventListener(nil), p.listeners[ev]...)
	p.mu.Unlock()
	for _, l := range ls {
		l.HandleEvent(ev)
	}
}

func (p *Platform) Hidden() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hidden
}

// SetHidden records the client page visibility and fires visibilitychange
// when it flips.
func (p *Platform) SetHidden(hidden bool) {
	p.mu.Lock()
	changed := p.hidden != hidden
	p.hidden = hidden
	p.mu.Unlock()
	if changed {
		log.Debug().Str("module", "window").Bool("hidden", hidden).Msg("visibility changed")
		p.dispatch(core.EventVisibilityChange)
	}
}

func (p *Platform) PictureInPictureEnabled() bool { return p.enabled }

func (p *Platform) RequestPictureInPicture(ctx context.Context, el core.PlaybackElement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	player, ok := el.(*Player)
	if !ok {
		return ErrForeignPlayer
	}
	if !player.Playing() {
		return ErrNotPlaying
	}
	p.mu.Lock()
	p.presented = player
	p.mu.Unlock()
	log.Info().Str("module", "window").Str("player", player.ID()).Msg("floating window presented")
	return nil
}

func (p *Platform) ExitPictureInPicture(context.Context) error {
	if !p.leave() {
		return ErrNotPresenting
	}
	return nil
}

func (p *Platform) PictureInPictureElement() core.PlaybackElement {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.presented == nil {
		return nil
	}
	return p.presented
}

// Leave closes the floating window from the viewer side.
func (p *Platform) Leave() {
	p.leave()
}

func (p *Platform) leave() bool {
	p.mu.Lock()
	player := p.presented
	p.presented = nil
	p.mu.Unlock()
	if player == nil {
		return false
	}
	log.Info().Str("module", "window").Str("player", player.ID()).Msg("floating window closed")
	p.dispatch(core.EventLeavePictureInPicture)
	return true
}

// CurrentFrame is the latest frame of the presented element.
func (p *Platform) CurrentFrame() ([]byte, uint64, bool) {
	p.mu.Lock()
	player := p.presented
	p.mu.Unlock()
	if player == nil {
		return nil, 0, false
	}
	return player.frame()
}

func (p *Platform) viewerJoined() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewers++
	return p.viewers
}

// viewerLeft closes the window once nobody is watching it.
func (p *Platform) viewerLeft() {
	p.mu.Lock()
	p.viewers--
	last := p.viewers == 0
	p.mu.Unlock()
	if last {
		p.leave()
	}
}

func (p *Platform) Viewers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewers
}
