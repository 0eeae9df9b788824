package pip

import (
	"context"
	"sync"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/rs/zerolog/log"
)

//go:generate mockgen -destination=mock/bridge_mock.go -package=mock github.com/dkeye/pipcast/internal/app/pip Session,StateStore

// Session is the part of Lifecycle the bridge drives.
type Session interface {
	Supported() bool
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Running() bool
	// Current is the number of the running session, 0 when idle.
	Current() uint64
	OnPlatformExit(fn func(session uint64))
}

type StateStore interface {
	core.Dispatcher
	InPip() bool
}

// Bridge turns user intent, page visibility and platform exits into session
// transitions and application state.
type Bridge struct {
	session   Session
	store     StateStore
	autoEnter bool

	mu sync.Mutex
}

func NewBridge(session Session, store StateStore, autoEnter bool) *Bridge {
	b := &Bridge{session: session, store: store, autoEnter: autoEnter}
	session.OnPlatformExit(b.PlatformExited)
	return b
}

// Toggle enters the floating window when idle and leaves it when active.
func (b *Bridge) Toggle(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.toggle(ctx)
}

func (b *Bridge) toggle(ctx context.Context) error {
	if b.store.InPip() {
		err := b.session.Stop(ctx)
		b.store.Dispatch(ActionExited)
		return err
	}
	if !b.session.Supported() {
		log.Debug().Str("module", "pip.bridge").Msg("toggle ignored, unsupported platform")
		return nil
	}
	if err := b.session.Start(ctx); err != nil {
		return err
	}
	b.store.Dispatch(ActionEntered)
	return nil
}

type Status struct {
	InPip     bool `json:"in_pip"`
	Supported bool `json:"supported"`
	Running   bool `json:"running"`
}

func (b *Bridge) Status() Status {
	return Status{
		InPip:     b.store.InPip(),
		Supported: b.session.Supported(),
		Running:   b.session.Running(),
	}
}

// VisibilityChanged enters the floating window when the page becomes hidden.
// It never exits.
func (b *Bridge) VisibilityChanged(ctx context.Context, hidden bool) error {
	if !hidden || !b.autoEnter {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.store.InPip() {
		return nil
	}
	return b.toggle(ctx)
}

// PlatformExited reconciles state after the user closed the floating window
// of session outside the application. Exits of sessions that already ended
// are ignored.
func (b *Bridge) PlatformExited(session uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.store.InPip() {
		return
	}
	if cur := b.session.Current(); cur != session {
		log.Debug().Str("module", "pip.bridge").Uint64("session", session).Uint64("current", cur).Msg("stale platform exit ignored")
		return
	}
	if err := b.session.Stop(context.Background()); err != nil {
		log.Warn().Err(err).Str("module", "pip.bridge").Msg("stop after platform exit")
	}
	b.store.Dispatch(ActionExited)
}

// WatchVisibility feeds platform visibility changes into the bridge until the
// returned func is called.
func (b *Bridge) WatchVisibility(p core.Platform) (unwatch func()) {
	l := &visibilityListener{b: b, p: p}
	p.AddEventListener(core.EventVisibilityChange, l)
	return func() { p.RemoveEventListener(core.EventVisibilityChange, l) }
}

type visibilityListener struct {
	b *Bridge
	p core.Platform
}

func (v *visibilityListener) HandleEvent(ev core.PlatformEvent) {
	if ev != core.EventVisibilityChange {
		return
	}
	hidden := v.p.Hidden()
	go func() {
		if err := v.b.VisibilityChanged(context.Background(), hidden); err != nil {
			log.Warn().Err(err).Str("module", "pip.bridge").Msg("auto enter failed")
		}
	}()
}
