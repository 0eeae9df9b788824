package pip

import (
	"context"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

const (
	DefaultWidth  = 1280
	DefaultHeight = 720
	DefaultFPS    = 24
)

type Options struct {
	Width      int
	Height     int
	FPS        int
	Background color.Color
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = DefaultWidth, DefaultHeight
	}
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	return o
}

// Lifecycle owns the floating window session. At most one session runs at a
// time; the raster and playback element are created on first start and
// reused afterwards.
type Lifecycle struct {
	platform   core.Platform
	caps       capabilities
	tracker    *Tracker
	compositor *Compositor
	opts       Options
	metrics    *Metrics
	logger     zerolog.Logger

	mu      sync.Mutex
	running bool
	target  *RenderTarget
	element core.PlaybackElement
	cancel  context.CancelFunc
	loop    *conc.WaitGroup
	exit    *exitListener
	// session numbers every started session; the exit listener of a session
	// carries its number.
	session uint64

	hookMu sync.Mutex
	onExit func(session uint64)
}

func NewLifecycle(
	platform core.Platform,
	state core.StateProvider,
	stage core.StageLocator,
	catalog core.EventCatalog,
	opts Options,
	metrics *Metrics,
) *Lifecycle {
	opts = opts.withDefaults()
	tracker := NewTracker(catalog, metrics)
	l := &Lifecycle{
		platform:   platform,
		caps:       resolveCapabilities(platform),
		tracker:    tracker,
		compositor: NewCompositor(state, stage, tracker, opts.Background, metrics),
		opts:       opts,
		metrics:    metrics,
		logger:     log.With().Str("module", "pip.lifecycle").Logger(),
	}
	l.logger.Info().Str("variant", l.caps.variant).Msg("floating window capabilities resolved")
	return l
}

func (l *Lifecycle) Supported() bool { return l.caps.supported() }

// Start begins a session. It is a no-op while a session is running and on
// platforms without floating window support. When the capture stream or the
// presentation request fails the partial session is stopped and the error
// returned.
func (l *Lifecycle) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return nil
	}
	if !l.caps.supported() {
		l.logger.Debug().Msg("start declined, floating window unsupported")
		return nil
	}
	l.ensureElements()
	l.running = true
	l.session++
	l.exit = &exitListener{l: l, session: l.session}

	loopCtx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.loop = &conc.WaitGroup{}
	target := l.target
	l.loop.Go(func() { l.run(loopCtx, target) })

	stream, err := l.platform.CaptureStream(target, l.opts.FPS)
	if err != nil {
		return l.abort(ctx, fmt.Errorf("%w: %w", ErrCaptureFailed, err))
	}
	l.element.SetSource(stream)
	l.element.SetMuted(true)
	if err := l.element.Play(ctx); err != nil {
		return l.abort(ctx, fmt.Errorf("%w: play: %w", ErrPresentFailed, err))
	}
	if err := l.caps.request(ctx, l.element); err != nil {
		return l.abort(ctx, fmt.Errorf("%w: %w", ErrPresentFailed, err))
	}
	l.platform.AddEventListener(core.EventLeavePictureInPicture, l.exit)

	l.metrics.sessionStarted()
	l.logger.Info().Str("stream", stream.ID()).Uint64("session", l.session).Int("fps", l.opts.FPS).Msg("session started")
	return nil
}

func (l *Lifecycle) abort(ctx context.Context, err error) error {
	l.metrics.startFailed()
	l.logger.Error().Err(err).Msg("session start failed")
	l.stopLocked(ctx)
	return err
}

// Stop ends the session. Safe to call repeatedly, before any Start, and from
// the platform exit hook.
func (l *Lifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked(ctx)
	return nil
}

func (l *Lifecycle) stopLocked(ctx context.Context) {
	if !l.running {
		return
	}
	l.running = false

	l.cancel()
	l.loop.Wait()
	l.cancel, l.loop = nil, nil

	l.platform.RemoveEventListener(core.EventLeavePictureInPicture, l.exit)

	if l.caps.presenting(l.element) {
		if err := l.caps.exit(ctx, l.element); err != nil {
			l.logger.Debug().Err(err).Msg("exit floating window rejected")
		}
	}

	if stream := l.element.Source(); stream != nil {
		for _, t := range stream.Tracks() {
			t.Stop()
		}
	}
	l.element.SetSource(nil)

	l.tracker.Unbind()
	l.compositor.Reset()
	l.logger.Info().Msg("session stopped")
}

func (l *Lifecycle) ensureElements() {
	if l.target == nil {
		l.target = NewRenderTarget(l.opts.Width, l.opts.Height)
	}
	if l.element == nil {
		l.element = l.platform.CreatePlaybackElement()
		l.element.SetMuted(true)
	}
}

// run draws at a fixed period. A ticker keeps firing while the page is
// hidden, unlike frame-synced callbacks.
func (l *Lifecycle) run(ctx context.Context, target *RenderTarget) {
	ticker := time.NewTicker(time.Second / time.Duration(l.opts.FPS))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = l.compositor.DrawFrame(target)
		}
	}
}

// OnPlatformExit sets the hook called when the platform closes the floating
// window by itself. The hook runs on its own goroutine and receives the number
// of the session whose window was closed.
func (l *Lifecycle) OnPlatformExit(fn func(session uint64)) {
	l.hookMu.Lock()
	l.onExit = fn
	l.hookMu.Unlock()
}

// Current returns the number of the running session, 0 when idle.
func (l *Lifecycle) Current() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return 0
	}
	return l.session
}

func (l *Lifecycle) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Target returns the raster, nil before the first Start.
func (l *Lifecycle) Target() *RenderTarget {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.target
}

func (l *Lifecycle) Level() float64 { return l.tracker.Level() }

type exitListener struct {
	l       *Lifecycle
	session uint64
}

func (e *exitListener) HandleEvent(ev core.PlatformEvent) {
	if ev != core.EventLeavePictureInPicture {
		return
	}
	e.l.hookMu.Lock()
	fn := e.l.onExit
	e.l.hookMu.Unlock()
	e.l.logger.Debug().Uint64("session", e.session).Msg("floating window closed by platform")
	if fn != nil {
		go fn(e.session)
	}
}
