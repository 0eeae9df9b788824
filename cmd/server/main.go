package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/pipcast/internal/adapters/http"
	"github.com/dkeye/pipcast/internal/adapters/rtc"
	sig "github.com/dkeye/pipcast/internal/adapters/signal"
	"github.com/dkeye/pipcast/internal/adapters/window"
	"github.com/dkeye/pipcast/internal/app"
	"github.com/dkeye/pipcast/internal/app/orch"
	"github.com/dkeye/pipcast/internal/app/pip"
	"github.com/dkeye/pipcast/internal/app/sfu"
	"github.com/dkeye/pipcast/internal/config"
	"github.com/dkeye/pipcast/internal/core"
	"github.com/dkeye/pipcast/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var live atomic.Pointer[app.CallState]
	cfg, err := config.LoadAndWatch(func(next *config.Config) {
		setLogLevel(next.LogLevel)
		if cs := live.Load(); cs != nil {
			cs.SetPalette(next.PiP.AvatarBackgrounds)
		}
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setLogLevel(cfg.LogLevel)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := pip.NewMetrics(registry)

	manager := app.NewRoomManager()
	reg := app.NewRegistry()
	relays := sfu.NewRelayManager()
	speakers := app.NewSpeakerDetector()
	relays.OnLevel(func(sid core.SessionID, level float64) {
		speakers.Observe(sid.UserID(), level)
	})

	callState := app.NewCallState(reg, relays, speakers, domain.RoomName(cfg.PiP.Room))
	callState.SetPalette(cfg.PiP.AvatarBackgrounds)
	live.Store(callState)

	encoder, err := window.NewEncoder(cfg.PiP.FrameFormat, cfg.PiP.FrameQuality)
	if err != nil {
		log.Fatal().Err(err).Msg("frame encoder")
	}
	platform := window.NewPlatform(encoder, cfg.PiP.Enabled)
	stage := window.NewStageBoard(cfg.PiP.StageStaleAfter)

	o := &orch.Orchestrator{
		Registry: reg,
		Rooms:    manager,
		Policy:   app.NewStrikePolicy(3),
		Relays:   relays,
		OnLeft: func(sid core.SessionID) {
			callState.Forget(sid.UserID())
			stage.Remove(sid.UserID())
		},
	}

	background, err := pip.ParseColor(cfg.PiP.Background)
	if err != nil {
		log.Warn().Err(err).Str("background", cfg.PiP.Background).Msg("invalid pip background, using default")
		background = pip.DefaultBackground
	}
	life := pip.NewLifecycle(platform, callState, stage, sfu.Catalog{}, pip.Options{
		Width:      cfg.PiP.Width,
		Height:     cfg.PiP.Height,
		FPS:        cfg.PiP.FPS,
		Background: background,
	}, metrics)
	store := pip.NewStore()
	bridge := pip.NewBridge(life, store, cfg.PiP.AutoEnterOnHidden)
	unwatch := bridge.WatchVisibility(platform)
	defer unwatch()

	api, err := rtc.NewAPI()
	if err != nil {
		log.Fatal().Err(err).Msg("webrtc api")
	}
	ctl := sig.NewSignalWSController(o, sig.Features{
		PiP:           bridge,
		InPiP:         store.InPip,
		Visibility:    platform,
		Stage:         stage,
		Pins:          callState,
		ToggleLimiter: sig.NewRateLimiter(cfg.PiP.ToggleLimit, cfg.PiP.ToggleInterval),
	}, api)
	ctl.Limits = sig.ConnLimits{
		ReadLimit:  max(cfg.ReadLimit, sig.StageReadLimit(window.MaxStageFrameBytes)),
		PingPeriod: cfg.PingPeriod,
	}
	store.Subscribe(func(s pip.State) {
		ctl.BroadcastPiPState(callState.Room(), s.InPip)
	})

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Signal:     ctl,
		Rooms:      manager,
		Evictor:    o,
		PiP:        bridge,
		Visibility: platform,
		Viewer:     window.NewViewer(platform, cfg.PiP.FPS).Handle,
		Gatherer:   registry,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("pipcast server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := life.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("pip stop")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

func setLogLevel(s string) {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
