package window

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/dkeye/pipcast/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CaptureStream is a live stream sampled from a surface.
type CaptureStream struct {
	id    string
	track *CaptureTrack
}

func (s *CaptureStream) ID() string { return s.id }

func (s *CaptureStream) Tracks() []core.MediaTrack {
	return []core.MediaTrack{s.track}
}

func (s *CaptureStream) Track() *CaptureTrack { return s.track }

// CaptureTrack samples its surface at a fixed rate and keeps the latest
// encoded frame until stopped.
type CaptureTrack struct {
	id  string
	src core.Surface
	enc Encoder

	mu     sync.RWMutex
	latest []byte
	seq    uint64

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

func startCapture(src core.Surface, fps int, enc Encoder) *CaptureStream {
	ctx, cancel := context.WithCancel(context.Background())
	t := &CaptureTrack{
		id:     uuid.NewString(),
		src:    src,
		enc:    enc,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go t.run(ctx, time.Second/time.Duration(fps))
	return &CaptureStream{id: uuid.NewString(), track: t}
}

func (t *CaptureTrack) run(ctx context.Context, period time.Duration) {
	defer close(t.done)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			data, err := t.enc.Encode(t.src.Snapshot())
			if err != nil {
				log.Error().Err(err).Str("module", "window.capture").Str("track", t.id).Msg("encode frame")
				continue
			}
			t.mu.Lock()
			t.latest = data
			t.seq++
			t.mu.Unlock()
		}
	}
}

func (t *CaptureTrack) ID() string             { return t.id }
func (t *CaptureTrack) Kind() domain.MediaKind { return domain.MediaVideo }

// Stop ends sampling and waits for the sampler to exit. Idempotent.
func (t *CaptureTrack) Stop() {
	t.stopOnce.Do(func() {
		t.cancel()
		<-t.done
		log.Debug().Str("module", "window.capture").Str("track", t.id).Msg("capture stopped")
	})
}

func (t *CaptureTrack) Stopped() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Latest returns the last encoded frame and its sequence number; seq 0 means
// nothing was captured yet.
func (t *CaptureTrack) Latest() ([]byte, uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.latest, t.seq
}
