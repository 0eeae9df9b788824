package sfu

import (
	"context"
	"maps"
	"sync"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/dkeye/pipcast/internal/domain"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

type Relay struct {
	Src  *webrtc.TrackRemote
	kind domain.MediaKind

	// levels is nil for video relays.
	levels     *LevelEmitter
	levelExtID uint8
	onLevel    func(level float64)

	mu        sync.RWMutex
	outTracks map[core.SessionID]*OutTrack
	muted     bool

	cancel context.CancelFunc
}

func NewRelay(src *webrtc.TrackRemote, kind domain.MediaKind, cancel context.CancelFunc) *Relay {
	r := &Relay{
		Src:       src,
		kind:      kind,
		outTracks: make(map[core.SessionID]*OutTrack),
		cancel:    cancel,
	}
	if kind == domain.MediaAudio {
		r.levels = NewLevelEmitter()
	}
	return r
}

// Levels is the audio level event source of this relay, nil for video.
func (r *Relay) Levels() *LevelEmitter { return r.levels }

// loop reads RTP packets from the source track and forwards them to all OutTracks.
func (r *Relay) loop(ctx context.Context, logger *zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("relay ctx done, marking all out tracks for delete")
			r.markAllDelete()
			return
		default:
		}
		pkt, _, err := r.Src.ReadRTP()
		if err != nil {
			logger.Error().Err(err).Msg("relay read RTP error, stopping")
			r.markAllDelete()
			return
		}
		r.observe(pkt)
		r.forward(pkt, logger)
	}
}

// observe extracts the RFC 6464 audio level header extension when negotiated.
func (r *Relay) observe(pkt *rtp.Packet) {
	if r.levels == nil || r.levelExtID == 0 {
		return
	}
	raw := pkt.GetExtension(r.levelExtID)
	if raw == nil {
		return
	}
	var ext rtp.AudioLevelExtension
	if err := ext.Unmarshal(raw); err != nil {
		return
	}
	level := levelFromDBov(ext.Level)
	r.levels.Emit(level)
	if r.onLevel != nil {
		r.onLevel(level)
	}
}

func (r *Relay) forward(pkt *rtp.Packet, logger *zerolog.Logger) {
	r.mu.RLock()
	snapshot := make(map[core.SessionID]*OutTrack, len(r.outTracks))
	maps.Copy(snapshot, r.outTracks)
	r.mu.RUnlock()

	dirty := make([]core.SessionID, 0, len(snapshot))
	for dstSID, ot := range snapshot {
		switch ot.GetState() {
		case TrackStateDelete:
			dirty = append(dirty, dstSID)
		case TrackStateMuted:
		case TrackStateOk:
			if err := ot.write(pkt); err != nil {
				logger.Error().
					Err(err).
					Str("dst_sid", string(dstSID)).
					Msg("relay write RTP error, marking outtrack as delete")
				ot.MarkDelete()
				dirty = append(dirty, dstSID)
			}
		}
	}

	// Cleanup is done outside the RLock.
	if len(dirty) > 0 {
		r.cleanupDeleted(dirty)
	}
}

func (r *Relay) cleanupDeleted(dirty []core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sid := range dirty {
		delete(r.outTracks, sid)
	}
}

func (r *Relay) markAllDelete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ot := range r.outTracks {
		ot.MarkDelete()
	}
}

func (r *Relay) AddOutTrack(dst core.SessionID, ot *OutTrack) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.muted {
		ot.MarkMuted()
	}
	r.outTracks[dst] = ot
}

func (r *Relay) outTrack(dst core.SessionID) (*OutTrack, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ot, ok := r.outTracks[dst]
	return ot, ok
}

// setMuted toggles forwarding to every subscriber without dropping them.
func (r *Relay) setMuted(muted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muted = muted
	for _, ot := range r.outTracks {
		if muted {
			ot.MarkMuted()
		} else {
			ot.MarkOk()
		}
	}
}
