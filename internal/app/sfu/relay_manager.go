package sfu

import (
	"context"
	"sync"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/dkeye/pipcast/internal/domain"
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type trackKey struct {
	sid  core.SessionID
	kind domain.MediaKind
}

type RelayManager struct {
	mu      sync.RWMutex
	relays  map[trackKey]*Relay
	onLevel func(sid core.SessionID, level float64)
}

func NewRelayManager() *RelayManager {
	return &RelayManager{
		relays: make(map[trackKey]*Relay),
	}
}

// OnLevel installs a callback receiving every audio level parsed by any relay.
// It must be set before the first relay starts.
func (m *RelayManager) OnLevel(fn func(sid core.SessionID, level float64)) {
	m.onLevel = fn
}

// StartRelay creates a new Relay for the given speaker SID and starts its loop.
func (m *RelayManager) StartRelay(ctx context.Context, sid core.SessionID, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
	kind := domain.MediaKind(track.Kind().String())
	logger := log.With().
		Str("module", "relay").
		Str("sid", string(sid)).
		Str("kind", string(kind)).
		Logger()

	relayCtx, cancel := context.WithCancel(ctx)
	relay := NewRelay(track, kind, cancel)
	if kind == domain.MediaAudio {
		relay.levelExtID = audioLevelExtID(receiver)
		if onLevel := m.onLevel; onLevel != nil {
			relay.onLevel = func(level float64) { onLevel(sid, level) }
		}
		if relay.levelExtID == 0 {
			logger.Warn().Msg("audio level extension not negotiated, levels unavailable")
		}
	}

	key := trackKey{sid: sid, kind: kind}
	m.mu.Lock()
	if old, ok := m.relays[key]; ok {
		logger.Info().Msg("replacing existing relay for sid")
		old.markAllDelete()
		if old.cancel != nil {
			old.cancel()
		}
	}
	m.relays[key] = relay
	m.mu.Unlock()

	logger.Info().Msg("starting relay loop")

	go relay.loop(relayCtx, &logger)
}

func audioLevelExtID(receiver *webrtc.RTPReceiver) uint8 {
	if receiver == nil {
		return 0
	}
	for _, ext := range receiver.GetParameters().HeaderExtensions {
		if ext.URI == sdp.AudioLevelURI {
			return uint8(ext.ID)
		}
	}
	return 0
}

// Subscribe creates a local track mirroring src on dst's peer connection.
func (m *RelayManager) Subscribe(srcSID, dstSID core.SessionID, mc core.MediaConnection, src *webrtc.TrackRemote) {
	logger := log.With().
		Str("module", "relay").
		Str("src_sid", string(srcSID)).
		Str("dst_sid", string(dstSID)).
		Logger()

	local, err := webrtc.NewTrackLocalStaticRTP(src.Codec().RTPCodecCapability, src.ID(), string(srcSID))
	if err != nil {
		logger.Error().Err(err).Msg("create local track")
		return
	}
	sender, err := mc.AddLocalTrack(local)
	if err != nil {
		logger.Error().Err(err).Msg("add local track")
		return
	}
	// Drain RTCP so interceptors keep running.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()
	m.AddSubscriber(srcSID, domain.MediaKind(src.Kind().String()), dstSID, local)
	logger.Info().Msg("subscribed")
}

// AddSubscriber attaches an OutTrack to the relay of srcSID for dstSID.
func (m *RelayManager) AddSubscriber(srcSID core.SessionID, kind domain.MediaKind, dstSID core.SessionID, localTrack *webrtc.TrackLocalStaticRTP) {
	m.mu.RLock()
	relay, ok := m.relays[trackKey{sid: srcSID, kind: kind}]
	m.mu.RUnlock()
	if !ok {
		return
	}
	relay.AddOutTrack(dstSID, NewOutTrack(localTrack))
}

// MarkSubscriberDelete marks every OutTrack of dstSID on srcSID's relays as TrackStateDelete.
func (m *RelayManager) MarkSubscriberDelete(srcSID, dstSID core.SessionID) {
	for _, relay := range m.relaysOf(srcSID) {
		if ot, ok := relay.outTrack(dstSID); ok {
			ot.MarkDelete()
		}
	}
}

// StopRelay stops the relays of srcSID and removes them from the manager.
func (m *RelayManager) StopRelay(srcSID core.SessionID) {
	m.mu.Lock()
	var stopped []*Relay
	for key, relay := range m.relays {
		if key.sid == srcSID {
			stopped = append(stopped, relay)
			delete(m.relays, key)
		}
	}
	m.mu.Unlock()
	for _, relay := range stopped {
		relay.markAllDelete()
		if relay.cancel != nil {
			relay.cancel()
		}
	}
}

// SetMuted pauses or resumes forwarding of srcSID's track of the given kind.
func (m *RelayManager) SetMuted(srcSID core.SessionID, kind domain.MediaKind, muted bool) bool {
	m.mu.RLock()
	relay, ok := m.relays[trackKey{sid: srcSID, kind: kind}]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	relay.setMuted(muted)
	return true
}

// HasRelay reports whether any relay exists for sid.
func (m *RelayManager) HasRelay(sid core.SessionID) bool {
	return len(m.relaysOf(sid)) > 0
}

// SrcTracks returns the source tracks relayed for sid.
func (m *RelayManager) SrcTracks(sid core.SessionID) []*webrtc.TrackRemote {
	relays := m.relaysOf(sid)
	out := make([]*webrtc.TrackRemote, 0, len(relays))
	for _, r := range relays {
		out = append(out, r.Src)
	}
	return out
}

// Tracks lists every relayed track as a read-only handle.
func (m *RelayManager) Tracks() []core.Track {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Track, 0, len(m.relays))
	for key, r := range m.relays {
		t := core.Track{
			ID:          domain.TrackID(r.Src.ID()),
			Participant: key.sid.UserID(),
			Kind:        key.kind,
		}
		if r.levels != nil {
			t.Events = r.levels
		}
		out = append(out, t)
	}
	return out
}

func (m *RelayManager) relaysOf(sid core.SessionID) []*Relay {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Relay
	for key, r := range m.relays {
		if key.sid == sid {
			out = append(out, r)
		}
	}
	return out
}
