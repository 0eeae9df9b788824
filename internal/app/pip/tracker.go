package pip

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/dkeye/pipcast/internal/domain"
	"github.com/rs/zerolog/log"
)

const levelGain = 1.2

// AudioBinding is the live subscription of a Tracker. Release must use the
// same Source, Event and Listener that were used to subscribe.
type AudioBinding struct {
	Participant domain.UserID
	Source      core.TrackEventSource
	Event       core.TrackEvent
	Listener    core.LevelListener
}

// Tracker follows the audio level of at most one participant at a time.
type Tracker struct {
	catalog core.EventCatalog
	metrics *Metrics

	mu      sync.Mutex
	binding *AudioBinding
	gen     uint64

	// state pairs the level with the generation allowed to change it; older
	// listeners that could not be detached are ignored.
	state atomic.Pointer[levelState]
}

type levelState struct {
	gen   uint64
	level float64
}

func NewTracker(catalog core.EventCatalog, metrics *Metrics) *Tracker {
	t := &Tracker{catalog: catalog, metrics: metrics}
	t.state.Store(&levelState{})
	return t
}

type levelListener struct {
	tracker *Tracker
	gen     uint64
}

func (l *levelListener) OnLevel(level float64) {
	if math.IsNaN(level) {
		return
	}
	next := &levelState{gen: l.gen, level: math.Max(0, math.Min(level*levelGain, 1))}
	for {
		cur := l.tracker.state.Load()
		if cur.gen != l.gen {
			return
		}
		if l.tracker.state.CompareAndSwap(cur, next) {
			l.tracker.metrics.level(next.level)
			return
		}
	}
}

// Bind releases the current binding and subscribes to the audio level of id.
// It reports whether a binding was made; when the participant has no audio
// track, or the backend exposes no level event, the level stays at zero.
func (t *Tracker) Bind(snap core.Snapshot, id domain.UserID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unbindLocked()

	track, ok := snap.TrackOf(id, domain.MediaAudio)
	if !ok || track.Events == nil {
		log.Warn().Str("module", "pip.tracker").Str("participant", string(id)).Msg("no audio source, level stays static")
		return false
	}
	var event core.TrackEvent
	if t.catalog != nil {
		event, ok = t.catalog.AudioLevelEvent()
	}
	if t.catalog == nil || !ok {
		log.Warn().Str("module", "pip.tracker").Str("participant", string(id)).Msg("audio level event unavailable")
		return false
	}

	t.gen++
	listener := &levelListener{tracker: t, gen: t.gen}
	t.state.Store(&levelState{gen: t.gen})
	track.Events.On(event, listener)
	t.binding = &AudioBinding{
		Participant: id,
		Source:      track.Events,
		Event:       event,
		Listener:    listener,
	}
	log.Debug().Str("module", "pip.tracker").Str("participant", string(id)).Str("track", string(track.ID)).Msg("bound")
	return true
}

// Unbind releases the binding if any. The tracker always ends unbound with a
// zero level, even if the event source refuses the release.
func (t *Tracker) Unbind() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unbindLocked()
}

func (t *Tracker) unbindLocked() {
	if b := t.binding; b != nil {
		if err := b.Source.Off(b.Event, b.Listener); err != nil {
			log.Debug().Err(err).Str("module", "pip.tracker").Str("participant", string(b.Participant)).Msg("unsubscribe failed")
		}
	}
	t.binding = nil
	t.gen++
	t.state.Store(&levelState{gen: t.gen})
	t.metrics.level(0)
}

// Binding returns a copy of the active binding.
func (t *Tracker) Binding() (AudioBinding, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.binding == nil {
		return AudioBinding{}, false
	}
	return *t.binding, true
}

func (t *Tracker) Level() float64 {
	return t.state.Load().level
}
