package sfu

import (
	"errors"
	"math"
	"slices"
	"sync"

	"github.com/dkeye/pipcast/internal/core"
)

var (
	ErrUnknownEvent     = errors.New("unknown track event")
	ErrListenerNotFound = errors.New("level listener not registered")
)

const silenceDBov uint8 = 127

// LevelEmitter fans the audio level of one relayed track out to listeners.
// It implements core.TrackEventSource.
type LevelEmitter struct {
	mu        sync.RWMutex
	listeners []core.LevelListener
}

func NewLevelEmitter() *LevelEmitter {
	return &LevelEmitter{}
}

func (e *LevelEmitter) On(event core.TrackEvent, l core.LevelListener) {
	if event != core.TrackAudioLevelChanged || l == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

func (e *LevelEmitter) Off(event core.TrackEvent, l core.LevelListener) error {
	if event != core.TrackAudioLevelChanged {
		return ErrUnknownEvent
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := slices.IndexFunc(e.listeners, func(x core.LevelListener) bool { return x == l })
	if idx < 0 {
		return ErrListenerNotFound
	}
	e.listeners = slices.Delete(e.listeners, idx, idx+1)
	return nil
}

// Emit delivers level to every listener outside the lock.
func (e *LevelEmitter) Emit(level float64) {
	e.mu.RLock()
	snapshot := slices.Clone(e.listeners)
	e.mu.RUnlock()
	for _, l := range snapshot {
		l.OnLevel(level)
	}
}

func (e *LevelEmitter) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}

// Catalog reports the events relayed tracks can emit.
type Catalog struct{}

func (Catalog) AudioLevelEvent() (core.TrackEvent, bool) {
	return core.TrackAudioLevelChanged, true
}

// levelFromDBov converts an RFC 6464 level (0 loudest, 127 silent) into a
// linear 0..1 amplitude.
func levelFromDBov(dBov uint8) float64 {
	if dBov >= silenceDBov {
		return 0
	}
	return math.Pow(10, -float64(dBov)/20)
}
