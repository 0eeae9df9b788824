package app

import (
	"sync"
	"time"

	"github.com/dkeye/pipcast/internal/domain"
)

const (
	speakerSmoothing = 0.3
	speakerThreshold = 0.05
	speakerHold      = 1500 * time.Millisecond
)

// SpeakerDetector keeps a moving average of every member's audio level and
// elects the loudest one as dominant speaker. A new speaker only takes over
// after the current one held the floor for speakerHold.
type SpeakerDetector struct {
	mu       sync.Mutex
	now      func() time.Time
	levels   map[domain.UserID]float64
	dominant domain.UserID
	since    time.Time
}

func NewSpeakerDetector() *SpeakerDetector {
	return &SpeakerDetector{
		now:    time.Now,
		levels: make(map[domain.UserID]float64),
	}
}

func (d *SpeakerDetector) Observe(id domain.UserID, level float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	avg := speakerSmoothing*level + (1-speakerSmoothing)*d.levels[id]
	d.levels[id] = avg

	if id == d.dominant || avg < speakerThreshold {
		return
	}
	now := d.now()
	if d.dominant == "" || (avg > d.levels[d.dominant] && now.Sub(d.since) >= speakerHold) {
		d.dominant = id
		d.since = now
	}
}

func (d *SpeakerDetector) Dominant() (domain.UserID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dominant, d.dominant != ""
}

func (d *SpeakerDetector) Forget(id domain.UserID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.levels, id)
	if d.dominant == id {
		d.dominant = ""
	}
}
