package core

type TrackEvent string

const TrackAudioLevelChanged TrackEvent = "track.audioLevelsChanged"

// LevelListener receives raw audio levels in the 0..1 range.
// Implementations must be comparable (pointer receivers) so that Off can
// match the exact listener passed to On.
type LevelListener interface {
	OnLevel(level float64)
}

// TrackEventSource is the per-track event emitter.
type TrackEventSource interface {
	On(event TrackEvent, l LevelListener)
	Off(event TrackEvent, l LevelListener) error
}

// EventCatalog exposes the event names a media backend supports.
type EventCatalog interface {
	AudioLevelEvent() (TrackEvent, bool)
}
