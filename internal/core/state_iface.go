package core

import "github.com/dkeye/pipcast/internal/domain"

// Track is a read-only handle of a published media track. Ownership of the
// underlying media stays with the track registry.
type Track struct {
	ID          domain.TrackID
	Participant domain.UserID
	Kind        domain.MediaKind
	// Events is nil when the track exposes no level events.
	Events TrackEventSource
}

// Snapshot is the state of the call at one point in time.
type Snapshot struct {
	OnStage           *domain.Participant
	Participants      []domain.Participant
	Tracks            []Track
	AvatarBackgrounds []string
}

// Participant finds a participant by id.
func (s Snapshot) Participant(id domain.UserID) (domain.Participant, bool) {
	for _, p := range s.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Participant{}, false
}

// TrackOf returns the first track of the given kind published by id.
func (s Snapshot) TrackOf(id domain.UserID, kind domain.MediaKind) (Track, bool) {
	for _, t := range s.Tracks {
		if t.Participant == id && t.Kind == kind {
			return t, true
		}
	}
	return Track{}, false
}

// StateProvider hands out snapshots synchronously, on demand.
type StateProvider interface {
	Snapshot() Snapshot
}

type Action string

// Dispatcher receives application level notifications.
type Dispatcher interface {
	Dispatch(Action)
}
