package app

import (
	"slices"
	"strings"
	"sync"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/dkeye/pipcast/internal/domain"
	"github.com/rs/zerolog/log"
)

// TrackSource lists the tracks currently published in the call.
type TrackSource interface {
	Tracks() []core.Track
}

// CallState is the read model of the focused room. It implements
// core.StateProvider; every call builds a fresh snapshot from the registry,
// the relays and the speaker detector.
type CallState struct {
	registry *Registry
	tracks   TrackSource
	speakers *SpeakerDetector

	mu      sync.RWMutex
	room    domain.RoomName
	pinned  domain.UserID
	palette []string
}

func NewCallState(reg *Registry, tracks TrackSource, speakers *SpeakerDetector, room domain.RoomName) *CallState {
	return &CallState{
		registry: reg,
		tracks:   tracks,
		speakers: speakers,
		room:     room,
	}
}

func (s *CallState) Snapshot() core.Snapshot {
	s.mu.RLock()
	room, pinned := s.room, s.pinned
	palette := slices.Clone(s.palette)
	s.mu.RUnlock()

	members := s.registry.MembersOfRoom(room)
	inRoom := make(map[domain.UserID]bool, len(members))
	participants := make([]domain.Participant, 0, len(members))
	for _, m := range members {
		u, ok := s.registry.User(m.SID)
		if !ok {
			continue
		}
		inRoom[u.ID] = true
		participants = append(participants, domain.ParticipantOf(&u))
	}
	slices.SortFunc(participants, func(a, b domain.Participant) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})

	var tracks []core.Track
	if s.tracks != nil {
		for _, t := range s.tracks.Tracks() {
			if inRoom[t.Participant] {
				tracks = append(tracks, t)
			}
		}
	}

	snap := core.Snapshot{
		Participants:      participants,
		Tracks:            tracks,
		AvatarBackgrounds: palette,
	}
	snap.OnStage = s.onStage(snap, pinned, inRoom)
	return snap
}

// onStage picks the pinned member, then the dominant speaker, then the first member.
func (s *CallState) onStage(snap core.Snapshot, pinned domain.UserID, inRoom map[domain.UserID]bool) *domain.Participant {
	pick := func(id domain.UserID) *domain.Participant {
		if !inRoom[id] {
			return nil
		}
		p, ok := snap.Participant(id)
		if !ok {
			return nil
		}
		return &p
	}
	if pinned != "" {
		if p := pick(pinned); p != nil {
			return p
		}
	}
	if s.speakers != nil {
		if id, ok := s.speakers.Dominant(); ok {
			if p := pick(id); p != nil {
				return p
			}
		}
	}
	if len(snap.Participants) > 0 {
		p := snap.Participants[0]
		return &p
	}
	return nil
}

// Focus switches the room whose participants are shown.
func (s *CallState) Focus(room domain.RoomName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room != room {
		s.pinned = ""
	}
	s.room = room
	log.Info().Str("module", "app.callstate").Str("room", string(room)).Msg("focus")
}

func (s *CallState) Room() domain.RoomName {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

// Pin puts id on stage until it leaves or is unpinned. An empty id unpins.
func (s *CallState) Pin(id domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinned = id
	log.Info().Str("module", "app.callstate").Str("pinned", string(id)).Msg("pin")
}

func (s *CallState) SetPalette(palette []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.palette = slices.Clone(palette)
}

// Forget drops everything known about a member who left.
func (s *CallState) Forget(id domain.UserID) {
	if s.speakers != nil {
		s.speakers.Forget(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pinned == id {
		s.pinned = ""
	}
}
