package core

import (
	"cmp"
	"slices"
	"sync"

	"github.com/dkeye/pipcast/internal/domain"
	"github.com/rs/zerolog/log"
)

type roomImpl struct {
	room  *domain.Room
	mu    sync.RWMutex
	bySID map[SessionID]MemberSession
}

func NewRoomService(room *domain.Room) RoomService {
	return &roomImpl{
		room:  room,
		bySID: make(map[SessionID]MemberSession),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *roomImpl) AddMember(sid SessionID, ms MemberSession) {
	r.mu.Lock()
	r.bySID[sid] = ms
	n := len(r.bySID)
	r.mu.Unlock()
	log.Info().Str("module", "core.room").Str("room", string(r.room.Name)).Str("sid", string(sid)).Int("members", n).Msg("member added")
}

func (r *roomImpl) RemoveMember(sid SessionID) {
	r.mu.Lock()
	_, ok := r.bySID[sid]
	delete(r.bySID, sid)
	n := len(r.bySID)
	r.mu.Unlock()
	if ok {
		log.Info().Str("module", "core.room").Str("room", string(r.room.Name)).Str("sid", string(sid)).Int("members", n).Msg("member removed")
	}
}

// Broadcast sends data to everyone but the sender. Members without a signal
// connection are skipped and not counted as dropped.
func (r *roomImpl) Broadcast(from SessionID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for sid, m := range r.bySID {
		if sid == from {
			continue
		}
		sc := m.Signal()
		if sc == nil {
			continue
		}
		if err := sc.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.RLock()
	out := make([]MemberDTO, 0, len(r.bySID))
	for _, ms := range r.bySID {
		meta := ms.Meta()
		out = append(out, MemberDTO{
			ID:       meta.User.ID,
			Username: meta.User.Username,
			Muted:    meta.Muted(),
			Hidden:   meta.Hidden(),
			JoinedAt: meta.JoinedAt,
		})
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b MemberDTO) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
