package orch

import (
	"github.com/dkeye/pipcast/internal/core"
	"github.com/dkeye/pipcast/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join moves sid into roomName, leaving its previous room first. Joining
// the current room again is a no-op.
func (o *Orchestrator) Join(sid core.SessionID, roomName domain.RoomName) {
	prev, _, ok := o.Registry.RoomOf(sid)
	if ok && prev == roomName {
		return
	}
	if ok {
		o.KickBySID(sid)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(prev)).Msg("kicked from room")
	}
	if session, ok := o.Registry.GetSession(sid); ok {
		room := o.Rooms.GetOrCreate(roomName)
		room.AddMember(sid, session)
		o.Registry.UpdateRoom(sid, roomName)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomName)).Msg("added to room")
		o.OnMediaReady(sid)
	}
}

func (o *Orchestrator) KickBySID(sid core.SessionID) {
	o.cleanupMedia(sid)
	o.cleanupMembership(sid)
}

// OnDisconnect releases everything the signal connection of sid held.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	o.KickBySID(sid)
	o.Registry.Unbind(sid)
}

func (o *Orchestrator) cleanupMembership(sid core.SessionID) {
	roomName, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	room := o.Rooms.GetOrCreate(roomName)
	room.RemoveMember(sid)
	o.Registry.RemoveRoom(sid)
	if sess, ok := o.Registry.GetSession(sid); ok && o.Policy != nil {
		o.Policy.Forget(sess)
	}
	o.Rooms.ReapIfEmpty(roomName)
	if o.OnLeft != nil {
		o.OnLeft(sid)
	}
}

// EvictRoom kicks every member of name and forgets the room.
func (o *Orchestrator) EvictRoom(name domain.RoomName) {
	for _, snap := range o.Registry.MembersOfRoom(name) {
		o.KickBySID(snap.SID)
	}
	o.Rooms.StopRoom(name)
}
