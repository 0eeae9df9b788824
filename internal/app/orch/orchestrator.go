package orch

import (
	"slices"

	"github.com/dkeye/pipcast/internal/app"
	"github.com/dkeye/pipcast/internal/app/sfu"
	"github.com/dkeye/pipcast/internal/core"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Relays   *sfu.RelayManager
	// OnLeft is notified after a member left its room.
	OnLeft func(sid core.SessionID)
}

// OnFrame relays a signal message from sid to its room mates and applies
// the backpressure policy to everyone who could not keep up.
func (o *Orchestrator) OnFrame(sid core.SessionID, data core.Frame) {
	roomName, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	room := o.Rooms.GetOrCreate(roomName)

	res := room.Broadcast(sid, data)
	if o.Policy == nil || len(res.Dropped) == 0 {
		return
	}
	var kick []core.MemberSession
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			kick = append(kick, slow)
		case app.MarkSlow:
			log.Warn().Str("module", "orch").Str("room", string(roomName)).Str("user", string(slow.Meta().User.ID)).Msg("slow member")
		case app.DropFrame, app.NoAction:
		}
	}
	if len(kick) == 0 {
		return
	}
	for _, snap := range o.Registry.MembersOfRoom(roomName) {
		if slices.Contains(kick, snap.Session) {
			log.Warn().Str("module", "orch").Str("sid", string(snap.SID)).Msg("kicking member after backpressure")
			o.KickBySID(snap.SID)
			o.Registry.Cancel(snap.SID)
		}
	}
}
