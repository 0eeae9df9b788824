package signal

import (
	"encoding/json"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/dkeye/pipcast/internal/domain"
	"github.com/rs/zerolog/log"
)

type memberEvent struct {
	Type string      `json:"type"`
	User domain.User `json:"user"`
}

func (ctl *SignalWSController) handleJoin(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	type joinPayload struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Name string `json:"name,omitempty"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	roomName, ok := domain.ParseRoomName(p.Room)
	if !ok {
		ctl.sendError(conn, "bad_room")
		return
	}

	if p.Name != "" {
		if err := ctl.Orch.Registry.UpdateUsername(sid, p.Name); err != nil {
			ctl.sendError(conn, "invalid_name")
			return
		}
		log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", p.Name).Msg("rename on join")
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(roomName)).Msg("join")
	ctl.Orch.Join(sid, roomName)
	room := ctl.Orch.Rooms.GetOrCreate(roomName)
	clientResp := struct {
		Type    string           `json:"type"`
		Room    domain.RoomName  `json:"room"`
		Members []core.MemberDTO `json:"members"`
		Count   int              `json:"count"`
	}{
		Type:    "room_state",
		Room:    room.Room().Name,
		Members: room.MembersSnapshot(),
		Count:   room.MemberCount(),
	}
	ctl.sendJSON(conn, clientResp)

	if user, ok := ctl.Orch.Registry.User(sid); ok {
		ctl.BroadcastFrom(sid, memberEvent{Type: "member_joined", User: user})
	}
}

// handleLeave leaves the current room; the connection stays open.
func (ctl *SignalWSController) handleLeave(
	sid core.SessionID,
	conn *wsSignalConn,
) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	roomName, _, ok := ctl.Orch.Registry.RoomOf(sid)

	ctl.Orch.KickBySID(sid)
	ctl.sendJSON(conn, map[string]any{
		"type": "left",
	})

	if ok {
		if user, found := ctl.Orch.Registry.User(sid); found {
			ctl.BroadcastRoom(roomName, memberEvent{Type: "member_left", User: user})
		}
	}
}
