package signal

import (
	"encoding/json"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/dkeye/pipcast/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleRename(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	type renamePayload struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	var p renamePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad rename payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.Name == "" {
		ctl.sendError(conn, "empty name")
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", p.Name).Msg("rename")
	if err := ctl.Orch.Registry.UpdateUsername(sid, p.Name); err != nil {
		ctl.sendError(conn, "invalid_name")
		return
	}
	ctl.handleWhoAmI(sid, conn)
	if user, ok := ctl.Orch.Registry.User(sid); ok {
		ctl.BroadcastFrom(sid, memberEvent{Type: "member_updated", User: user})
	}
}

func (ctl *SignalWSController) handleWhoAmI(
	sid core.SessionID,
	conn *wsSignalConn,
) {
	user := ctl.Orch.Registry.GetOrCreateUser(sid)

	resp := struct {
		Type     string          `json:"type"`
		ID       domain.UserID   `json:"id"`
		Username string          `json:"username"`
		Room     domain.RoomName `json:"room,omitempty"`
	}{
		Type:     "whoami",
		ID:       user.ID,
		Username: user.Username,
	}
	if roomName, _, ok := ctl.Orch.Registry.RoomOf(sid); ok {
		resp.Room = roomName
	}
	ctl.sendJSON(conn, resp)
}

// handleMute pauses forwarding of the member's microphone to everyone else.
func (ctl *SignalWSController) handleMute(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	var p struct {
		Type  string `json:"type"`
		Muted bool   `json:"muted"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(conn, "bad_payload")
		return
	}
	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok {
		return
	}
	sess.Meta().SetMuted(p.Muted)
	if ctl.Orch.Relays != nil {
		ctl.Orch.Relays.SetMuted(sid, domain.MediaAudio, p.Muted)
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Bool("muted", p.Muted).Msg("mute")

	resp := struct {
		Type  string        `json:"type"`
		User  domain.UserID `json:"user"`
		Muted bool          `json:"muted"`
	}{"member_muted", sid.UserID(), p.Muted}
	ctl.sendJSON(conn, resp)
	ctl.BroadcastFrom(sid, resp)
}
