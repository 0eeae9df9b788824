package signal

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/dkeye/pipcast/internal/domain"
	"github.com/rs/zerolog/log"
)

// PiPToggler switches the floating window on and off.
type PiPToggler interface {
	Toggle(ctx context.Context) error
}

// VisibilityReporter receives the page visibility of clients.
type VisibilityReporter interface {
	SetHidden(hidden bool)
}

type StageUploader interface {
	Upload(id domain.UserID, data []byte) error
	Remove(id domain.UserID)
}

type Pinner interface {
	Pin(id domain.UserID)
}

// Features are the optional floating window collaborators; nil members
// disable the matching messages.
type Features struct {
	PiP        PiPToggler
	InPiP      func() bool
	Visibility VisibilityReporter
	Stage      StageUploader
	Pins       Pinner
	// ToggleLimiter caps pip_toggle messages per user.
	ToggleLimiter *RateLimiter
}

type pipState struct {
	Type  string `json:"type"`
	InPip bool   `json:"in_pip"`
}

func (ctl *SignalWSController) handleVisibility(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	if ctl.Features.Visibility == nil {
		ctl.sendError(conn, "unsupported")
		return
	}
	var p struct {
		Type   string `json:"type"`
		Hidden bool   `json:"hidden"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(conn, "bad_payload")
		return
	}
	log.Debug().Str("module", "signal").Str("sid", string(sid)).Bool("hidden", p.Hidden).Msg("visibility")
	if sess, ok := ctl.Orch.Registry.GetSession(sid); ok {
		sess.Meta().SetHidden(p.Hidden)
	}
	ctl.Features.Visibility.SetHidden(p.Hidden)
}

func (ctl *SignalWSController) handlePiPToggle(
	sid core.SessionID,
	conn *wsSignalConn,
) {
	if ctl.Features.PiP == nil {
		ctl.sendError(conn, "unsupported")
		return
	}
	if rl := ctl.Features.ToggleLimiter; rl != nil && !rl.Allow(sid.UserID()) {
		ctl.sendError(conn, "rate_limited")
		return
	}
	if err := ctl.Features.PiP.Toggle(context.Background()); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("pip toggle")
		ctl.sendError(conn, "pip_failed")
		return
	}
	if ctl.Features.InPiP != nil {
		ctl.sendJSON(conn, pipState{Type: "pip_state", InPip: ctl.Features.InPiP()})
	}
}

func (ctl *SignalWSController) handlePin(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	if ctl.Features.Pins == nil {
		ctl.sendError(conn, "unsupported")
		return
	}
	var p struct {
		Type string        `json:"type"`
		User domain.UserID `json:"user"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(conn, "bad_payload")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("user", string(p.User)).Msg("pin")
	ctl.Features.Pins.Pin(p.User)
}

// handleStageFrame stores the frame the client renders for its own stage.
func (ctl *SignalWSController) handleStageFrame(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	if ctl.Features.Stage == nil {
		return
	}
	var p struct {
		Type string `json:"type"`
		Data string `json:"data"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(conn, "bad_payload")
		return
	}
	raw, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		ctl.sendError(conn, "bad_frame")
		return
	}
	if err := ctl.Features.Stage.Upload(sid.UserID(), raw); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("stage frame rejected")
		ctl.sendError(conn, "bad_frame")
	}
}

// BroadcastPiPState tells every member of room whether the floating window
// is up.
func (ctl *SignalWSController) BroadcastPiPState(room domain.RoomName, inPip bool) {
	ctl.BroadcastRoom(room, pipState{Type: "pip_state", InPip: inPip})
}
