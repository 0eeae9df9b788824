package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *wsSignalConn) {
	var pings <-chan time.Time
	if ctl.Limits.PingPeriod > 0 {
		ticker := time.NewTicker(ctl.Limits.PingPeriod)
		defer ticker.Stop()
		pings = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			c.Close()
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-pings:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping failed")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, sid core.SessionID, c *wsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.disconnect(sid)
		c.Close()
	}()

	if ctl.Limits.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.Limits.ReadLimit)
	}
	if wait := ctl.Limits.pongWait(); wait > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(wait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(wait))
		})
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			ctl.handleSignal(sid, c, data)
		}
	}
}

// disconnect announces the departure and releases media and membership.
func (ctl *SignalWSController) disconnect(sid core.SessionID) {
	roomName, _, inRoom := ctl.Orch.Registry.RoomOf(sid)
	ctl.Orch.OnDisconnect(sid)
	if ctl.Features.Stage != nil {
		ctl.Features.Stage.Remove(sid.UserID())
	}
	if inRoom {
		if user, ok := ctl.Orch.Registry.User(sid); ok {
			ctl.BroadcastRoom(roomName, memberEvent{Type: "member_left", User: user})
		}
	}
}

func (ctl *SignalWSController) handleSignal(sid core.SessionID, c *wsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(sid, c, data)
	case "leave":
		ctl.handleLeave(sid, c)
	case "ping":
		ctl.handlePing(c)
	case "rename":
		ctl.handleRename(sid, c, data)
	case "whoami":
		ctl.handleWhoAmI(sid, c)
	case "mute":
		ctl.handleMute(sid, c, data)
	case "offer":
		ctl.handleOffer(sid, c, data)
	case "answer":
		ctl.handleAnswer(sid, c, data)
	case "candidate":
		ctl.handleCandidate(sid, c, data)
	case "visibility":
		ctl.handleVisibility(sid, c, data)
	case "pip_toggle":
		ctl.handlePiPToggle(sid, c)
	case "pin":
		ctl.handlePin(sid, c, data)
	case "stage_frame":
		ctl.handleStageFrame(sid, c, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

// sendSignal marshals v for any signal connection.
func (ctl *SignalWSController) sendSignal(c core.SignalConnection, v any) {
	if c == nil {
		return
	}
	b, err := core.EncodeFrame(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *SignalWSController) sendJSON(c *wsSignalConn, v any) {
	ctl.sendSignal(c, v)
}

func (ctl *SignalWSController) sendError(c *wsSignalConn, code string) {
	ctl.sendJSON(c, errorResp{Type: "error", Error: code})
}

type errorResp struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
