package signal

import "time"

type pong struct {
	Type  string `json:"type"`
	Time  int64  `json:"ts"`
	InPip *bool  `json:"in_pip,omitempty"`
}

// handlePing answers with the server clock and, when the floating window is
// wired, its current state.
func (ctl *SignalWSController) handlePing(conn *wsSignalConn) {
	resp := pong{Type: "pong", Time: time.Now().UnixMilli()}
	if ctl.Features.InPiP != nil {
		inPip := ctl.Features.InPiP()
		resp.InPip = &inPip
	}
	ctl.sendJSON(conn, resp)
}
