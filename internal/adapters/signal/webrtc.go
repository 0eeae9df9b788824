package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/pipcast/internal/adapters/rtc"
	"github.com/dkeye/pipcast/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type sdpMessage struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

func (ctl *SignalWSController) sendCandidate(c *wsSignalConn, ci webrtc.ICECandidateInit) {
	resp := struct {
		Type          string `json:"type"`
		Candidate     string `json:"candidate"`
		SDPMid        string `json:"sdpMid,omitempty"`
		SDPMLineIndex uint16 `json:"sdpMLineIndex,omitempty"`
	}{
		Type:      "candidate",
		Candidate: ci.Candidate,
	}
	if ci.SDPMid != nil {
		resp.SDPMid = *ci.SDPMid
	}
	if ci.SDPMLineIndex != nil {
		resp.SDPMLineIndex = *ci.SDPMLineIndex
	}
	ctl.sendJSON(c, resp)
}

func (ctl *SignalWSController) api() (*webrtc.API, error) {
	if ctl.WebRTC != nil {
		return ctl.WebRTC, nil
	}
	return rtc.NewAPI()
}

func (ctl *SignalWSController) handleOffer(
	sid core.SessionID,
	conn *wsSignalConn,
	data []byte,
) {
	var p sdpMessage
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad offer payload")
		return
	}
	offer := webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  p.SDP,
	}

	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("offer: no session")
		return
	}

	// Client side renegotiation reuses the live connection.
	if mc := sess.Media(); mc != nil && !mc.IsClosed() {
		answer, err := mc.ApplyOfferAndCreateAnswer(offer)
		if err != nil {
			log.Error().Err(err).Str("module", "signal").Msg("webrtc renegotiate")
			return
		}
		ctl.sendJSON(conn, sdpMessage{Type: "answer", SDP: answer.SDP})
		return
	}

	api, err := ctl.api()
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("webrtc api")
		return
	}
	wc, err := rtc.NewWebRTCConnection(api, rtc.DefaultWebRTCConfig(), sid)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("webrtc new pc")
		return
	}

	wc.OnICECandidate(func(ci webrtc.ICECandidateInit) {
		ctl.sendCandidate(conn, ci)
	})
	wc.OnNegotiationNeeded(func() {
		offer, err := wc.CreateAndSetOffer()
		if err != nil {
			log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("webrtc server offer")
			return
		}
		ctl.sendJSON(conn, sdpMessage{Type: "offer", SDP: offer.SDP})
	})

	ctl.Orch.BindMediaHandlers(wc, sid)

	if err = wc.Start(context.Background()); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("webrtc start")
		wc.Close()
		return
	}

	answer, err := wc.ApplyOfferAndCreateAnswer(offer)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("webrtc apply offer")
		wc.Close()
		return
	}

	sess.UpdateMedia(wc)
	ctl.sendJSON(conn, sdpMessage{Type: "answer", SDP: answer.SDP})
	ctl.Orch.OnMediaReady(sid)
}

// handleAnswer completes a server initiated renegotiation.
func (ctl *SignalWSController) handleAnswer(
	sid core.SessionID,
	_ *wsSignalConn,
	data []byte,
) {
	var p sdpMessage
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad answer payload")
		return
	}
	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok || sess.Media() == nil {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("answer: no media connection")
		return
	}
	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: p.SDP}
	if err := sess.Media().ApplyAnswer(answer); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("webrtc apply answer")
	}
}

func (ctl *SignalWSController) handleCandidate(
	sid core.SessionID,
	_ *wsSignalConn,
	data []byte,
) {
	type candidatePayload struct {
		Type          string `json:"type"`
		Candidate     string `json:"candidate"`
		SDPMid        string `json:"sdpMid"`
		SDPMLineIndex uint16 `json:"sdpMLineIndex"`
	}
	var p candidatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		return
	}

	cand := webrtc.ICECandidateInit{
		Candidate: p.Candidate,
	}
	if p.SDPMid != "" {
		cand.SDPMid = &p.SDPMid
	}
	cand.SDPMLineIndex = &p.SDPMLineIndex

	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("candidate: no session for")
		return
	}
	mc := sess.Media()
	if mc == nil {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("candidate: no media connection for")
		return
	}
	if err := mc.AddICECandidate(cand); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("add ice candidate")
	}
}
