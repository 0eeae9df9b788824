package sfu

import (
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

type TrackState int32

const (
	TrackStateOk TrackState = iota
	TrackStateMuted
	TrackStateDelete
)

func (s TrackState) String() string {
	switch s {
	case TrackStateOk:
		return "ok"
	case TrackStateMuted:
		return "muted"
	case TrackStateDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// RTPWriter is the sink of an OutTrack, usually a *webrtc.TrackLocalStaticRTP.
type RTPWriter interface {
	WriteRTP(p *rtp.Packet) error
}

var _ RTPWriter = (*webrtc.TrackLocalStaticRTP)(nil)

// OutTrack is one subscriber leg of a relay.
type OutTrack struct {
	Track     RTPWriter
	state     atomic.Int32
	forwarded atomic.Uint64
}

func NewOutTrack(track RTPWriter) *OutTrack {
	return &OutTrack{Track: track}
}

func (ot *OutTrack) GetState() TrackState {
	return TrackState(ot.state.Load())
}

func (ot *OutTrack) MarkOk() {
	ot.state.CompareAndSwap(int32(TrackStateMuted), int32(TrackStateOk))
}

func (ot *OutTrack) MarkMuted() {
	ot.state.CompareAndSwap(int32(TrackStateOk), int32(TrackStateMuted))
}

// MarkDelete is final; a deleted track never comes back.
func (ot *OutTrack) MarkDelete() {
	ot.state.Store(int32(TrackStateDelete))
}

// Forwarded is the number of packets written so far.
func (ot *OutTrack) Forwarded() uint64 { return ot.forwarded.Load() }

func (ot *OutTrack) write(pkt *rtp.Packet) error {
	if err := ot.Track.WriteRTP(pkt); err != nil {
		return err
	}
	ot.forwarded.Add(1)
	return nil
}
