package core

import "encoding/json"

// Frame is one signal message as sent on the wire.
type Frame []byte

// EncodeFrame renders v as a JSON signal message.
func EncodeFrame(v any) (Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}

// SignalConnection is the messaging transport of one member.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
