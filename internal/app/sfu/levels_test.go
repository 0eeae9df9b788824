package sfu

import (
	"testing"

	"github.com/dkeye/pipcast/internal/core"
	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	levels []float64
}

func (r *recordingListener) OnLevel(level float64) { r.levels = append(r.levels, level) }

func TestLevelEmitterOnOff(t *testing.T) {
	e := NewLevelEmitter()
	a, b := &recordingListener{}, &recordingListener{}

	e.On(core.TrackAudioLevelChanged, a)
	e.On(core.TrackAudioLevelChanged, b)
	e.On("other", a)
	require.Equal(t, 2, e.ListenerCount())

	e.Emit(0.5)
	require.NoError(t, e.Off(core.TrackAudioLevelChanged, a))
	e.Emit(0.25)

	assert.Equal(t, []float64{0.5}, a.levels)
	assert.Equal(t, []float64{0.5, 0.25}, b.levels)

	assert.ErrorIs(t, e.Off(core.TrackAudioLevelChanged, a), ErrListenerNotFound)
	assert.ErrorIs(t, e.Off("other", b), ErrUnknownEvent)
}

func TestLevelFromDBov(t *testing.T) {
	assert.InDelta(t, 1.0, levelFromDBov(0), 1e-9)
	assert.InDelta(t, 0.1, levelFromDBov(20), 1e-9)
	assert.Zero(t, levelFromDBov(127))
}

func TestRelayObserveParsesAudioLevel(t *testing.T) {
	r := NewRelay(nil, "audio", nil)
	r.levelExtID = 1
	var seen []float64
	r.onLevel = func(l float64) { seen = append(seen, l) }
	listener := &recordingListener{}
	r.Levels().On(core.TrackAudioLevelChanged, listener)

	raw, err := rtp.AudioLevelExtension{Level: 20, Voice: true}.Marshal()
	require.NoError(t, err)
	pkt := &rtp.Packet{Header: rtp.Header{Version: 2}}
	require.NoError(t, pkt.SetExtension(1, raw))

	r.observe(pkt)
	require.Len(t, listener.levels, 1)
	assert.InDelta(t, 0.1, listener.levels[0], 1e-9)
	assert.Equal(t, listener.levels, seen)
}

func TestVideoRelayHasNoLevels(t *testing.T) {
	r := NewRelay(nil, "video", nil)
	assert.Nil(t, r.Levels())
	r.observe(&rtp.Packet{})
}
