package rtc

import (
	"testing"

	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferNegotiatesAudioLevel(t *testing.T) {
	api, err := NewAPI()
	require.NoError(t, err)

	conn, err := NewWebRTCConnection(api, webrtc.Configuration{}, "sid-1")
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	_, err = conn.pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio)
	require.NoError(t, err)

	offer, err := conn.CreateAndSetOffer()
	require.NoError(t, err)
	assert.Contains(t, offer.SDP, sdp.AudioLevelURI)
}

func TestCloseIsIdempotent(t *testing.T) {
	api, err := NewAPI()
	require.NoError(t, err)
	conn, err := NewWebRTCConnection(api, webrtc.Configuration{}, "sid-2")
	require.NoError(t, err)

	closed := 0
	conn.OnClosed(func() { closed++ })
	require.NoError(t, conn.Start(t.Context()))

	assert.False(t, conn.IsClosed())
	conn.Close()
	conn.Close()
	assert.True(t, conn.IsClosed())
	assert.Equal(t, 1, closed)
}
