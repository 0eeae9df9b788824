package signal

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialSignal(t *testing.T, limits ConnLimits) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctl := newTestController(Features{})
	ctl.Limits = limits

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("client_token", "s1")
		ctl.HandleSignal(ctx, c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	return ws
}

func TestStageReadLimitFitsEncodedFrame(t *testing.T) {
	const frame = 2 << 20
	assert.GreaterOrEqual(t, StageReadLimit(frame), int64(frame*4/3))
	assert.Greater(t, StageReadLimit(frame)-int64(frame*4/3), int64(1024))
	assert.GreaterOrEqual(t, int64(DefaultReadLimit), StageReadLimit(frame))
}

func TestSignalConnClosesOnOversizedMessage(t *testing.T) {
	ws := dialSignal(t, ConnLimits{ReadLimit: 1024})

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pong"`)

	big := `{"type":"stage_frame","data":"` + strings.Repeat("A", 2048) + `"}`
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(big)))
	_, _, err = ws.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "got %v", err)
}

func TestSignalConnSendsKeepalivePings(t *testing.T) {
	ws := dialSignal(t, ConnLimits{ReadLimit: DefaultReadLimit, PingPeriod: 20 * time.Millisecond})

	pings := make(chan struct{}, 8)
	ws.SetPingHandler(func(data string) error {
		select {
		case pings <- struct{}{}:
		default:
		}
		return ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-pings:
		case <-time.After(time.Second):
			t.Fatalf("ping %d not received", i)
		}
	}
}

func TestSignalConnDropsSilentPeer(t *testing.T) {
	ws := dialSignal(t, ConnLimits{ReadLimit: DefaultReadLimit, PingPeriod: 20 * time.Millisecond})

	// not reading means no pongs go back
	time.Sleep(200 * time.Millisecond)

	var err error
	for err == nil {
		_, _, err = ws.ReadMessage()
	}
	var ne net.Error
	assert.False(t, errors.As(err, &ne) && ne.Timeout(), "server kept the connection: %v", err)
}
