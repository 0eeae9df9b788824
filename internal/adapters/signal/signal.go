package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/pipcast/internal/app/orch"
	"github.com/dkeye/pipcast/internal/core"
	"github.com/dkeye/pipcast/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type SignalWSController struct {
	Orch     *orch.Orchestrator
	Features Features
	// WebRTC builds peer connections; nil means the pion defaults.
	WebRTC *webrtc.API
	Limits ConnLimits
}

// ConnLimits bound every signal websocket.
type ConnLimits struct {
	// ReadLimit is the largest accepted message; bigger ones close the
	// connection.
	ReadLimit int64
	// PingPeriod spaces keepalive pings. A peer that answers none within
	// 10/9 of it is dropped. Zero disables pings.
	PingPeriod time.Duration
}

const (
	DefaultReadLimit  = 3 << 20
	DefaultPingPeriod = 54 * time.Second

	envelopeRoom = 4 << 10
)

// StageReadLimit is the read limit needed to carry a stage frame of
// frameBytes as base64 inside a signal message.
func StageReadLimit(frameBytes int) int64 {
	return int64(frameBytes+2)/3*4 + envelopeRoom
}

func NewSignalWSController(o *orch.Orchestrator, f Features, api *webrtc.API) *SignalWSController {
	return &SignalWSController{
		Orch:     o,
		Features: f,
		WebRTC:   api,
		Limits:   ConnLimits{ReadLimit: DefaultReadLimit, PingPeriod: DefaultPingPeriod},
	}
}

func (l ConnLimits) pongWait() time.Duration {
	return l.PingPeriod * 10 / 9
}

type wsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

var _ core.SignalConnection = (*wsSignalConn)(nil)

func (c *wsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// BroadcastFrom sends v to the room mates of sid. Members that cannot keep
// up are handled by the orchestrator's backpressure policy.
func (ctl *SignalWSController) BroadcastFrom(sid core.SessionID, v any) {
	frame, err := core.EncodeFrame(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast marshal")
		return
	}
	ctl.Orch.OnFrame(sid, frame)
}

func (ctl *SignalWSController) BroadcastRoom(name domain.RoomName, v any) {
	for _, snap := range ctl.Orch.Registry.MembersOfRoom(name) {
		ctl.sendSignal(snap.Session.Signal(), v)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	conn := &wsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	user := ctl.Orch.Registry.GetOrCreateUser(sid)
	meta := domain.NewMember(user)
	sess := core.NewMemberSession(meta).UpdateSignal(conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.BindSignal(sid, sess, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}
