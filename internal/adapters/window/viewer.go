package window

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Viewer streams the presented floating window to websocket clients.
type Viewer struct {
	platform *Platform
	period   time.Duration
}

func NewViewer(platform *Platform, fps int) *Viewer {
	if fps <= 0 {
		fps = 24
	}
	return &Viewer{platform: platform, period: time.Second / time.Duration(fps)}
}

type viewerHello struct {
	Type        string `json:"type"`
	ContentType string `json:"content_type"`
}

// Handle upgrades the request and pushes every new frame as a binary message.
// A {"type":"leave"} message or the last viewer going away closes the window.
func (v *Viewer) Handle(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "window.viewer").Msg("ws upgrade")
		return
	}
	n := v.platform.viewerJoined()
	logger := log.With().Str("module", "window.viewer").Str("remote", c.ClientIP()).Logger()
	logger.Info().Int("viewers", n).Msg("viewer connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		_ = ws.Close()
		v.platform.viewerLeft()
		logger.Info().Msg("viewer disconnected")
	}()

	go v.readPump(ctx, cancel, ws, &logger)

	hello := viewerHello{Type: "hello", ContentType: v.platform.Encoder().ContentType()}
	if err := v.writeJSON(ws, hello); err != nil {
		return
	}
	v.writePump(ctx, ws, &logger)
}

func (v *Viewer) readPump(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn, logger *zerolog.Logger) {
	defer cancel()
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				logger.Debug().Err(err).Msg("viewer read")
			}
			return
		}
		var env struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			logger.Warn().Err(err).Msg("bad viewer message")
			continue
		}
		switch env.Type {
		case "leave":
			v.platform.Leave()
		default:
			logger.Warn().Str("type", env.Type).Msg("unknown viewer message")
		}
	}
}

func (v *Viewer) writePump(ctx context.Context, ws *websocket.Conn, logger *zerolog.Logger) {
	ticker := time.NewTicker(v.period)
	defer ticker.Stop()
	var last uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame, seq, ok := v.platform.CurrentFrame()
			if !ok || seq == last {
				continue
			}
			last = seq
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				logger.Debug().Err(err).Msg("viewer write")
				return
			}
		}
	}
}

func (v *Viewer) writeJSON(ws *websocket.Conn, msg any) error {
	if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return ws.WriteJSON(msg)
}
