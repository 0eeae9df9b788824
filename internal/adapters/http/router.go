package http

import (
	"context"
	"net/http"

	"github.com/dkeye/pipcast/internal/adapters/signal"
	"github.com/dkeye/pipcast/internal/app/pip"
	"github.com/dkeye/pipcast/internal/config"
	"github.com/dkeye/pipcast/internal/core"
	"github.com/dkeye/pipcast/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// PiPControl is what the floating window endpoints need.
type PiPControl interface {
	Toggle(ctx context.Context) error
	Status() pip.Status
}

// RoomEvictor kicks everyone out of a room.
type RoomEvictor interface {
	EvictRoom(name domain.RoomName)
}

// Deps are the handlers' collaborators. Nil PiP disables the /api/pip group.
type Deps struct {
	Signal     *signal.SignalWSController
	Rooms      core.RoomManager
	Evictor    RoomEvictor
	PiP        PiPControl
	Visibility signal.VisibilityReporter
	Viewer     gin.HandlerFunc
	Gatherer   prometheus.Gatherer
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("PipcastSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")

	if deps.Signal != nil {
		api.GET("/ws/signal", func(c *gin.Context) {
			log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws signal endpoint hit")
			deps.Signal.HandleSignal(ctx, c)
		})
	}

	if deps.Rooms != nil {
		api.GET("/rooms", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"rooms": deps.Rooms.List()})
		})
	}
	if deps.Evictor != nil {
		api.DELETE("/rooms/:name", func(c *gin.Context) {
			name, ok := domain.ParseRoomName(c.Param("name"))
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad_room"})
				return
			}
			deps.Evictor.EvictRoom(name)
			log.Info().Str("module", "adapters.http").Str("room", string(name)).Msg("room evicted")
			c.Status(http.StatusNoContent)
		})
	}

	if deps.PiP != nil {
		h := &pipHandlers{pip: deps.PiP, visibility: deps.Visibility}
		g := api.Group("/pip")
		g.GET("", h.status)
		g.POST("/toggle", h.toggle)
		g.POST("/visibility", h.setVisibility)
		if deps.Viewer != nil {
			g.GET("/window", deps.Viewer)
		}
	}

	return r
}

type pipHandlers struct {
	pip        PiPControl
	visibility signal.VisibilityReporter
}

func (h *pipHandlers) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.pip.Status())
}

func (h *pipHandlers) toggle(c *gin.Context) {
	if err := h.pip.Toggle(c.Request.Context()); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("pip toggle")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.pip.Status())
}

type visibilityRequest struct {
	Hidden *bool `json:"hidden" binding:"required"`
}

func (h *pipHandlers) setVisibility(c *gin.Context) {
	if h.visibility == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "visibility not tracked"})
		return
	}
	var req visibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.visibility.SetHidden(*req.Hidden)
	c.Status(http.StatusNoContent)
}
