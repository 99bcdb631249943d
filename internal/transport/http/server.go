package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/singiamtel/PS-cord/internal/auth"
	"github.com/singiamtel/PS-cord/internal/config"
	"github.com/singiamtel/PS-cord/internal/core"
)

// Engine is the part of the client engine the control API drives.
type Engine interface {
	Connected() bool
	Username() string
	Rooms() []core.RoomInfo
	Room(id string) (core.RoomInfo, bool)
	Messages(id string) ([]core.Message, bool)
	Notifications() []core.RoomNotification
	Send(text, roomID string)
	SelectRoom(id string) error
	Join(room string) error
	Leave(id string) error
}

// Login is the interactive half of the login state machine.
type Login interface {
	State() auth.State
	AuthorizeURL(redirect string) (string, error)
	Submit(assertion, token string) error
}

// NewServer builds the local control server.
func NewServer(engine Engine, login Login, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	h := NewHandlers(engine, login, logger)
	router.GET("/health", h.Health)
	router.GET("/oauth/callback", h.OAuthCallback)

	api := router.Group("/api")
	api.GET("/rooms", h.ListRooms)
	api.GET("/rooms/:id/messages", h.ListMessages)
	api.POST("/rooms/:id/messages", h.PostMessage)
	api.POST("/rooms/:id/select", h.SelectRoom)
	api.DELETE("/rooms/:id", h.LeaveRoom)
	api.POST("/join", h.Join)
	api.GET("/notifications", h.Notifications)
	api.GET("/login", h.Login)

	return &stdhttp.Server{
		Addr:              cfg.ControlAddr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
