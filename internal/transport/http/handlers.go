package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/singiamtel/PS-cord/internal/auth"
	"github.com/singiamtel/PS-cord/internal/core"
)

// Handlers provides the control API endpoints.
type Handlers struct {
	engine Engine
	login  Login
	log    *zerolog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(engine Engine, login Login, logger *zerolog.Logger) *Handlers {
	return &Handlers{
		engine: engine,
		login:  login,
		log:    logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports the connection state.
type HealthResponse struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	Username  string `json:"username,omitempty"`
	Login     string `json:"login,omitempty"`
}

// SendRequest represents the send message request body.
type SendRequest struct {
	Text string `json:"text" binding:"required"`
}

// JoinRequest represents the join request body.
type JoinRequest struct {
	Room string `json:"room" binding:"required"`
}

// LoginResponse carries the interactive authorization URL.
type LoginResponse struct {
	URL string `json:"url"`
}

// Health reports liveness and the connection state.
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Connected: h.engine.Connected(),
		Username:  h.engine.Username(),
	}
	if h.login != nil {
		resp.Login = h.login.State().String()
	}
	c.JSON(http.StatusOK, resp)
}

// ListRooms returns the open rooms in order.
// GET /api/rooms
func (h *Handlers) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Rooms())
}

// ListMessages returns a room's log, optionally only the last ?limit lines.
// GET /api/rooms/:id/messages
func (h *Handlers) ListMessages(c *gin.Context) {
	id := c.Param("id")
	messages, ok := h.engine.Messages(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		if limit < len(messages) {
			messages = messages[len(messages)-limit:]
		}
	}

	c.JSON(http.StatusOK, messageResponses(messages))
}

// PostMessage sends text to a room.
// POST /api/rooms/:id/messages
func (h *Handlers) PostMessage(c *gin.Context) {
	id := c.Param("id")
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		h.log.Debug().Err(err).Msg("invalid send request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if _, ok := h.engine.Room(id); !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	h.engine.Send(req.Text, id)
	c.Status(http.StatusAccepted)
}

// SelectRoom marks a room as the one being read.
// POST /api/rooms/:id/select
func (h *Handlers) SelectRoom(c *gin.Context) {
	id := c.Param("id")
	if err := h.engine.SelectRoom(id); err != nil {
		h.writeEngineError(c, err)
		return
	}
	info, _ := h.engine.Room(id)
	c.JSON(http.StatusOK, info)
}

// LeaveRoom leaves a room.
// DELETE /api/rooms/:id
func (h *Handlers) LeaveRoom(c *gin.Context) {
	if err := h.engine.Leave(c.Param("id")); err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// Join asks the server to join a room.
// POST /api/join
func (h *Handlers) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid join request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := h.engine.Join(req.Room); err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// Notifications returns the unread counters of every room.
// GET /api/notifications
func (h *Handlers) Notifications(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Notifications())
}

// Login returns the URL that starts an interactive login. The login server
// redirects back to /oauth/callback on this server.
// GET /api/login
func (h *Handlers) Login(c *gin.Context) {
	if h.login == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "login disabled"})
		return
	}
	redirect := "http://" + c.Request.Host + "/oauth/callback"
	u, err := h.login.AuthorizeURL(redirect)
	if err != nil {
		if errors.Is(err, auth.ErrNoChallenge) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "not connected yet"})
			return
		}
		h.log.Error().Err(err).Msg("failed to build authorize url")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, LoginResponse{URL: u})
}

// OAuthCallback receives the assertion of an interactive login.
// GET /oauth/callback
func (h *Handlers) OAuthCallback(c *gin.Context) {
	if h.login == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "login disabled"})
		return
	}
	if err := h.login.Submit(c.Query("assertion"), c.Query("token")); err != nil {
		h.log.Debug().Err(err).Msg("oauth callback rejected")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid assertion"})
		return
	}
	h.log.Info().Msg("interactive login submitted")
	c.String(http.StatusOK, "Logged in. You can close this window.")
}

func (h *Handlers) writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
	case errors.Is(err, core.ErrBadRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
	default:
		h.log.Error().Err(err).Msg("engine request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
