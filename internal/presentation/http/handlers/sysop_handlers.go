package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/papapop/papapop-go/internal/application/container"
	"github.com/papapop/papapop-go/internal/infrastructure/messaging"
	"github.com/papapop/papapop-go/internal/infrastructure/observability/logging"
	"github.com/papapop/papapop-go/pkg/config"
)

// SysOpHandlers handles sysop dashboard authentication and data streaming.
type SysOpHandlers struct {
	container *container.Container
	upgrader  websocket.Upgrader
}

// NewSysOpHandlers creates new sysop handlers.
func NewSysOpHandlers(container *container.Container) *SysOpHandlers {
	return &SysOpHandlers{
		container: container,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is served from its own origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// AuthCheck reports whether sysop access is configured and whether the
// caller's token is valid.
func (h *SysOpHandlers) AuthCheck(c *gin.Context) {
	response := map[string]any{
		"passwordRequired": config.SysopPassword != "",
		"authenticated":    false,
	}
	if config.SysopPassword == "" {
		response["message"] = "Set SYSOP_PASSWORD to enable the sysop dashboard"
	}

	if token, ok := bearerToken(c); ok && h.container.AuthService.ValidateToken(token) {
		response["authenticated"] = true
	}
	c.JSON(http.StatusOK, response)
}

// Login handles sysop authentication.
func (h *SysOpHandlers) Login(c *gin.Context) {
	var request struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result := h.container.AuthService.Authenticate(request.Password)
	if !result.Success {
		c.JSON(http.StatusUnauthorized, gin.H{"error": result.Error})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": result.Token})
}

// SysOpAuthMiddleware guards the authenticated sysop endpoints.
func (h *SysOpHandlers) SysOpAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			// Websocket clients can't set headers, so the stream endpoint
			// passes the token as a query parameter.
			token = c.Query("token")
		}
		if token == "" || !h.container.AuthService.ValidateToken(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// GetActivityMetrics returns the current activity snapshot.
func (h *SysOpHandlers) GetActivityMetrics(c *gin.Context) {
	payload, err := h.container.Broadcaster.Snapshot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build activity snapshot"})
		return
	}
	c.JSON(http.StatusOK, payload)
}

// GetLogLevels returns the current per-channel log levels.
func (h *SysOpHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"levels": h.container.Logger.GetChannelLevels()})
}

// SetLogLevel adjusts one channel's log level at runtime.
func (h *SysOpHandlers) SetLogLevel(c *gin.Context) {
	var request struct {
		Channel string `json:"channel"`
		Level   string `json:"level"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var level slog.Level
	switch strings.ToUpper(request.Level) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown level: " + request.Level})
		return
	}

	if err := h.container.Logger.SetChannelLevel(logging.Channel(request.Channel), level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// StreamActivity upgrades the connection and streams activity snapshots
// until the client disconnects.
func (h *SysOpHandlers) StreamActivity(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.container.Logger.Sysop().Error("Websocket upgrade failed", "error", err.Error())
		return
	}

	client := &messaging.Client{
		Conn: conn,
		Send: make(chan []byte, 8),
	}
	h.container.Broadcaster.Register(client)

	go h.writePump(client)
	go h.readPump(client)
}

func (h *SysOpHandlers) writePump(client *messaging.Client) {
	defer client.Conn.Close()

	for message := range client.Send {
		client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump discards inbound frames; its job is to notice the disconnect.
func (h *SysOpHandlers) readPump(client *messaging.Client) {
	defer h.container.Broadcaster.Unregister(client)

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer "), true
	}
	return "", false
}
