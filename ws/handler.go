package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"qaforum_backend/internal/logger"
	"qaforum_backend/internal/middleware"
	"qaforum_backend/internal/services"
	"qaforum_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Исходящие события
const (
	EventSync        = "sync"
	EventPong        = "pong"
	EventError       = "error"
	EventUnreadCount = "unread_count"
)

// Входящие действия
const (
	ActionPing     = "ping"
	ActionMarkRead = "mark_read"
)

type ClientOptions struct {
	SendBuffer   int
	PingInterval time.Duration
	// FrameRate/FrameBurst - token bucket для входящих кадров одного соединения
	FrameRate  rate.Limit
	FrameBurst int
	Actions    ActionHandler
}

type HandlerConfig struct {
	SendBuffer     int
	PingInterval   time.Duration
	AllowedOrigins []string
}

// Handler поднимает WebSocket-соединения. Маршрут должен быть закрыт AuthMiddleware.
type Handler struct {
	manager       *Manager
	notifications services.NotificationService
	db            *gorm.DB
	upgrader      websocket.Upgrader
	opts          ClientOptions
}

func NewHandler(manager *Manager, notifications services.NotificationService, db *gorm.DB, cfg HandlerConfig) *Handler {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}

	h := &Handler{
		manager:       manager,
		notifications: notifications,
		db:            db,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
	}
	h.opts = ClientOptions{
		SendBuffer:   cfg.SendBuffer,
		PingInterval: cfg.PingInterval,
		FrameRate:    rate.Limit(5),
		FrameBurst:   10,
		Actions:      h,
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// ServeWS - GET /ws
func (h *Handler) ServeWS(c *gin.Context) {
	ctx := c.Request.Context()

	user := middleware.GetCurrentUser(c)
	if user == nil {
		apperrors.HandleError(c, apperrors.ErrMissingToken)
		return
	}

	// Соединение живёт дольше запроса, поэтому БД берём без контекста запроса
	unread, err := h.notifications.UnreadCount(context.Background(), h.db, user.ID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.CtxWarn(ctx, "WebSocket upgrade error", "error", err.Error())
		return
	}

	client := newClient(user.ID, conn, h.manager, h.opts)
	client.greeting = &Message{Event: EventSync, Data: gin.H{"unreadCount": unread}}

	if !h.manager.Join(client) {
		client.cancel()
		conn.Close()
		return
	}
	logger.CtxInfo(ctx, "WebSocket client connected")

	go client.writePump()
	go client.readPump()
}

// HandleAction - ping и mark_read
func (h *Handler) HandleAction(ctx context.Context, userID string, msg IncomingMessage) (*Message, error) {
	switch msg.Action {
	case ActionPing:
		return &Message{Event: EventPong}, nil

	case ActionMarkRead:
		var payload struct {
			ID string `json:"id"`
		}
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				return nil, errors.New("invalid mark_read payload")
			}
		}
		if payload.ID == "" {
			return nil, errors.New("notification id is required")
		}

		if _, err := h.notifications.MarkRead(ctx, h.db, userID, payload.ID); err != nil {
			return nil, err
		}
		unread, err := h.notifications.UnreadCount(ctx, h.db, userID)
		if err != nil {
			return nil, err
		}
		return &Message{Event: EventUnreadCount, Data: gin.H{"id": payload.ID, "unreadCount": unread}}, nil

	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
}
