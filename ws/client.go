package ws

import (
	"context"
	"encoding/json"
	"time"

	"qaforum_backend/internal/logger"
	"qaforum_backend/pkg/apperrors"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// IncomingMessage - входящий кадр клиента
type IncomingMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// ActionHandler обрабатывает входящие действия. Ответ nil - ничего не отправлять.
type ActionHandler interface {
	HandleAction(ctx context.Context, userID string, msg IncomingMessage) (*Message, error)
}

type Client struct {
	UserID string

	conn         *websocket.Conn
	send         chan Message
	manager      *Manager
	actions      ActionHandler
	limiter      *rate.Limiter
	pingInterval time.Duration
	greeting     *Message

	ctx    context.Context
	cancel context.CancelFunc
}

func newClient(userID string, conn *websocket.Conn, manager *Manager, opts ClientOptions) *Client {
	ctx, cancel := context.WithCancel(logger.WithUserID(context.Background(), userID))
	return &Client{
		UserID:       userID,
		conn:         conn,
		send:         make(chan Message, opts.SendBuffer),
		manager:      manager,
		actions:      opts.Actions,
		limiter:      rate.NewLimiter(opts.FrameRate, opts.FrameBurst),
		pingInterval: opts.PingInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.manager.Leave(c)
		c.conn.Close()
	}()

	pongWait := c.pingInterval * 2
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.CtxWarn(c.ctx, "ws read error", "error", err.Error())
			}
			return
		}

		if !c.limiter.Allow() {
			c.manager.reply(c, errorMessage("too many messages"))
			continue
		}

		var msg IncomingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.manager.reply(c, errorMessage("invalid message"))
			continue
		}

		resp, err := c.actions.HandleAction(c.ctx, c.UserID, msg)
		if err != nil {
			logger.CtxDebug(c.ctx, "ws action failed", "action", msg.Action, "error", err.Error())
			text := err.Error()
			if appErr, ok := apperrors.AsAppError(err); ok {
				text = appErr.Message
			}
			c.manager.reply(c, errorMessage(text))
			continue
		}
		if resp != nil {
			c.manager.reply(c, *resp)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Менеджер закрыл канал
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.CtxDebug(c.ctx, "ws write error", "error", err.Error())
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func errorMessage(text string) Message {
	return Message{Event: EventError, Data: map[string]string{"message": text}}
}
