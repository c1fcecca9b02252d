package ws

import (
	"context"
	"sync"

	"qaforum_backend/internal/logger"
	"qaforum_backend/internal/metrics"
)

// Message - исходящий кадр: {"event": ..., "data": ...}
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// RoomName - комната пользователя, в неё попадают все его соединения
func RoomName(userID string) string {
	return "user_" + userID
}

// Manager владеет комнатами. Регистрация идёт через Run, публикация - напрямую под RLock.
type Manager struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run обрабатывает подключения/отключения до отмены ctx
func (m *Manager) Run(ctx context.Context) {
	defer m.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-m.register:
			m.mu.Lock()
			room := RoomName(client.UserID)
			if m.rooms[room] == nil {
				m.rooms[room] = make(map[*Client]bool)
			}
			m.rooms[room][client] = true
			total := len(m.rooms[room])
			if client.greeting != nil {
				select {
				case client.send <- *client.greeting:
				default:
				}
			}
			m.mu.Unlock()

			metrics.WSConnections.Inc()
			logger.Debug("ws client registered", "user_id", client.UserID, "connections", total)

		case client := <-m.unregister:
			m.remove(client)
		}
	}
}

func (m *Manager) remove(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room := RoomName(client.UserID)
	clients, ok := m.rooms[room]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(m.rooms, room)
	}
	close(client.send)

	metrics.WSConnections.Dec()
	logger.Debug("ws client unregistered", "user_id", client.UserID)
}

func (m *Manager) shutdown() {
	close(m.done)

	m.mu.Lock()
	defer m.mu.Unlock()
	for room, clients := range m.rooms {
		for client := range clients {
			close(client.send)
			metrics.WSConnections.Dec()
		}
		delete(m.rooms, room)
	}
}

// Join регистрирует клиента; false, если менеджер уже остановлен
func (m *Manager) Join(client *Client) bool {
	select {
	case m.register <- client:
		return true
	case <-m.done:
		return false
	}
}

// Leave снимает клиента с регистрации (повторный вызов безопасен)
func (m *Manager) Leave(client *Client) {
	select {
	case m.unregister <- client:
	case <-m.done:
	}
}

// Publish рассылает событие всем соединениям пользователя. Никогда не блокирует:
// клиент с переполненным буфером отключается.
func (m *Manager) Publish(userID, event string, payload any) {
	msg := Message{Event: event, Data: payload}

	m.mu.RLock()
	defer m.mu.RUnlock()

	clients := m.rooms[RoomName(userID)]
	if len(clients) == 0 {
		metrics.NotificationsPushed.WithLabelValues("no_subscriber").Inc()
		return
	}

	for client := range clients {
		select {
		case client.send <- msg:
			metrics.NotificationsPushed.WithLabelValues("delivered").Inc()
		default:
			metrics.NotificationsPushed.WithLabelValues("dropped").Inc()
			logger.Warn("ws client too slow, disconnecting", "user_id", userID)
			go m.Leave(client)
		}
	}
}

// reply отправляет кадр одному клиенту, если он ещё зарегистрирован
func (m *Manager) reply(client *Client, msg Message) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.rooms[RoomName(client.UserID)][client] {
		return false
	}
	select {
	case client.send <- msg:
		return true
	default:
		return false
	}
}

// ClientCount возвращает число соединений пользователя
func (m *Manager) ClientCount(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[RoomName(userID)])
}

// IsConnected проверяет, есть ли у пользователя хотя бы одно соединение
func (m *Manager) IsConnected(userID string) bool {
	return m.ClientCount(userID) > 0
}
