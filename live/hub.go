package live

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Комнаты: по одной на матч плюс общая для таблицы лидеров.
const LeaderboardRoom = "leaderboard"

func MatchRoom(matchID int) string {
	return fmt.Sprintf("match:%d", matchID)
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	room     string
	isClosed bool
	mu       sync.Mutex
}

func NewClient(hub *Hub, conn *websocket.Conn, room string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 16),
		room: room,
	}
}

type Hub struct {
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.logger.Debug("live client joined", "room", client.room, "clients", len(h.rooms[client.room]))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if roomClients, ok := h.rooms[client.room]; ok {
				if _, okClient := roomClients[client]; okClient {
					client.mu.Lock()
					if !client.isClosed {
						close(client.send)
						client.isClosed = true
					}
					client.mu.Unlock()
					delete(roomClients, client)
					if len(roomClients) == 0 {
						delete(h.rooms, client.room)
					}
					h.logger.Debug("live client left", "room", client.room)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToMatch шлёт сообщение подписчикам матча.
func (h *Hub) BroadcastToMatch(matchID int, message []byte) error {
	return h.broadcastToRoom(MatchRoom(matchID), message)
}

// BroadcastToLeaderboard шлёт сообщение подписчикам таблицы лидеров.
func (h *Hub) BroadcastToLeaderboard(message []byte) error {
	return h.broadcastToRoom(LeaderboardRoom, message)
}

func (h *Hub) broadcastToRoom(room string, message []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	roomClients, ok := h.rooms[room]
	if !ok {
		// Пустая комната не ошибка: событие просто некому доставлять.
		return nil
	}

	for client := range roomClients {
		client.mu.Lock()
		if client.isClosed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.send <- message:
		default:
			h.logger.Warn("live client send buffer full, dropping message", "room", room)
		}
		client.mu.Unlock()
	}
	return nil
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		c.mu.Lock()
		c.isClosed = true
		c.mu.Unlock()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		// Клиенты только слушают, входящие сообщения игнорируются.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("live client read error", "room", c.room, "error", err)
			}
			break
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.mu.Lock()
		c.isClosed = true
		c.mu.Unlock()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Сливаем накопившиеся сообщения в тот же фрейм врайтера.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Register подключает клиента к его комнате и запускает насосы.
func (h *Hub) Register(client *Client) {
	h.register <- client
	go client.WritePump()
	go client.ReadPump()
}
