package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Типы событий, которые получают клиенты комнаты повода.
const (
	EventItemAdded          = "ITEM_ADDED"
	EventItemUpdated        = "ITEM_UPDATED"
	EventItemDeleted        = "ITEM_DELETED"
	EventItemPurchased      = "ITEM_PURCHASED"
	EventItemUnpurchased    = "ITEM_UNPURCHASED"
	EventMemberJoined       = "MEMBER_JOINED"
	EventMemberLeft         = "MEMBER_LEFT"
	EventOccasionUpdated    = "OCCASION_UPDATED"
	EventOccasionMatched    = "OCCASION_MATCHED"
	EventOccasionMatchReset = "OCCASION_MATCH_RESET"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 256
)

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
}

// OccasionRoom returns the room name clients of an occasion join.
func OccasionRoom(occasionID string) string {
	return "occasion_" + occasionID
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	room   string
	userID string
}

func NewClient(hub *Hub, conn *websocket.Conn, room, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		room:   room,
		userID: userID,
	}
}

type Hub struct {
	register   chan *Client
	unregister chan *Client
	// done закрывается, когда Run завершился.
	done   chan struct{}
	rooms  map[string]map[*Client]struct{}
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		logger:     logger,
	}
}

// Run обслуживает регистрацию клиентов до отмены ctx.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]struct{})
			}
			h.rooms[client.room][client] = struct{}{}
			total := len(h.rooms[client.room])
			h.mu.Unlock()
			h.logger.Debug("websocket client registered",
				slog.String("room", client.room), slog.String("user_id", client.userID), slog.Int("clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client unregistered", slog.String("room", client.room), slog.String("user_id", client.userID))
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, clients := range h.rooms {
		for client := range clients {
			close(client.send)
		}
		delete(h.rooms, room)
	}
}

// Register adds client to its room. Once the hub has stopped the client's
// send channel is closed instead, so its pumps shut down.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes client from its room. It is a no-op after the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of clients currently in room.
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// BroadcastToRoom отправляет событие всем клиентам комнаты. Медленные клиенты пропускаются.
func (h *Hub) BroadcastToRoom(room string, event Event) {
	event.RoomID = room
	messageBytes, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal websocket event", slog.String("room", room), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		select {
		case client.send <- messageBytes:
		default:
			h.logger.Warn("websocket client send buffer full, skipping", slog.String("room", room), slog.String("user_id", client.userID))
		}
	}
}

// PublishOccasionEvent реализует services.EventPublisher.
func (h *Hub) PublishOccasionEvent(occasionID, eventType string, payload interface{}) {
	h.BroadcastToRoom(OccasionRoom(occasionID), Event{Type: eventType, Payload: payload})
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		// Входящие сообщения клиентов игнорируются.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", slog.String("room", c.room), slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Warn("websocket write error", slog.String("room", c.room), slog.Any("error", err))
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
