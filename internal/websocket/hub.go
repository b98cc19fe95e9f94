package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/oneteam-dev/aichat/internal/metrics"
	"github.com/rs/zerolog/log"
)

// FrameType определяет типы кадров чата
type FrameType string

const (
	// Кадры, проходящие через AI-пайплайн
	TypeTalk     FrameType = "TALK"
	TypeEvaluate FrameType = "EVALUATE"

	// Кадры подписки на комнату
	TypeJoin  FrameType = "JOIN"
	TypeLeave FrameType = "LEAVE"
)

// Frame описывает кадр чата на проводе. CreatedAt проставляет сервер.
type Frame struct {
	Type      FrameType `json:"type"`
	RoomID    string    `json:"roomId"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoomUpdate уведомляет об изменении комнаты, рассылается всем
// подключенным клиентам независимо от подписок.
type RoomUpdate struct {
	Event  string `json:"event"`
	RoomID string `json:"roomId"`
	Name   string `json:"name,omitempty"`
}

const (
	EventRoomRenamed = "room-renamed"
	EventRoomDeleted = "room-deleted"
)

type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Username string
	Conn     *websocket.Conn
	Send     chan []byte
	Rooms    map[uuid.UUID]bool
	Hub      *Hub
	mu       sync.RWMutex
}

type Hub struct {
	clients map[uuid.UUID]*Client

	// Подписчики комнат
	rooms map[uuid.UUID]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		rooms:      make(map[uuid.UUID]map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run запускает hub
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// Stop останавливает hub
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	h.clients = make(map[uuid.UUID]*Client)
	h.rooms = make(map[uuid.UUID]map[uuid.UUID]*Client)
}

// Register регистрирует нового клиента. После Stop вызов ничего не
// делает: принимающей стороны больше нет.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister отменяет регистрацию клиента. Не блокируется после Stop.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	metrics.ActiveConnections.Inc()

	log.Debug().
		Str("client_id", client.ID.String()).
		Str("username", client.Username).
		Msg("client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		for roomID := range client.Rooms {
			h.removeFromRoomUnsafe(client, roomID)
		}

		delete(h.clients, client.ID)
		close(client.Send)
		metrics.ActiveConnections.Dec()

		log.Debug().
			Str("client_id", client.ID.String()).
			Str("username", client.Username).
			Msg("client unregistered")
	}
}

// JoinRoom добавляет клиента в комнату
func (h *Hub) JoinRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[uuid.UUID]*Client)
	}

	h.rooms[roomID][client.ID] = client
	client.mu.Lock()
	client.Rooms[roomID] = true
	client.mu.Unlock()
}

// LeaveRoom удаляет клиента из комнаты
func (h *Hub) LeaveRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomUnsafe(client, roomID)
}

func (h *Hub) removeFromRoomUnsafe(client *Client, roomID uuid.UUID) {
	if room, ok := h.rooms[roomID]; ok {
		if _, ok := room[client.ID]; ok {
			delete(room, client.ID)
			client.mu.Lock()
			delete(client.Rooms, roomID)
			client.mu.Unlock()

			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

// SendToRoom рассылает кадр подписчикам комнаты.
func (h *Hub) SendToRoom(roomID uuid.UUID, frame *Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Error().Err(err).Msg("marshal frame")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, ok := h.rooms[roomID]; ok {
		for _, client := range room {
			select {
			case client.Send <- data:
			default:
				log.Warn().Str("client_id", client.ID.String()).Msg("client send channel full")
			}
		}
	}
}

// SendRoomUpdate рассылает уведомление об изменении комнаты всем клиентам.
func (h *Hub) SendRoomUpdate(update *RoomUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		log.Error().Err(err).Msg("marshal room update")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			log.Warn().Str("client_id", client.ID.String()).Msg("client send channel full")
		}
	}
}

// RoomSubscribers возвращает число подписчиков комнаты.
func (h *Hub) RoomSubscribers(roomID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[roomID])
}
