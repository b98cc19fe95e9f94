package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер кадра
	maxMessageSize = 64 * 1024 // 64KB
)

// FrameHandler обрабатывает содержательные кадры (TALK, EVALUATE);
// подписочные кадры hub обрабатывает сам.
type FrameHandler interface {
	HandleFrame(client *Client, frame *Frame) error
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, username string) *Client {
	return &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Username: username,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Rooms:    make(map[uuid.UUID]bool),
		Hub:      hub,
	}
}

// ReadPump читает кадры от клиента
func (c *Client) ReadPump(handler FrameHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var frame Frame
		err := c.Conn.ReadJSON(&frame)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("username", c.Username).Msg("websocket read error")
			}
			break
		}

		// отправителем всегда считается аутентифицированный пользователь
		frame.Sender = c.Username
		frame.CreatedAt = time.Now()

		roomID, err := uuid.Parse(frame.RoomID)
		if err != nil {
			c.SendError(ErrInvalidFrame.Error())
			continue
		}

		switch frame.Type {
		case TypeJoin:
			c.Hub.JoinRoom(c, roomID)
			continue

		case TypeLeave:
			c.Hub.LeaveRoom(c, roomID)
			continue

		case TypeTalk, TypeEvaluate:
			if handler != nil {
				if err := handler.HandleFrame(c, &frame); err != nil {
					log.Error().Err(err).Str("room_id", frame.RoomID).Msg("frame handling failed")
					c.SendError(err.Error())
				}
			}

		default:
			c.SendError(ErrInvalidFrame.Error())
		}
	}
}

// WritePump отправляет кадры клиенту
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.Conn.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendError(errorMsg string) {
	data, err := json.Marshal(map[string]string{"error": errorMsg})
	if err != nil {
		return
	}

	select {
	case c.Send <- data:
	default:
	}
}

func (c *Client) IsInRoom(roomID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Rooms[roomID]
}
