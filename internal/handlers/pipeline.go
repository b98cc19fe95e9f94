package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/oneteam-dev/aichat/internal/ai"
	"github.com/oneteam-dev/aichat/internal/database"
	"github.com/oneteam-dev/aichat/internal/metrics"
	"github.com/oneteam-dev/aichat/internal/models"
	ws "github.com/oneteam-dev/aichat/internal/websocket"
)

// Усечённое имя комнаты получает хвост из многоточия.
const roomNameLimit = 20

var ErrRoomNotFound = errors.New("room not found")

// ChatStore описывает операции хранилища, нужные пайплайну сообщений.
type ChatStore interface {
	GetRoom(id uuid.UUID) (*models.Room, error)
	RenameRoomFromPlaceholder(id uuid.UUID, name string) (bool, error)
	SaveMessage(msg *models.Message) error
}

// Broadcaster разносит кадры по подписчикам.
type Broadcaster interface {
	SendToRoom(roomID uuid.UUID, frame *ws.Frame)
	SendRoomUpdate(update *ws.RoomUpdate)
}

// Responder выдаёт ответ AI; сбои он разрешает сам, поэтому ошибок нет.
type Responder interface {
	Chat(ctx context.Context, mc ai.MessageContext) string
	Evaluate(ctx context.Context, mc ai.MessageContext) string
}

// ChatPipeline обрабатывает содержательные кадры: сохранение,
// однократное переименование комнаты, синхронное эхо и асинхронный
// ответ AI. Эхо уходит до ответа AI при любом исходе.
type ChatPipeline struct {
	store       ChatStore
	broadcaster Broadcaster
	responder   Responder

	// таймаут фонового обращения к AI-серверу
	aiTimeout time.Duration
}

func NewChatPipeline(store ChatStore, broadcaster Broadcaster, responder Responder) *ChatPipeline {
	return &ChatPipeline{
		store:       store,
		broadcaster: broadcaster,
		responder:   responder,
		aiTimeout:   ai.DefaultTimeout + 5*time.Second,
	}
}

// HandleFrame реализует websocket.FrameHandler.
func (p *ChatPipeline) HandleFrame(client *ws.Client, frame *ws.Frame) error {
	roomID, err := uuid.Parse(frame.RoomID)
	if err != nil {
		return ws.ErrInvalidFrame
	}

	room, err := p.store.GetRoom(roomID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrRoomNotFound
		}
		return err
	}

	msg := &models.Message{
		RoomID:    roomID,
		Sender:    frame.Sender,
		Body:      frame.Message,
		CreatedAt: frame.CreatedAt,
	}
	if err := p.store.SaveMessage(msg); err != nil {
		return err
	}

	// первое TALK-сообщение даёт комнате имя вместо заглушки
	if frame.Type == ws.TypeTalk && room.HasPlaceholderName() {
		p.maybeRenameRoom(roomID, frame.Message)
	}

	p.broadcaster.SendToRoom(roomID, frame)
	metrics.MessagesProcessed.WithLabelValues(string(frame.Type)).Inc()

	go p.respond(roomID, frame)

	return nil
}

// maybeRenameRoom переименовывает комнату, только если она все еще
// носит имя-заглушку: сравнение и запись выполняются одним UPDATE,
// поэтому гонка двух первых сообщений дает ровно одно переименование.
func (p *ChatPipeline) maybeRenameRoom(roomID uuid.UUID, firstMessage string) {
	name := deriveRoomName(firstMessage)

	renamed, err := p.store.RenameRoomFromPlaceholder(roomID, name)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("room rename failed")
		return
	}
	if renamed {
		p.broadcaster.SendRoomUpdate(&ws.RoomUpdate{
			Event:  ws.EventRoomRenamed,
			RoomID: roomID.String(),
			Name:   name,
		})
	}
}

// respond получает ответ AI в фоне и публикует его как обычное
// сообщение от имени AI. Отказ AI-сервера приходит сюда уже в виде
// готовой fallback-строки.
func (p *ChatPipeline) respond(roomID uuid.UUID, frame *ws.Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), p.aiTimeout)
	defer cancel()

	mc := ai.MessageContext{
		Type:      string(frame.Type),
		RoomID:    frame.RoomID,
		Sender:    frame.Sender,
		Message:   frame.Message,
		CreatedAt: frame.CreatedAt,
	}

	var reply string
	if frame.Type == ws.TypeEvaluate {
		reply = p.responder.Evaluate(ctx, mc)
	} else {
		reply = p.responder.Chat(ctx, mc)
	}

	aiMsg := &models.Message{
		RoomID:    roomID,
		Sender:    models.AISender,
		Body:      reply,
		CreatedAt: time.Now(),
	}
	// ответ, не попавший в историю, не должен уходить и в эфир
	if err := p.store.SaveMessage(aiMsg); err != nil {
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("save ai reply failed")
		return
	}

	p.broadcaster.SendToRoom(roomID, &ws.Frame{
		Type:      ws.TypeTalk,
		RoomID:    frame.RoomID,
		Sender:    models.AISender,
		Message:   reply,
		CreatedAt: aiMsg.CreatedAt,
	})
}

// deriveRoomName строит имя комнаты из первых символов сообщения.
func deriveRoomName(message string) string {
	runes := []rune(message)
	if len(runes) <= roomNameLimit {
		return message
	}
	return string(runes[:roomNameLimit]) + "..."
}
