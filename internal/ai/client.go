package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oneteam-dev/aichat/internal/metrics"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout ограничивает ожидание ответа AI-сервера; истечение
// трактуется как обычный сбой гейтвея.
const DefaultTimeout = 15 * time.Second

// MessageContext описывает сообщение, отправляемое AI-серверу.
type MessageContext struct {
	Type      string    `json:"type"`
	RoomID    string    `json:"roomId"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type chatResponse struct {
	Success   bool   `json:"success"`
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
}

type evaluateRequest struct {
	RoomID         string    `json:"roomId"`
	Transcript     string    `json:"transcript"`
	EvaluationType string    `json:"evaluationType"`
	CreatedAt      time.Time `json:"createdAt"`
}

type evaluateResponse struct {
	Success   bool    `json:"success"`
	Score     float64 `json:"score"`
	Feedback  string  `json:"feedback"`
	SessionID string  `json:"session_id"`
}

// Client ходит в AI-сервер и никогда не возвращает ошибку наружу:
// любой сбой превращается в fallback-строку, которую пайплайн
// публикует как обычное сообщение.
type Client struct {
	base string
	http *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: DefaultTimeout},
	}
}

// Chat запрашивает ответ на реплику: POST {base}/{roomId}/chat.
func (c *Client) Chat(ctx context.Context, mc MessageContext) string {
	var resp chatResponse
	if err := c.post(ctx, mc.RoomID+"/chat", mc, &resp); err != nil {
		return c.fallback(mc.RoomID, err)
	}
	// пустой reply при формально успешном ответе считается сбоем
	if resp.Reply == "" {
		return c.fallback(mc.RoomID, fmt.Errorf("response 'reply' field was empty"))
	}
	return resp.Reply
}

// Evaluate запрашивает оценку реплики: POST {base}/{roomId}/evaluate.
func (c *Client) Evaluate(ctx context.Context, mc MessageContext) string {
	req := evaluateRequest{
		RoomID:         mc.RoomID,
		Transcript:     mc.Message,
		EvaluationType: "interview",
		CreatedAt:      mc.CreatedAt,
	}
	var resp evaluateResponse
	if err := c.post(ctx, mc.RoomID+"/evaluate", req, &resp); err != nil {
		return c.fallback(mc.RoomID, err)
	}
	if resp.Feedback == "" {
		return c.fallback(mc.RoomID, fmt.Errorf("response 'feedback' field was empty"))
	}
	return fmt.Sprintf("Score: %.1f. %s", resp.Score, resp.Feedback)
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/"+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ai server returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// fallback формирует детерминированный ответ-заглушку: пользователь
// видит сбой как сообщение в чате, а не как оборванный ход.
func (c *Client) fallback(roomID string, err error) string {
	metrics.AIGatewayFailures.Inc()
	log.Error().Err(err).Str("room_id", roomID).Msg("ai gateway request failed")
	return fmt.Sprintf("Failed to reach the AI server. (Error: %s)", err.Error())
}
