package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestClient(hub *Hub, username string) *Client {
	return &Client{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Username: username,
		Send:     make(chan []byte, 8),
		Rooms:    make(map[uuid.UUID]bool),
		Hub:      hub,
	}
}

func recvFrame(t *testing.T, c *Client) *Frame {
	t.Helper()
	select {
	case data := <-c.Send:
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		return &f
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no frame received")
		return nil
	}
}

func TestSendToRoom_OnlySubscribers(t *testing.T) {
	hub := NewHub()
	roomID := uuid.New()

	inRoom := newTestClient(hub, "alice")
	outOfRoom := newTestClient(hub, "bob")

	hub.JoinRoom(inRoom, roomID)

	hub.SendToRoom(roomID, &Frame{
		Type:    TypeTalk,
		RoomID:  roomID.String(),
		Sender:  "alice",
		Message: "hello",
	})

	got := recvFrame(t, inRoom)
	if got.Message != "hello" {
		t.Errorf("message = %q, want %q", got.Message, "hello")
	}

	select {
	case <-outOfRoom.Send:
		t.Error("non-subscriber received a room frame")
	default:
	}
}

func TestSendRoomUpdate_ReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	a := newTestClient(hub, "alice")
	b := newTestClient(hub, "bob")
	hub.Register(a)
	hub.Register(b)

	// даем hub обработать регистрации
	waitFor(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 2
	})

	hub.SendRoomUpdate(&RoomUpdate{Event: EventRoomRenamed, RoomID: uuid.NewString(), Name: "renamed"})

	for _, c := range []*Client{a, b} {
		select {
		case data := <-c.Send:
			var upd RoomUpdate
			if err := json.Unmarshal(data, &upd); err != nil {
				t.Fatalf("unmarshal update: %v", err)
			}
			if upd.Event != EventRoomRenamed || upd.Name != "renamed" {
				t.Errorf("update = %+v", upd)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("client %s did not receive room update", c.Username)
		}
	}
}

func TestLeaveRoom_StopsDelivery(t *testing.T) {
	hub := NewHub()
	roomID := uuid.New()

	c := newTestClient(hub, "alice")
	hub.JoinRoom(c, roomID)
	if !c.IsInRoom(roomID) {
		t.Fatal("client not marked as subscriber after join")
	}

	hub.LeaveRoom(c, roomID)
	if c.IsInRoom(roomID) {
		t.Fatal("client still marked as subscriber after leave")
	}

	hub.SendToRoom(roomID, &Frame{Type: TypeTalk, RoomID: roomID.String(), Message: "late"})
	select {
	case <-c.Send:
		t.Error("client received a frame after leaving the room")
	default:
	}
}

func TestUnregister_RemovesFromRooms(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	roomID := uuid.New()
	c := newTestClient(hub, "alice")

	hub.Register(c)
	waitFor(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 1
	})

	hub.JoinRoom(c, roomID)
	hub.Unregister(c)

	waitFor(t, func() bool {
		return hub.RoomSubscribers(roomID) == 0
	})
}

func TestUnregisterAfterStop_DoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := newTestClient(hub, "alice")
	hub.Register(c)
	waitFor(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 1
	})

	hub.Stop()

	done := make(chan struct{})
	go func() {
		hub.Unregister(c)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Unregister blocked after hub stop")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
