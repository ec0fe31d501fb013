package live

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerClient(t *testing.T, hub *Hub, room string) *Client {
	t.Helper()
	client := &Client{Hub: hub, Send: make(chan []byte, 4), Room: room}
	hub.Register <- client
	waitForRegistration(t, hub, client)
	return client
}

// waitForRegistration blocks until the hub has added the client to its room,
// so a following broadcast cannot race the registration.
func waitForRegistration(t *testing.T, hub *Hub, client *Client) {
	t.Helper()
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return hub.rooms[client.Room][client]
	}, time.Second, time.Millisecond)
}

func receive(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case msg := <-client.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return nil
	}
}

func TestBroadcastReachesOnlyTheRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	eventA := registerClient(t, hub, "event_a")
	eventB := registerClient(t, hub, "event_b")

	hub.BroadcastToRoom("event_a", Message{Type: "SCORE_UPDATED", Payload: "m1"})

	var decoded Message
	require.NoError(t, json.Unmarshal(receive(t, eventA), &decoded))
	assert.Equal(t, "SCORE_UPDATED", decoded.Type)

	select {
	case msg := <-eventB.Send:
		t.Fatalf("client in another room received %s", msg)
	default:
	}
}

func TestBroadcastToEmptyRoomIsNoOp(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Must not panic or block.
	hub.BroadcastToRoom("event_none", Message{Type: "SCORE_UPDATED"})
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := registerClient(t, hub, "event_a")
	hub.Unregister <- client

	select {
	case _, ok := <-client.Send:
		assert.False(t, ok, "send channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}

	// Broadcasting after unregister must not panic on the closed channel.
	hub.BroadcastToRoom("event_a", Message{Type: "SCORE_UPDATED"})
}

func TestBroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{Hub: hub, Send: make(chan []byte, 1), Room: "event_a"}
	hub.Register <- client
	waitForRegistration(t, hub, client)

	hub.BroadcastToRoom("event_a", Message{Type: "first"})
	hub.BroadcastToRoom("event_a", Message{Type: "second"}) // dropped, buffer full

	var decoded Message
	require.NoError(t, json.Unmarshal(receive(t, client), &decoded))
	assert.Equal(t, "first", decoded.Type)

	select {
	case msg := <-client.Send:
		t.Fatalf("expected second message to be dropped, got %s", msg)
	default:
	}
}
