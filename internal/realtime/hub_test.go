package realtime

import (
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewHub(log)
}

// Test clients never touch the network; only the queue side of the client
// is exercised here.
func newTestClient(hub *Hub, userID uint, role string) *Client {
	return &Client{
		hub:    hub,
		send:   make(chan []byte, sendQueueSize),
		userID: userID,
		role:   role,
	}
}

func receivedEvents(t *testing.T, client *Client) []string {
	t.Helper()

	var events []string
	for {
		select {
		case frame, ok := <-client.send:
			if !ok {
				return events
			}
			var env Envelope
			require.NoError(t, json.Unmarshal(frame, &env))
			events = append(events, env.Event)
		default:
			return events
		}
	}
}

func TestMarshalEnvelope(t *testing.T) {
	frame, err := marshalEnvelope("new_message", map[string]any{"id": 7, "message": "hi"})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, "new_message", env.Event)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.EqualValues(t, 7, payload["id"])
	assert.Equal(t, "hi", payload["message"])
}

func TestToRoomDeliversToMembersOnly(t *testing.T) {
	hub := newTestHub()

	first := newTestClient(hub, 1, "customer")
	second := newTestClient(hub, 2, "customerService")
	outsider := newTestClient(hub, 3, "customer")

	hub.joinRoom(first, 10)
	hub.joinRoom(second, 10)
	hub.joinRoom(outsider, 20)

	hub.ToRoom(10, "new_message", map[string]string{"message": "hello"})

	assert.Equal(t, []string{"new_message"}, receivedEvents(t, first))
	assert.Equal(t, []string{"new_message"}, receivedEvents(t, second))
	assert.Empty(t, receivedEvents(t, outsider))
}

func TestBroadcastToRoomExcludesSender(t *testing.T) {
	hub := newTestHub()

	sender := newTestClient(hub, 1, "customer")
	peer := newTestClient(hub, 2, "customerService")
	hub.joinRoom(sender, 10)
	hub.joinRoom(peer, 10)

	hub.broadcastToRoom(10, "user_typing", map[string]uint{"conversation_id": 10}, sender)

	assert.Empty(t, receivedEvents(t, sender))
	assert.Equal(t, []string{"user_typing"}, receivedEvents(t, peer))
}

func TestToAgents(t *testing.T) {
	hub := newTestHub()

	agent := newTestClient(hub, 1, "customerService")
	customer := newTestClient(hub, 2, "customer")
	hub.joinAgents(agent)
	hub.joinRoom(customer, 10)

	hub.ToAgents("new_conversation_waiting", map[string]uint{"id": 10})

	assert.Equal(t, []string{"new_conversation_waiting"}, receivedEvents(t, agent))
	assert.Empty(t, receivedEvents(t, customer))
}

func TestDropRemovesClientEverywhere(t *testing.T) {
	hub := newTestHub()

	agent := newTestClient(hub, 1, "customerService")
	peer := newTestClient(hub, 2, "customer")
	hub.joinAgents(agent)
	hub.joinRoom(agent, 10)
	hub.joinRoom(peer, 10)

	hub.drop(agent)

	// The queue is closed so the write pump can drain and exit.
	_, ok := <-agent.send
	assert.False(t, ok)

	hub.ToRoom(10, "new_message", nil)
	hub.ToAgents("new_conversation_waiting", nil)
	assert.Equal(t, []string{"new_message"}, receivedEvents(t, peer))

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	assert.NotContains(t, hub.rooms[10], agent)
	assert.NotContains(t, hub.agents, agent)
}

func TestDropPrunesEmptyRooms(t *testing.T) {
	hub := newTestHub()

	client := newTestClient(hub, 1, "customer")
	hub.joinRoom(client, 10)
	hub.drop(client)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	assert.NotContains(t, hub.rooms, uint(10))
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	hub := newTestHub()

	client := newTestClient(hub, 1, "customer")
	client.send = make(chan []byte, 1)

	client.enqueue([]byte(`{"event":"a"}`))
	client.enqueue([]byte(`{"event":"b"}`))

	assert.Len(t, client.send, 1)
	assert.Equal(t, []byte(`{"event":"a"}`), <-client.send)
}
