package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"urban-threads-api/internal/model"
	"urban-threads-api/internal/service"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ChatBackend is the slice of the chat engine the hub drives for inbound
// socket events. service.ChatService satisfies it.
type ChatBackend interface {
	Send(ctx context.Context, in service.SendMessageInput) (*model.ChatMessage, error)
	Claim(ctx context.Context, conversationID, agentID uint) (*model.ChatConversation, error)
	Close(ctx context.Context, conversationID uint) (*model.ChatConversation, error)
	MarkMessageRead(ctx context.Context, messageID uint) error
}

// Envelope is the wire frame for both directions: {"event": ..., "data": ...}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Hub tracks which connections sit in which conversation room plus the
// agents broadcast group. Membership is process-local and lost on restart;
// clients rejoin their rooms on reconnect.
type Hub struct {
	log      *logrus.Logger
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	rooms  map[uint]map[*Client]struct{}
	agents map[*Client]struct{}

	chat ChatBackend
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		rooms:  make(map[uint]map[*Client]struct{}),
		agents: make(map[*Client]struct{}),
	}
}

// AttachChat wires the chat engine in after construction; the hub and the
// engine reference each other, so one side has to be attached late.
func (h *Hub) AttachChat(chat ChatBackend) {
	h.chat = chat
}

// ServeWS upgrades the request and runs the connection's pumps. Identity
// comes from the optional-auth middleware; guests connect with user id 0.
func (h *Hub) ServeWS(c echo.Context, userID uint, role string) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		userID: userID,
		role:   role,
	}

	h.log.WithFields(logrus.Fields{"user_id": userID, "role": role}).Info("websocket connected")

	go client.writePump()
	go client.readPump()

	return nil
}

func (h *Hub) joinRoom(client *Client, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[conversationID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[conversationID] = room
	}
	room[client] = struct{}{}
}

func (h *Hub) joinAgents(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.agents[client] = struct{}{}
}

// drop removes the client from every room and the agents group and closes
// its outbound queue; called once, on disconnect, the transport's own close
// event being the only liveness signal. Closing under the write lock keeps
// broadcasters (which enqueue under the read lock) off a closed channel.
func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.agents, client)
	for conversationID, room := range h.rooms {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, conversationID)
		}
	}
	close(client.send)
}

func marshalEnvelope(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// ToRoom pushes an event to every socket joined to the conversation.
func (h *Hub) ToRoom(conversationID uint, event string, payload any) {
	h.broadcastToRoom(conversationID, event, payload, nil)
}

func (h *Hub) broadcastToRoom(conversationID uint, event string, payload any, exclude *Client) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("broadcast marshal failed")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[conversationID] {
		if client == exclude {
			continue
		}
		client.enqueue(frame)
	}
}

// ToAgents pushes an event to every connected agent.
func (h *Hub) ToAgents(event string, payload any) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("broadcast marshal failed")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.agents {
		client.enqueue(frame)
	}
}
