package realtime

import (
	"context"
	"encoding/json"
	"urban-threads-api/internal/service"
)

// Inbound event names accepted from clients.
const (
	eventJoinConversation  = "join_conversation"
	eventSendMessage       = "send_message"
	eventTyping            = "typing"
	eventStopTyping        = "stop_typing"
	eventAgentAvailable    = "agent_available"
	eventClaimConversation = "claim_conversation"
	eventMarkAsRead        = "mark_as_read"
	eventCloseConversation = "close_conversation"
)

type conversationRef struct {
	ConversationID uint `json:"conversation_id"`
}

type typingPayload struct {
	ConversationID uint   `json:"conversation_id"`
	UserName       string `json:"user_name"`
}

type inboundMessage struct {
	ConversationID uint   `json:"conversation_id"`
	SenderID       *uint  `json:"sender_id"`
	SenderType     string `json:"sender_type"`
	Message        string `json:"message"`
}

type readReceipt struct {
	MessageID uint `json:"message_id"`
}

// conversationID accepts either a bare number (the original client sends
// join_conversation with just the id) or a {"conversation_id": n} object.
func conversationID(data json.RawMessage) (uint, bool) {
	var id uint
	if err := json.Unmarshal(data, &id); err == nil && id > 0 {
		return id, true
	}

	var ref conversationRef
	if err := json.Unmarshal(data, &ref); err == nil && ref.ConversationID > 0 {
		return ref.ConversationID, true
	}

	return 0, false
}

func (c *Client) dispatch(env Envelope) {
	ctx := context.Background()

	switch env.Event {
	case eventJoinConversation:
		id, ok := conversationID(env.Data)
		if !ok {
			c.sendError("invalid conversation id")
			return
		}
		c.hub.joinRoom(c, id)

	case eventSendMessage:
		var in inboundMessage
		if err := json.Unmarshal(env.Data, &in); err != nil {
			c.sendError("malformed message")
			return
		}

		senderID := in.SenderID
		if senderID == nil && c.userID != 0 {
			senderID = &c.userID
		}

		// Send persists and broadcasts to the room.
		if _, err := c.hub.chat.Send(ctx, service.SendMessageInput{
			ConversationID: in.ConversationID,
			SenderID:       senderID,
			SenderType:     in.SenderType,
			Message:        in.Message,
		}); err != nil {
			c.sendError(err.Error())
		}

	case eventTyping:
		var payload typingPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return
		}
		c.hub.broadcastToRoom(payload.ConversationID, "user_typing",
			map[string]string{"user_name": payload.UserName}, c)

	case eventStopTyping:
		var payload typingPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return
		}
		c.hub.broadcastToRoom(payload.ConversationID, "user_stop_typing", map[string]string{}, c)

	case eventAgentAvailable:
		c.hub.joinAgents(c)

	case eventClaimConversation:
		id, ok := conversationID(env.Data)
		if !ok || c.userID == 0 {
			c.sendError("invalid claim")
			return
		}
		if _, err := c.hub.chat.Claim(ctx, id, c.userID); err != nil {
			c.sendError(err.Error())
		}

	case eventMarkAsRead:
		var receipt readReceipt
		if err := json.Unmarshal(env.Data, &receipt); err != nil {
			c.sendError("malformed read receipt")
			return
		}
		if err := c.hub.chat.MarkMessageRead(ctx, receipt.MessageID); err != nil {
			c.sendError(err.Error())
		}

	case eventCloseConversation:
		id, ok := conversationID(env.Data)
		if !ok {
			c.sendError("invalid conversation id")
			return
		}
		if _, err := c.hub.chat.Close(ctx, id); err != nil {
			c.sendError(err.Error())
		}

	default:
		c.sendError("unknown event")
	}
}
