package service_test

import (
	"context"
	"testing"
	"urban-threads-api/internal/apperr"
	"urban-threads-api/internal/dto"
	"urban-threads-api/internal/model"
	"urban-threads-api/internal/repository"
	"urban-threads-api/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newChatService(db *gorm.DB, broadcaster *recordingBroadcaster) service.ChatService {
	return service.NewChatService(db, repository.NewChatRepository(db), broadcaster, testLogger())
}

func TestStartConversation(t *testing.T) {
	db := setupDB(t)
	broadcaster := &recordingBroadcaster{}
	chat := newChatService(db, broadcaster)
	ctx := context.Background()

	t.Run("requires an identity", func(t *testing.T) {
		_, err := chat.Start(ctx, service.StartConversationInput{})
		assert.True(t, apperr.IsKind(err, apperr.Validation))
	})

	t.Run("guest", func(t *testing.T) {
		conversation, err := chat.Start(ctx, service.StartConversationInput{
			GuestName: "Sam", GuestEmail: "sam@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, model.ConversationStatusWaiting, conversation.Status)
		assert.Nil(t, conversation.CustomerID)
		assert.False(t, conversation.StartedAt.IsZero())

		require.NotEmpty(t, broadcaster.events)
		last := broadcaster.events[len(broadcaster.events)-1]
		assert.Equal(t, service.EventNewConversationWaiting, last.Event)
		assert.True(t, last.ToAgents)
	})

	t.Run("customer", func(t *testing.T) {
		user := seedUser(t, db, "customer@example.com", "customer")
		conversation, err := chat.Start(ctx, service.StartConversationInput{CustomerID: &user.ID})
		require.NoError(t, err)
		require.NotNil(t, conversation.CustomerID)
		assert.Equal(t, user.ID, *conversation.CustomerID)
	})
}

func TestClaimConversation(t *testing.T) {
	db := setupDB(t)
	broadcaster := &recordingBroadcaster{}
	chat := newChatService(db, broadcaster)
	ctx := context.Background()

	started, err := chat.Start(ctx, service.StartConversationInput{GuestName: "Sam"})
	require.NoError(t, err)

	agent := seedUser(t, db, "agent@example.com", "customerService")
	rival := seedUser(t, db, "rival@example.com", "customerService")

	t.Run("first agent wins", func(t *testing.T) {
		conversation, err := chat.Claim(ctx, started.ID, agent.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ConversationStatusActive, conversation.Status)
		require.NotNil(t, conversation.AgentID)
		assert.Equal(t, agent.ID, *conversation.AgentID)

		names := broadcaster.names()
		assert.Contains(t, names, service.EventAgentJoined)
		assert.Contains(t, names, service.EventConversationClaimed)
	})

	t.Run("second agent gets a conflict", func(t *testing.T) {
		_, err := chat.Claim(ctx, started.ID, rival.ID)
		assert.True(t, apperr.IsKind(err, apperr.Conflict))

		// The winning claim is untouched.
		conversation, err := chat.Get(ctx, started.ID)
		require.NoError(t, err)
		require.NotNil(t, conversation.AgentID)
		assert.Equal(t, agent.ID, *conversation.AgentID)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		_, err := chat.Claim(ctx, 9999, agent.ID)
		assert.True(t, apperr.IsKind(err, apperr.Conflict))
	})
}

func TestSendMessage(t *testing.T) {
	db := setupDB(t)
	broadcaster := &recordingBroadcaster{}
	chat := newChatService(db, broadcaster)
	ctx := context.Background()

	started, err := chat.Start(ctx, service.StartConversationInput{GuestName: "Sam"})
	require.NoError(t, err)

	t.Run("validation", func(t *testing.T) {
		_, err := chat.Send(ctx, service.SendMessageInput{SenderType: "customer", Message: "hi"})
		assert.True(t, apperr.IsKind(err, apperr.Validation))

		_, err = chat.Send(ctx, service.SendMessageInput{ConversationID: started.ID, SenderType: "customer"})
		assert.True(t, apperr.IsKind(err, apperr.Validation))

		_, err = chat.Send(ctx, service.SendMessageInput{ConversationID: 9999, SenderType: "customer", Message: "hi"})
		assert.True(t, apperr.IsKind(err, apperr.NotFound))
	})

	t.Run("persists and broadcasts in order", func(t *testing.T) {
		first, err := chat.Send(ctx, service.SendMessageInput{
			ConversationID: started.ID, SenderType: "customer", Message: "hello",
		})
		require.NoError(t, err)
		second, err := chat.Send(ctx, service.SendMessageInput{
			ConversationID: started.ID, SenderType: "customer", Message: "anyone there?",
		})
		require.NoError(t, err)
		assert.Greater(t, second.ID, first.ID)

		messages, err := chat.Messages(ctx, started.ID)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "hello", messages[0].Message)
		assert.Equal(t, "anyone there?", messages[1].Message)

		var newMessageEvents []recordedEvent
		for _, event := range broadcaster.events {
			if event.Event == service.EventNewMessage {
				newMessageEvents = append(newMessageEvents, event)
			}
		}
		require.Len(t, newMessageEvents, 2)
		assert.Equal(t, started.ID, newMessageEvents[0].ConversationID)
	})

	t.Run("with attachments", func(t *testing.T) {
		message, err := chat.Send(ctx, service.SendMessageInput{
			ConversationID: started.ID,
			SenderType:     "customer",
			Message:        "receipt attached",
			Attachments: []dto.AttachmentUpload{
				{FileName: "receipt.pdf", FileURL: "/uploads/chat-attachments/abc-receipt.pdf", FileType: "application/pdf", FileSize: 2048},
			},
		})
		require.NoError(t, err)
		require.Len(t, message.Attachments, 1)
		assert.Equal(t, "receipt.pdf", message.Attachments[0].FileName)

		messages, err := chat.Messages(ctx, started.ID)
		require.NoError(t, err)
		last := messages[len(messages)-1]
		require.Len(t, last.Attachments, 1)
		assert.Equal(t, "/uploads/chat-attachments/abc-receipt.pdf", last.Attachments[0].FileURL)
	})
}

func TestCloseConversation(t *testing.T) {
	db := setupDB(t)
	broadcaster := &recordingBroadcaster{}
	chat := newChatService(db, broadcaster)
	ctx := context.Background()

	started, err := chat.Start(ctx, service.StartConversationInput{GuestName: "Sam"})
	require.NoError(t, err)

	closed, err := chat.Close(ctx, started.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConversationStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	names := broadcaster.names()
	assert.Equal(t, service.EventConversationClosed, names[len(names)-1])

	t.Run("already closed is a conflict", func(t *testing.T) {
		_, err := chat.Close(ctx, started.ID)
		assert.True(t, apperr.IsKind(err, apperr.Conflict))
	})

	t.Run("missing conversation", func(t *testing.T) {
		_, err := chat.Close(ctx, 9999)
		assert.True(t, apperr.IsKind(err, apperr.NotFound))
	})
}

func TestMarkMessageRead(t *testing.T) {
	db := setupDB(t)
	broadcaster := &recordingBroadcaster{}
	chat := newChatService(db, broadcaster)
	ctx := context.Background()

	started, err := chat.Start(ctx, service.StartConversationInput{GuestName: "Sam"})
	require.NoError(t, err)
	message, err := chat.Send(ctx, service.SendMessageInput{
		ConversationID: started.ID, SenderType: "customer", Message: "hello",
	})
	require.NoError(t, err)

	require.NoError(t, chat.MarkMessageRead(ctx, message.ID))

	var got model.ChatMessage
	require.NoError(t, db.First(&got, message.ID).Error)
	assert.True(t, got.IsRead)

	last := broadcaster.events[len(broadcaster.events)-1]
	assert.Equal(t, service.EventMessageRead, last.Event)
	assert.Equal(t, started.ID, last.ConversationID)

	err = chat.MarkMessageRead(ctx, 9999)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestWaitingAndAgentQueues(t *testing.T) {
	db := setupDB(t)
	broadcaster := &recordingBroadcaster{}
	chat := newChatService(db, broadcaster)
	ctx := context.Background()

	first, err := chat.Start(ctx, service.StartConversationInput{GuestName: "First"})
	require.NoError(t, err)
	second, err := chat.Start(ctx, service.StartConversationInput{GuestName: "Second"})
	require.NoError(t, err)

	waiting, err := chat.Waiting(ctx)
	require.NoError(t, err)
	require.Len(t, waiting, 2)
	assert.Equal(t, first.ID, waiting[0].ID)

	agent := seedUser(t, db, "agent@example.com", "customerService")
	_, err = chat.Claim(ctx, first.ID, agent.ID)
	require.NoError(t, err)

	waiting, err = chat.Waiting(ctx)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, second.ID, waiting[0].ID)

	active, err := chat.AgentConversations(ctx, agent.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)
}
