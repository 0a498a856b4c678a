package service

import (
	"context"
	"errors"
	"time"
	"urban-threads-api/internal/apperr"
	"urban-threads-api/internal/dto"
	"urban-threads-api/internal/model"
	"urban-threads-api/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Broadcaster is the realtime fan-out capability injected into the chat
// engine. It is satisfied by the websocket hub; tests substitute a recorder.
type Broadcaster interface {
	ToRoom(conversationID uint, event string, payload any)
	ToAgents(event string, payload any)
}

// Realtime event names pushed to clients.
const (
	EventNewMessage             = "new_message"
	EventNewConversationWaiting = "new_conversation_waiting"
	EventAgentJoined            = "agent_joined"
	EventConversationClaimed    = "conversation_claimed"
	EventMessageRead            = "message_read"
	EventConversationClosed     = "conversation_closed"
)

type StartConversationInput struct {
	CustomerID *uint
	GuestName  string
	GuestEmail string
}

type SendMessageInput struct {
	ConversationID uint
	SenderID       *uint
	SenderType     string
	Message        string
	Attachments    []dto.AttachmentUpload
}

type ChatService interface {
	Start(ctx context.Context, in StartConversationInput) (*model.ChatConversation, error)
	Claim(ctx context.Context, conversationID, agentID uint) (*model.ChatConversation, error)
	Send(ctx context.Context, in SendMessageInput) (*model.ChatMessage, error)
	Close(ctx context.Context, conversationID uint) (*model.ChatConversation, error)
	Get(ctx context.Context, conversationID uint) (*model.ChatConversation, error)
	Messages(ctx context.Context, conversationID uint) ([]*model.ChatMessage, error)
	Waiting(ctx context.Context) ([]*model.ChatConversation, error)
	AgentConversations(ctx context.Context, agentID uint) ([]*model.ChatConversation, error)
	MarkMessageRead(ctx context.Context, messageID uint) error
}

type chatServiceImpl struct {
	db          *gorm.DB
	chatRepo    repository.ChatRepository
	broadcaster Broadcaster
	log         *logrus.Logger
}

func NewChatService(
	db *gorm.DB,
	chatRepo repository.ChatRepository,
	broadcaster Broadcaster,
	log *logrus.Logger,
) ChatService {
	return &chatServiceImpl{
		db:          db,
		chatRepo:    chatRepo,
		broadcaster: broadcaster,
		log:         log,
	}
}

// Start opens a conversation in waiting and announces it to every
// connected agent.
func (s *chatServiceImpl) Start(ctx context.Context, in StartConversationInput) (*model.ChatConversation, error) {
	senderKnown := in.CustomerID != nil || in.GuestName != "" || in.GuestEmail != ""
	if !senderKnown {
		return nil, apperr.New(apperr.Validation, "Guest name or email required")
	}

	conversation := &model.ChatConversation{
		CustomerID: in.CustomerID,
		GuestName:  in.GuestName,
		GuestEmail: in.GuestEmail,
		Status:     model.ConversationStatusWaiting,
		StartedAt:  time.Now(),
	}

	if err := s.chatRepo.CreateConversation(ctx, conversation); err != nil {
		return nil, err
	}

	s.broadcaster.ToAgents(EventNewConversationWaiting, conversation)

	return conversation, nil
}

// Claim resolves the agent race with one conditional update: whichever
// agent's write matches the still-waiting row wins, everyone else fails.
func (s *chatServiceImpl) Claim(ctx context.Context, conversationID, agentID uint) (*model.ChatConversation, error) {
	rows, err := s.chatRepo.Claim(ctx, conversationID, agentID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperr.New(apperr.Conflict, "Conversation not found or already claimed")
	}

	conversation, err := s.chatRepo.FindConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	s.broadcaster.ToRoom(conversationID, EventAgentJoined, conversation)
	s.broadcaster.ToAgents(EventConversationClaimed, conversation)

	return conversation, nil
}

// Send persists the message (with any attachment metadata) and then
// broadcasts it to the conversation room. Clients observe messages in
// persistence order.
func (s *chatServiceImpl) Send(ctx context.Context, in SendMessageInput) (*model.ChatMessage, error) {
	if in.ConversationID == 0 {
		return nil, apperr.New(apperr.Validation, "conversation_id is required")
	}
	if in.Message == "" && len(in.Attachments) == 0 {
		return nil, apperr.New(apperr.Validation, "message is empty")
	}

	if _, err := s.chatRepo.FindConversation(ctx, in.ConversationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Conversation not found")
		}
		return nil, err
	}

	message := &model.ChatMessage{
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		SenderType:     in.SenderType,
		Message:        in.Message,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.chatRepo.CreateMessage(ctx, tx, message); err != nil {
			return err
		}

		if len(in.Attachments) == 0 {
			return nil
		}

		attachments := make([]*model.ChatAttachment, len(in.Attachments))
		for i, upload := range in.Attachments {
			attachments[i] = &model.ChatAttachment{
				MessageID: message.ID,
				FileName:  upload.FileName,
				FileURL:   upload.FileURL,
				FileType:  upload.FileType,
				FileSize:  upload.FileSize,
			}
		}
		if err := s.chatRepo.CreateAttachments(ctx, tx, attachments); err != nil {
			return err
		}

		message.Attachments = make([]model.ChatAttachment, len(attachments))
		for i, attachment := range attachments {
			message.Attachments[i] = *attachment
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcaster.ToRoom(in.ConversationID, EventNewMessage, message)

	return message, nil
}

func (s *chatServiceImpl) Close(ctx context.Context, conversationID uint) (*model.ChatConversation, error) {
	rows, err := s.chatRepo.Close(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// Zero rows is either a conversation that never existed or one
		// already closed; only the latter is a state conflict.
		if _, err := s.chatRepo.FindConversation(ctx, conversationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.New(apperr.NotFound, "Conversation not found")
			}
			return nil, err
		}
		return nil, apperr.New(apperr.Conflict, "Conversation already closed")
	}

	conversation, err := s.chatRepo.FindConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	s.broadcaster.ToRoom(conversationID, EventConversationClosed, conversation)

	return conversation, nil
}

func (s *chatServiceImpl) Get(ctx context.Context, conversationID uint) (*model.ChatConversation, error) {
	conversation, err := s.chatRepo.FindConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Conversation not found")
		}
		return nil, err
	}
	return conversation, nil
}

func (s *chatServiceImpl) Messages(ctx context.Context, conversationID uint) ([]*model.ChatMessage, error) {
	messages, err := s.chatRepo.Messages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return messages, nil
	}

	messageIDs := make([]uint, len(messages))
	byID := make(map[uint]*model.ChatMessage, len(messages))
	for i, message := range messages {
		messageIDs[i] = message.ID
		byID[message.ID] = message
	}

	attachments, err := s.chatRepo.AttachmentsForMessages(ctx, messageIDs)
	if err != nil {
		return nil, err
	}
	for _, attachment := range attachments {
		message := byID[attachment.MessageID]
		message.Attachments = append(message.Attachments, *attachment)
	}

	return messages, nil
}

func (s *chatServiceImpl) Waiting(ctx context.Context) ([]*model.ChatConversation, error) {
	return s.chatRepo.Waiting(ctx)
}

func (s *chatServiceImpl) AgentConversations(ctx context.Context, agentID uint) ([]*model.ChatConversation, error) {
	return s.chatRepo.ActiveByAgent(ctx, agentID)
}

func (s *chatServiceImpl) MarkMessageRead(ctx context.Context, messageID uint) error {
	message, err := s.chatRepo.FindMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "Message not found")
		}
		return err
	}

	if _, err := s.chatRepo.MarkMessageRead(ctx, messageID); err != nil {
		return err
	}

	s.broadcaster.ToRoom(message.ConversationID, EventMessageRead, map[string]uint{"message_id": messageID})
	return nil
}
