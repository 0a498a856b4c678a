package repository

import (
	"context"
	"time"
	"urban-threads-api/internal/model"

	"gorm.io/gorm"
)

type ChatRepository interface {
	CreateConversation(ctx context.Context, conversation *model.ChatConversation) error
	FindConversation(ctx context.Context, conversationID uint) (*model.ChatConversation, error)
	Waiting(ctx context.Context) ([]*model.ChatConversation, error)
	ActiveByAgent(ctx context.Context, agentID uint) ([]*model.ChatConversation, error)
	// Claim is the double-claim guard: a conditional update that only matches
	// a conversation still in waiting. Zero rows affected means another agent
	// won the race.
	Claim(ctx context.Context, conversationID, agentID uint) (int64, error)
	Close(ctx context.Context, conversationID uint) (int64, error)

	CreateMessage(ctx context.Context, tx *gorm.DB, message *model.ChatMessage) error
	CreateAttachments(ctx context.Context, tx *gorm.DB, attachments []*model.ChatAttachment) error
	FindMessage(ctx context.Context, messageID uint) (*model.ChatMessage, error)
	Messages(ctx context.Context, conversationID uint) ([]*model.ChatMessage, error)
	AttachmentsForMessages(ctx context.Context, messageIDs []uint) ([]*model.ChatAttachment, error)
	MarkMessageRead(ctx context.Context, messageID uint) (int64, error)
}

type chatRepoImpl struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepoImpl{
		db: db,
	}
}

func (r *chatRepoImpl) CreateConversation(ctx context.Context, conversation *model.ChatConversation) error {
	return r.db.WithContext(ctx).Create(conversation).Error
}

func (r *chatRepoImpl) FindConversation(ctx context.Context, conversationID uint) (*model.ChatConversation, error) {
	var conversation model.ChatConversation
	err := r.db.WithContext(ctx).
		Where("id = ?", conversationID).
		First(&conversation).Error

	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *chatRepoImpl) Waiting(ctx context.Context) ([]*model.ChatConversation, error) {
	var conversations []*model.ChatConversation
	err := r.db.WithContext(ctx).
		Where("status = ?", model.ConversationStatusWaiting).
		Order("started_at asc").
		Find(&conversations).Error

	if err != nil {
		return nil, err
	}

	return conversations, nil
}

func (r *chatRepoImpl) ActiveByAgent(ctx context.Context, agentID uint) ([]*model.ChatConversation, error) {
	var conversations []*model.ChatConversation
	err := r.db.WithContext(ctx).
		Where("agent_id = ? AND status = ?", agentID, model.ConversationStatusActive).
		Order("started_at desc").
		Find(&conversations).Error

	if err != nil {
		return nil, err
	}

	return conversations, nil
}

func (r *chatRepoImpl) Claim(ctx context.Context, conversationID, agentID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.ChatConversation{}).
		Where("id = ? AND status = ?", conversationID, model.ConversationStatusWaiting).
		Updates(map[string]interface{}{
			"agent_id": agentID,
			"status":   model.ConversationStatusActive,
		})

	return result.RowsAffected, result.Error
}

func (r *chatRepoImpl) Close(ctx context.Context, conversationID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.ChatConversation{}).
		Where("id = ? AND status <> ?", conversationID, model.ConversationStatusClosed).
		Updates(map[string]interface{}{
			"status":    model.ConversationStatusClosed,
			"closed_at": time.Now(),
		})

	return result.RowsAffected, result.Error
}

func (r *chatRepoImpl) CreateMessage(ctx context.Context, tx *gorm.DB, message *model.ChatMessage) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(message).Error
}

func (r *chatRepoImpl) CreateAttachments(ctx context.Context, tx *gorm.DB, attachments []*model.ChatAttachment) error {
	if len(attachments) == 0 {
		return nil
	}
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(&attachments).Error
}

func (r *chatRepoImpl) FindMessage(ctx context.Context, messageID uint) (*model.ChatMessage, error) {
	var message model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("id = ?", messageID).
		First(&message).Error

	if err != nil {
		return nil, err
	}

	return &message, nil
}

func (r *chatRepoImpl) Messages(ctx context.Context, conversationID uint) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Find(&messages).Error

	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *chatRepoImpl) AttachmentsForMessages(ctx context.Context, messageIDs []uint) ([]*model.ChatAttachment, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}

	var attachments []*model.ChatAttachment
	err := r.db.WithContext(ctx).
		Where("message_id IN ?", messageIDs).
		Find(&attachments).Error

	if err != nil {
		return nil, err
	}

	return attachments, nil
}

func (r *chatRepoImpl) MarkMessageRead(ctx context.Context, messageID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.ChatMessage{}).
		Where("id = ?", messageID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})

	return result.RowsAffected, result.Error
}
