package service

import (
	"context"
	"encoding/json"
	"fmt"
	"urban-threads-api/internal/client"
	"urban-threads-api/internal/model"
	"urban-threads-api/internal/repository"

	"github.com/sirupsen/logrus"
)

// DiscountNotice is one discount event fanned out to many users.
type DiscountNotice struct {
	UserIDs      []uint
	ProductID    uint
	ProductName  string
	DiscountRate int
}

// FanoutResult separates the authoritative persisted count from the
// advisory delivered count.
type FanoutResult struct {
	Inserted int
	Emailed  int
}

type NotificationService interface {
	NotifyDiscount(ctx context.Context, notice DiscountNotice) (FanoutResult, error)
	ListMine(ctx context.Context, userID uint) ([]*model.Notification, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uint) (int64, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

type notificationServiceImpl struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	mailer           client.Mailer
	log              *logrus.Logger
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	mailer client.Mailer,
	log *logrus.Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		mailer:           mailer,
		log:              log,
	}
}

// NotifyDiscount persists one notification row per user in a single batched
// insert, then attempts best-effort email delivery. An email failure for one
// recipient never rolls back the batch; it only lowers the emailed count.
func (s *notificationServiceImpl) NotifyDiscount(ctx context.Context, notice DiscountNotice) (FanoutResult, error) {
	if len(notice.UserIDs) == 0 {
		return FanoutResult{}, nil
	}

	title := "Discount Alert"
	message := fmt.Sprintf("%s is now %d%% off!", notice.ProductName, notice.DiscountRate)

	payload, err := json.Marshal(map[string]interface{}{
		"productId":    notice.ProductID,
		"discountRate": notice.DiscountRate,
		"productName":  notice.ProductName,
	})
	if err != nil {
		return FanoutResult{}, err
	}

	rows := make([]*model.Notification, len(notice.UserIDs))
	for i, userID := range notice.UserIDs {
		rows[i] = &model.Notification{
			UserID:  userID,
			Type:    model.NotificationTypeDiscount,
			Title:   title,
			Message: message,
			Data:    string(payload),
		}
	}

	if err := s.notificationRepo.CreateBatch(ctx, rows); err != nil {
		return FanoutResult{}, err
	}

	result := FanoutResult{Inserted: len(rows)}

	if s.mailer != nil {
		emails, err := s.userRepo.EmailsForUsers(ctx, notice.UserIDs)
		if err != nil {
			s.log.WithError(err).Warn("discount fan-out: email lookup failed, skipping delivery")
			return result, nil
		}

		body := fmt.Sprintf("<h2>%s</h2><p>%s</p>", title, message)
		for _, userID := range notice.UserIDs {
			address, ok := emails[userID]
			if !ok {
				continue
			}
			if err := s.mailer.Send(address, title, body); err != nil {
				s.log.WithError(err).WithField("user_id", userID).Warn("discount email failed")
				continue
			}
			result.Emailed++
		}
	}

	s.log.WithFields(logrus.Fields{
		"product_id":    notice.ProductID,
		"discount_rate": notice.DiscountRate,
		"inserted":      result.Inserted,
		"emailed":       result.Emailed,
	}).Info("discount fan-out complete")

	return result, nil
}

func (s *notificationServiceImpl) ListMine(ctx context.Context, userID uint) ([]*model.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, userID)
}

func (s *notificationServiceImpl) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.UnreadCount(ctx, userID)
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, userID, notificationID uint) (int64, error) {
	return s.notificationRepo.MarkRead(ctx, userID, notificationID)
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}
