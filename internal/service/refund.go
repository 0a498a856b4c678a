package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"urban-threads-api/internal/apperr"
	"urban-threads-api/internal/client"
	"urban-threads-api/internal/dto"
	"urban-threads-api/internal/model"
	"urban-threads-api/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const refundWindowDays = 30

type RefundService interface {
	CreateRequest(ctx context.Context, userID uint, req *dto.CreateRefundRequest) (*model.RefundRequest, error)
	// Decide moves a pending refund to approved or rejected; any other
	// transition fails.
	Decide(ctx context.Context, refundID uint, status string) error
	ListMine(ctx context.Context, userID uint) ([]*model.RefundRequest, error)
	ListAll(ctx context.Context) ([]*dto.RefundSummary, error)
}

type refundServiceImpl struct {
	db               *gorm.DB
	refundRepo       repository.RefundRepository
	orderRepo        repository.OrderRepository
	productRepo      repository.ProductRepository
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	mailer           client.Mailer
	log              *logrus.Logger
}

func NewRefundService(
	db *gorm.DB,
	refundRepo repository.RefundRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	mailer client.Mailer,
	log *logrus.Logger,
) RefundService {
	return &refundServiceImpl{
		db:               db,
		refundRepo:       refundRepo,
		orderRepo:        orderRepo,
		productRepo:      productRepo,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		mailer:           mailer,
		log:              log,
	}
}

// CreateRequest checks eligibility in a fixed order so each rejection has a
// stable reason: ownership, delivered status, the 30-day window, item
// membership, then quantity.
func (s *refundServiceImpl) CreateRequest(ctx context.Context, userID uint, req *dto.CreateRefundRequest) (*model.RefundRequest, error) {
	if req.OrderID == 0 || req.OrderItemID == 0 || req.Reason == "" {
		return nil, apperr.New(apperr.Validation, "Missing required fields")
	}

	order, err := s.orderRepo.FindOwned(ctx, nil, req.OrderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Order not found")
		}
		return nil, err
	}

	if order.Status != model.OrderStatusDelivered {
		return nil, apperr.New(apperr.Validation, "Order not delivered")
	}

	if time.Since(order.CreatedAt) > refundWindowDays*24*time.Hour {
		return nil, apperr.New(apperr.Validation, "Refund window expired")
	}

	item, err := s.orderRepo.FindItem(ctx, req.OrderItemID, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Order item not found")
		}
		return nil, err
	}

	quantity := item.Quantity
	if req.Quantity != nil {
		if *req.Quantity <= 0 || *req.Quantity > item.Quantity {
			return nil, apperr.New(apperr.Validation, "Invalid quantity")
		}
		quantity = *req.Quantity
	}

	amount := decimal.NewFromFloat(item.Price).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2).
		InexactFloat64()

	refund := &model.RefundRequest{
		UserID:       userID,
		OrderID:      req.OrderID,
		OrderItemID:  req.OrderItemID,
		Quantity:     quantity,
		Reason:       req.Reason,
		Status:       model.RefundStatusPending,
		RefundAmount: amount,
	}

	if err := s.refundRepo.Create(ctx, refund); err != nil {
		return nil, err
	}

	return refund, nil
}

func (s *refundServiceImpl) Decide(ctx context.Context, refundID uint, status string) error {
	if status != model.RefundStatusApproved && status != model.RefundStatusRejected {
		return apperr.New(apperr.Validation, "Invalid status")
	}

	refund, err := s.refundRepo.FindByID(ctx, refundID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "Refund not found")
		}
		return err
	}

	if status == model.RefundStatusApproved {
		return s.approve(ctx, refund)
	}
	return s.reject(ctx, refund)
}

// approve restores stock and writes the customer notification atomically
// with the status transition. The conditional status write is the only
// guard against double approval: the second caller affects zero rows and
// nothing else runs.
func (s *refundServiceImpl) approve(ctx context.Context, refund *model.RefundRequest) error {
	item, err := s.orderRepo.FindItem(ctx, refund.OrderItemID, refund.OrderID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.refundRepo.Decide(ctx, tx, refund.ID, model.RefundStatusApproved)
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperr.New(apperr.Conflict, "Refund already decided")
		}

		if err := s.productRepo.IncrementStock(ctx, tx, item.ProductID, refund.Quantity); err != nil {
			return err
		}

		return s.notificationRepo.Create(ctx, tx, &model.Notification{
			UserID:  refund.UserID,
			Type:    model.NotificationTypeRefund,
			Title:   "Refund Approved",
			Message: fmt.Sprintf("Your refund of $%.2f has been approved and returned to your account.", refund.RefundAmount),
		})
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"refund_id": refund.ID,
		"amount":    refund.RefundAmount,
	}).Info("refund approved")

	// Best effort: a failed email never unwinds the approval.
	if s.mailer != nil {
		user, err := s.userRepo.FindByID(ctx, refund.UserID)
		if err == nil && user.Email != "" {
			body := fmt.Sprintf(
				"<h2>Refund Approved</h2><p>Your refund has been approved.</p><p><strong>Amount:</strong> $%.2f</p><p>The amount has been returned to your original payment method.</p>",
				refund.RefundAmount,
			)
			if err := s.mailer.Send(user.Email, "Refund Approved", body); err != nil {
				s.log.WithError(err).WithField("refund_id", refund.ID).Warn("refund approval email failed")
			}
		}
	}

	return nil
}

func (s *refundServiceImpl) reject(ctx context.Context, refund *model.RefundRequest) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.refundRepo.Decide(ctx, tx, refund.ID, model.RefundStatusRejected)
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperr.New(apperr.Conflict, "Refund already decided")
		}

		return s.notificationRepo.Create(ctx, tx, &model.Notification{
			UserID:  refund.UserID,
			Type:    model.NotificationTypeRefund,
			Title:   "Refund Rejected",
			Message: "Your refund request has been rejected by the sales manager.",
		})
	})
}

func (s *refundServiceImpl) ListMine(ctx context.Context, userID uint) ([]*model.RefundRequest, error) {
	return s.refundRepo.ListByUser(ctx, userID)
}

func (s *refundServiceImpl) ListAll(ctx context.Context) ([]*dto.RefundSummary, error) {
	return s.refundRepo.ListAll(ctx)
}
