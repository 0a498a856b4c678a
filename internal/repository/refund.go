package repository

import (
	"context"
	"urban-threads-api/internal/dto"
	"urban-threads-api/internal/model"

	"gorm.io/gorm"
)

type RefundRepository interface {
	Create(ctx context.Context, refund *model.RefundRequest) error
	FindByID(ctx context.Context, refundID uint) (*model.RefundRequest, error)
	// Decide writes the terminal status with a conditional update that only
	// matches a still-pending row; zero rows affected means the refund was
	// already decided.
	Decide(ctx context.Context, tx *gorm.DB, refundID uint, status string) (int64, error)
	ListByUser(ctx context.Context, userID uint) ([]*model.RefundRequest, error)
	ListAll(ctx context.Context) ([]*dto.RefundSummary, error)
}

type refundRepoImpl struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) RefundRepository {
	return &refundRepoImpl{
		db: db,
	}
}

func (r *refundRepoImpl) Create(ctx context.Context, refund *model.RefundRequest) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *refundRepoImpl) FindByID(ctx context.Context, refundID uint) (*model.RefundRequest, error) {
	var refund model.RefundRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", refundID).
		First(&refund).Error

	if err != nil {
		return nil, err
	}

	return &refund, nil
}

func (r *refundRepoImpl) Decide(ctx context.Context, tx *gorm.DB, refundID uint, status string) (int64, error) {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).Model(&model.RefundRequest{}).
		Where("id = ? AND status = ?", refundID, model.RefundStatusPending).
		Update("status", status)

	return result.RowsAffected, result.Error
}

func (r *refundRepoImpl) ListByUser(ctx context.Context, userID uint) ([]*model.RefundRequest, error) {
	var refunds []*model.RefundRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&refunds).Error

	if err != nil {
		return nil, err
	}

	return refunds, nil
}

func (r *refundRepoImpl) ListAll(ctx context.Context) ([]*dto.RefundSummary, error) {
	var summaries []*dto.RefundSummary
	err := r.db.WithContext(ctx).
		Table("refund_requests").
		Select(`refund_requests.id, refund_requests.reason, refund_requests.status,
			refund_requests.quantity, refund_requests.refund_amount, refund_requests.created_at,
			users.email AS customer_email, order_items.product_id`).
		Joins("JOIN users ON users.id = refund_requests.user_id").
		Joins("JOIN order_items ON order_items.id = refund_requests.order_item_id").
		Order("refund_requests.created_at desc").
		Scan(&summaries).Error

	if err != nil {
		return nil, err
	}

	return summaries, nil
}
