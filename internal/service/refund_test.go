package service_test

import (
	"context"
	"testing"
	"time"
	"urban-threads-api/internal/apperr"
	"urban-threads-api/internal/dto"
	"urban-threads-api/internal/model"
	"urban-threads-api/internal/repository"
	"urban-threads-api/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRefundService(db *gorm.DB, mailer *fakeMailer) service.RefundService {
	return service.NewRefundService(
		db,
		repository.NewRefundRepository(db),
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		mailer,
		testLogger(),
	)
}

type refundFixture struct {
	user    *model.User
	product *model.Product
	order   *model.Order
	item    *model.OrderItem
}

func seedDeliveredOrder(t *testing.T, db *gorm.DB, age time.Duration) refundFixture {
	t.Helper()

	user := seedUser(t, db, "buyer@example.com", "customer")
	product := seedProduct(t, db, "Shirt", 25.00, 5)

	order := &model.Order{
		UserID:     user.ID,
		TotalPrice: 75.00,
		Status:     model.OrderStatusDelivered,
		CreatedAt:  time.Now().Add(-age),
	}
	require.NoError(t, db.Create(order).Error)

	item := &model.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: 3, Price: 25.00}
	require.NoError(t, db.Create(item).Error)

	return refundFixture{user: user, product: product, order: order, item: item}
}

func TestCreateRefundRequestEligibility(t *testing.T) {
	db := setupDB(t)
	refunds := newRefundService(db, &fakeMailer{})
	ctx := context.Background()

	fx := seedDeliveredOrder(t, db, 24*time.Hour)

	t.Run("missing fields", func(t *testing.T) {
		_, err := refunds.CreateRequest(ctx, fx.user.ID, &dto.CreateRefundRequest{OrderID: fx.order.ID})
		assert.True(t, apperr.IsKind(err, apperr.Validation))
	})

	t.Run("order not owned", func(t *testing.T) {
		other := seedUser(t, db, "other@example.com", "customer")
		_, err := refunds.CreateRequest(ctx, other.ID, &dto.CreateRefundRequest{
			OrderID: fx.order.ID, OrderItemID: fx.item.ID, Reason: "too small",
		})
		assert.True(t, apperr.IsKind(err, apperr.NotFound))
	})

	t.Run("order not delivered", func(t *testing.T) {
		require.NoError(t, db.Model(fx.order).Update("status", model.OrderStatusProcessing).Error)
		_, err := refunds.CreateRequest(ctx, fx.user.ID, &dto.CreateRefundRequest{
			OrderID: fx.order.ID, OrderItemID: fx.item.ID, Reason: "too small",
		})
		assert.True(t, apperr.IsKind(err, apperr.Validation))
		require.NoError(t, db.Model(fx.order).Update("status", model.OrderStatusDelivered).Error)
	})

	t.Run("item not in order", func(t *testing.T) {
		_, err := refunds.CreateRequest(ctx, fx.user.ID, &dto.CreateRefundRequest{
			OrderID: fx.order.ID, OrderItemID: 9999, Reason: "too small",
		})
		assert.True(t, apperr.IsKind(err, apperr.NotFound))
	})

	t.Run("quantity exceeds original", func(t *testing.T) {
		qty := 4
		_, err := refunds.CreateRequest(ctx, fx.user.ID, &dto.CreateRefundRequest{
			OrderID: fx.order.ID, OrderItemID: fx.item.ID, Reason: "too small", Quantity: &qty,
		})
		assert.True(t, apperr.IsKind(err, apperr.Validation))
	})
}

func TestCreateRefundRequestWindowExpired(t *testing.T) {
	db := setupDB(t)
	refunds := newRefundService(db, &fakeMailer{})
	ctx := context.Background()

	fx := seedDeliveredOrder(t, db, 31*24*time.Hour)

	_, err := refunds.CreateRequest(ctx, fx.user.ID, &dto.CreateRefundRequest{
		OrderID: fx.order.ID, OrderItemID: fx.item.ID, Reason: "too small",
	})
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestCreateRefundRequest(t *testing.T) {
	db := setupDB(t)
	refunds := newRefundService(db, &fakeMailer{})
	ctx := context.Background()

	fx := seedDeliveredOrder(t, db, 24*time.Hour)

	t.Run("partial quantity", func(t *testing.T) {
		qty := 2
		refund, err := refunds.CreateRequest(ctx, fx.user.ID, &dto.CreateRefundRequest{
			OrderID: fx.order.ID, OrderItemID: fx.item.ID, Reason: "wrong size", Quantity: &qty,
		})
		require.NoError(t, err)
		assert.Equal(t, model.RefundStatusPending, refund.Status)
		assert.Equal(t, 2, refund.Quantity)
		assert.InDelta(t, 50.00, refund.RefundAmount, 0.001)
	})

	t.Run("defaults to full item quantity", func(t *testing.T) {
		refund, err := refunds.CreateRequest(ctx, fx.user.ID, &dto.CreateRefundRequest{
			OrderID: fx.order.ID, OrderItemID: fx.item.ID, Reason: "wrong size",
		})
		require.NoError(t, err)
		assert.Equal(t, 3, refund.Quantity)
		assert.InDelta(t, 75.00, refund.RefundAmount, 0.001)
	})
}

func TestDecideRefund(t *testing.T) {
	db := setupDB(t)
	mailer := &fakeMailer{}
	refunds := newRefundService(db, mailer)
	ctx := context.Background()

	fx := seedDeliveredOrder(t, db, 24*time.Hour)
	qty := 2
	refund, err := refunds.CreateRequest(ctx, fx.user.ID, &dto.CreateRefundRequest{
		OrderID: fx.order.ID, OrderItemID: fx.item.ID, Reason: "wrong size", Quantity: &qty,
	})
	require.NoError(t, err)

	t.Run("invalid status", func(t *testing.T) {
		err := refunds.Decide(ctx, refund.ID, "maybe")
		assert.True(t, apperr.IsKind(err, apperr.Validation))
	})

	t.Run("missing refund", func(t *testing.T) {
		err := refunds.Decide(ctx, 9999, model.RefundStatusApproved)
		assert.True(t, apperr.IsKind(err, apperr.NotFound))
	})

	t.Run("approve restores stock and notifies once", func(t *testing.T) {
		before := reloadProduct(t, db, fx.product.ID).Stock

		require.NoError(t, refunds.Decide(ctx, refund.ID, model.RefundStatusApproved))

		assert.Equal(t, before+qty, reloadProduct(t, db, fx.product.ID).Stock)

		var notifications []model.Notification
		require.NoError(t, db.Where("user_id = ?", fx.user.ID).Find(&notifications).Error)
		require.Len(t, notifications, 1)
		assert.Equal(t, model.NotificationTypeRefund, notifications[0].Type)
		assert.Equal(t, "Refund Approved", notifications[0].Title)

		assert.Equal(t, []string{"buyer@example.com"}, mailer.sent)
	})

	t.Run("second approval is rejected with no further mutation", func(t *testing.T) {
		stock := reloadProduct(t, db, fx.product.ID).Stock

		err := refunds.Decide(ctx, refund.ID, model.RefundStatusApproved)
		assert.True(t, apperr.IsKind(err, apperr.Conflict))

		assert.Equal(t, stock, reloadProduct(t, db, fx.product.ID).Stock)
		var count int64
		require.NoError(t, db.Model(&model.Notification{}).Where("user_id = ?", fx.user.ID).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}

func TestRejectRefund(t *testing.T) {
	db := setupDB(t)
	refunds := newRefundService(db, &fakeMailer{})
	ctx := context.Background()

	fx := seedDeliveredOrder(t, db, 24*time.Hour)
	refund, err := refunds.CreateRequest(ctx, fx.user.ID, &dto.CreateRefundRequest{
		OrderID: fx.order.ID, OrderItemID: fx.item.ID, Reason: "changed my mind",
	})
	require.NoError(t, err)

	before := reloadProduct(t, db, fx.product.ID).Stock
	require.NoError(t, refunds.Decide(ctx, refund.ID, model.RefundStatusRejected))

	// Rejection notifies but never touches stock.
	assert.Equal(t, before, reloadProduct(t, db, fx.product.ID).Stock)
	var notifications []model.Notification
	require.NoError(t, db.Where("user_id = ?", fx.user.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Refund Rejected", notifications[0].Title)

	// A decided refund cannot be re-approved.
	err = refunds.Decide(ctx, refund.ID, model.RefundStatusApproved)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
}

func TestRefundEmailFailureDoesNotFailApproval(t *testing.T) {
	db := setupDB(t)
	mailer := &fakeMailer{failTo: map[string]bool{"buyer@example.com": true}}
	refunds := newRefundService(db, mailer)
	ctx := context.Background()

	fx := seedDeliveredOrder(t, db, 24*time.Hour)
	refund, err := refunds.CreateRequest(ctx, fx.user.ID, &dto.CreateRefundRequest{
		OrderID: fx.order.ID, OrderItemID: fx.item.ID, Reason: "wrong size",
	})
	require.NoError(t, err)

	require.NoError(t, refunds.Decide(ctx, refund.ID, model.RefundStatusApproved))

	var got model.RefundRequest
	require.NoError(t, db.First(&got, refund.ID).Error)
	assert.Equal(t, model.RefundStatusApproved, got.Status)
}
