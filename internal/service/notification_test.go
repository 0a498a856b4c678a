package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"urban-threads-api/internal/client"
	"urban-threads-api/internal/model"
	"urban-threads-api/internal/repository"
	"urban-threads-api/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newNotificationService(db *gorm.DB, mailer *fakeMailer) service.NotificationService {
	var m client.Mailer
	if mailer != nil {
		m = mailer
	}
	return service.NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		m,
		testLogger(),
	)
}

func TestNotifyDiscountEmptyAudience(t *testing.T) {
	db := setupDB(t)
	notifier := newNotificationService(db, &fakeMailer{})

	result, err := notifier.NotifyDiscount(context.Background(), service.DiscountNotice{
		ProductID:    1,
		ProductName:  "Hoodie",
		DiscountRate: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, service.FanoutResult{}, result)

	var count int64
	require.NoError(t, db.Model(&model.Notification{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestNotifyDiscountFanout(t *testing.T) {
	db := setupDB(t)
	mailer := &fakeMailer{}
	notifier := newNotificationService(db, mailer)

	a := seedUser(t, db, "a@example.com", "customer")
	b := seedUser(t, db, "b@example.com", "customer")
	c := seedUser(t, db, "c@example.com", "customer")

	result, err := notifier.NotifyDiscount(context.Background(), service.DiscountNotice{
		UserIDs:      []uint{a.ID, b.ID, c.ID},
		ProductID:    42,
		ProductName:  "Hoodie",
		DiscountRate: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, service.FanoutResult{Inserted: 3, Emailed: 3}, result)

	var rows []model.Notification
	require.NoError(t, db.Order("user_id asc").Find(&rows).Error)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, model.NotificationTypeDiscount, row.Type)
		assert.Equal(t, "Discount Alert", row.Title)
		assert.Equal(t, "Hoodie is now 25% off!", row.Message)
		assert.False(t, row.IsRead)

		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(row.Data), &payload))
		assert.EqualValues(t, 42, payload["productId"])
		assert.EqualValues(t, 25, payload["discountRate"])
		assert.Equal(t, "Hoodie", payload["productName"])
	}

	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com", "c@example.com"}, mailer.sent)
}

func TestNotifyDiscountEmailFailureOnlyLowersEmailed(t *testing.T) {
	db := setupDB(t)
	mailer := &fakeMailer{failTo: map[string]bool{"b@example.com": true}}
	notifier := newNotificationService(db, mailer)

	a := seedUser(t, db, "a@example.com", "customer")
	b := seedUser(t, db, "b@example.com", "customer")

	result, err := notifier.NotifyDiscount(context.Background(), service.DiscountNotice{
		UserIDs:      []uint{a.ID, b.ID},
		ProductID:    7,
		ProductName:  "Jacket",
		DiscountRate: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Emailed)

	var count int64
	require.NoError(t, db.Model(&model.Notification{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestNotifyDiscountWithoutMailer(t *testing.T) {
	db := setupDB(t)
	notifier := newNotificationService(db, nil)

	user := seedUser(t, db, "a@example.com", "customer")

	result, err := notifier.NotifyDiscount(context.Background(), service.DiscountNotice{
		UserIDs:      []uint{user.ID},
		ProductID:    7,
		ProductName:  "Jacket",
		DiscountRate: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, service.FanoutResult{Inserted: 1, Emailed: 0}, result)
}

func TestMarkNotificationsRead(t *testing.T) {
	db := setupDB(t)
	notifier := newNotificationService(db, nil)
	ctx := context.Background()

	user := seedUser(t, db, "a@example.com", "customer")
	other := seedUser(t, db, "b@example.com", "customer")

	_, err := notifier.NotifyDiscount(ctx, service.DiscountNotice{
		UserIDs: []uint{user.ID, user.ID, other.ID}, ProductID: 1, ProductName: "Hoodie", DiscountRate: 20,
	})
	require.NoError(t, err)

	mine, err := notifier.ListMine(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	unread, err := notifier.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	t.Run("mark one", func(t *testing.T) {
		rows, err := notifier.MarkRead(ctx, user.ID, mine[0].ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, rows)

		unread, err := notifier.UnreadCount(ctx, user.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, unread)
	})

	t.Run("cannot mark another user's notification", func(t *testing.T) {
		var theirs model.Notification
		require.NoError(t, db.Where("user_id = ?", other.ID).First(&theirs).Error)

		rows, err := notifier.MarkRead(ctx, user.ID, theirs.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, rows)
	})

	t.Run("mark all", func(t *testing.T) {
		rows, err := notifier.MarkAllRead(ctx, user.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, rows)

		unread, err := notifier.UnreadCount(ctx, user.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, unread)
	})
}
