package service_test

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"urban-threads-api/internal/client"
	"urban-threads-api/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))

	return db
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) *model.User {
	t.Helper()

	user := &model.User{Name: "Test User", Email: email, Password: "x", Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *model.Product {
	t.Helper()

	product := &model.Product{Name: name, Price: price, Stock: stock}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedCart(t *testing.T, db *gorm.DB, userID uint, lines map[uint]int) *model.Cart {
	t.Helper()

	cart := &model.Cart{UserID: userID}
	require.NoError(t, db.Create(cart).Error)
	for productID, qty := range lines {
		require.NoError(t, db.Create(&model.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  qty,
		}).Error)
	}
	return cart
}

func reloadProduct(t *testing.T, db *gorm.DB, productID uint) *model.Product {
	t.Helper()

	var product model.Product
	require.NoError(t, db.First(&product, productID).Error)
	return &product
}

// recordingBroadcaster captures realtime fan-out for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	ConversationID uint
	Event          string
	ToAgents       bool
}

func (b *recordingBroadcaster) ToRoom(conversationID uint, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{ConversationID: conversationID, Event: event})
}

func (b *recordingBroadcaster) ToAgents(event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{Event: event, ToAgents: true})
}

func (b *recordingBroadcaster) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, len(b.events))
	for i, event := range b.events {
		names[i] = event.Event
	}
	return names
}

// fakeMailer records deliveries and can fail selected addresses.
type fakeMailer struct {
	mu     sync.Mutex
	sent   []string
	failTo map[string]bool
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo[to] {
		return errors.New("smtp: delivery failed")
	}
	m.sent = append(m.sent, to)
	return nil
}
