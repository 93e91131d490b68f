package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/tijara/internal/database"
	"github.com/example/tijara/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// memStorage keeps uploads in memory for tests.
type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}}
}

func (s *memStorage) Put(folder, filename string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := folder + "/" + filename
	s.files[path] = data
	return path, nil
}

func (s *memStorage) URL(path string) string {
	return "http://test.local/uploads/" + path
}

// countingMailer records synchronous sends.
type countingMailer struct {
	mu   sync.Mutex
	sent []MailMessage
}

func (m *countingMailer) Send(msg MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *countingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// recordingSMS captures sent texts.
type recordingSMS struct {
	mu    sync.Mutex
	sent  []string
	texts []string
}

func (s *recordingSMS) SendText(phone, body string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, phone)
	s.texts = append(s.texts, body)
	return "msg-1", nil
}

func newNoopQueue(t *testing.T) *MailQueue {
	t.Helper()
	q, err := NewMailQueue("", "test_mail", LogMailer{})
	require.NoError(t, err)
	return q
}

func seedUser(t *testing.T, db *gorm.DB, phone string, verified bool) *models.User {
	t.Helper()

	user := &models.User{
		FirstName:    "Amira",
		Phone:        phone,
		Email:        phone + "@example.com",
		PasswordHash: "x",
		City:         "Port Sudan",
		Street:       "Harbor Road",
	}
	if verified {
		now := time.Now()
		user.PhoneVerifiedAt = &now
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *models.Product {
	t.Helper()

	product := &models.Product{Name: name, Price: price, Stock: stock}
	require.NoError(t, db.Create(product).Error)
	return product
}

func addToCart(t *testing.T, db *gorm.DB, user *models.User, product *models.Product, qty int) {
	t.Helper()
	require.NoError(t, db.Create(&models.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Quantity:  qty,
	}).Error)
}
