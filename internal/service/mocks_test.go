package service

import (
	"context"
	"sort"
	"time"

	"github.com/niclashart/Streamlit-Stock-App/internal/marketdata"
	"github.com/niclashart/Streamlit-Stock-App/internal/models"
	"github.com/niclashart/Streamlit-Stock-App/internal/storage"
)

// ============================================================
// In-memory хранилища для тестов сервисного слоя
// ============================================================

type memUserStore struct {
	users map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*models.User)}
}

func (m *memUserStore) Create(user *models.User) error {
	if _, ok := m.users[user.Username]; ok {
		return storage.ErrUserExists
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	m.users[user.Username] = user
	return nil
}

func (m *memUserStore) GetByUsername(username string) (*models.User, error) {
	user, ok := m.users[username]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (m *memUserStore) Exists(username string) (bool, error) {
	_, ok := m.users[username]
	return ok, nil
}

func (m *memUserStore) UpdatePassword(username, passwordHash string) error {
	user, ok := m.users[username]
	if !ok {
		return storage.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

type memOrderStore struct {
	orders map[int]*models.Order
	nextID int

	failCreate error // если задано, Create возвращает эту ошибку
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: make(map[int]*models.Order), nextID: 1}
}

func (m *memOrderStore) Create(order *models.Order) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	order.ID = m.nextID
	m.nextID++
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	m.orders[order.ID] = order
	return nil
}

func (m *memOrderStore) GetByID(id int) (*models.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	return order, nil
}

func (m *memOrderStore) GetByUsername(username string) ([]*models.Order, error) {
	var result []*models.Order
	for _, order := range m.orders {
		if order.Username == username {
			result = append(result, order)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *memOrderStore) GetPending() ([]*models.Order, error) {
	var result []*models.Order
	for _, order := range m.orders {
		if order.Status == models.OrderStatusPending {
			result = append(result, order)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *memOrderStore) GetByUsernameAndStatus(username, status string) ([]*models.Order, error) {
	var result []*models.Order
	for _, order := range m.orders {
		if order.Username == username && order.Status == status {
			result = append(result, order)
		}
	}
	return result, nil
}

func (m *memOrderStore) MarkExecuted(id int, executedPrice float64, executedAt time.Time) error {
	order, ok := m.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	if order.Status != models.OrderStatusPending {
		return storage.ErrOrderNotPending
	}
	order.Status = models.OrderStatusExecuted
	order.ExecutedPrice = &executedPrice
	order.ExecutedAt = &executedAt
	return nil
}

func (m *memOrderStore) MarkCancelled(id int) error {
	order, ok := m.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	if order.Status != models.OrderStatusPending {
		return storage.ErrOrderNotPending
	}
	order.Status = models.OrderStatusCancelled
	return nil
}

func (m *memOrderStore) CountByStatus(status string) (int, error) {
	count := 0
	for _, order := range m.orders {
		if order.Status == status {
			count++
		}
	}
	return count, nil
}

type memPositionStore struct {
	positions map[string]*models.Position // key: username|ticker

	failUpsert error // если задано, Upsert возвращает эту ошибку
}

func newMemPositionStore() *memPositionStore {
	return &memPositionStore{positions: make(map[string]*models.Position)}
}

func positionKey(username, ticker string) string {
	return username + "|" + ticker
}

func (m *memPositionStore) GetByUsername(username string) ([]*models.Position, error) {
	var result []*models.Position
	for _, position := range m.positions {
		if position.Username == username {
			result = append(result, position)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Ticker < result[j].Ticker
	})
	return result, nil
}

func (m *memPositionStore) Get(username, ticker string) (*models.Position, error) {
	position, ok := m.positions[positionKey(username, ticker)]
	if !ok {
		return nil, storage.ErrPositionNotFound
	}
	return position, nil
}

func (m *memPositionStore) Upsert(position *models.Position) error {
	if m.failUpsert != nil {
		return m.failUpsert
	}
	m.positions[positionKey(position.Username, position.Ticker)] = position
	return nil
}

func (m *memPositionStore) Remove(username, ticker string) error {
	key := positionKey(username, ticker)
	if _, ok := m.positions[key]; !ok {
		return storage.ErrPositionNotFound
	}
	delete(m.positions, key)
	return nil
}

// ============================================================
// Статический источник котировок для тестов
// ============================================================

type staticFeed struct {
	prices    map[string]float64
	dividends map[string][]*marketdata.Dividend
	calls     int
}

func newStaticFeed(prices map[string]float64) *staticFeed {
	return &staticFeed{
		prices:    prices,
		dividends: make(map[string][]*marketdata.Dividend),
	}
}

func (f *staticFeed) GetQuote(ctx context.Context, ticker string) (*marketdata.Quote, error) {
	price, err := f.GetCurrentPrice(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return &marketdata.Quote{Ticker: ticker, Price: price}, nil
}

func (f *staticFeed) GetCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	f.calls++
	price, ok := f.prices[ticker]
	if !ok {
		return 0, marketdata.ErrTickerNotFound
	}
	return price, nil
}

func (f *staticFeed) GetHistory(ctx context.Context, ticker string, start, end time.Time) ([]*marketdata.PricePoint, error) {
	return nil, marketdata.ErrNoData
}

func (f *staticFeed) GetDividends(ctx context.Context, ticker string, since time.Time) ([]*marketdata.Dividend, error) {
	dividends, ok := f.dividends[ticker]
	if !ok {
		return nil, marketdata.ErrNoData
	}
	return dividends, nil
}
