package storage

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/niclashart/Streamlit-Stock-App/internal/models"
)

const ordersFile = "orders.csv"

var orderHeader = []string{
	"id", "username", "ticker", "side", "target_price",
	"quantity", "status", "created_at", "executed_at", "executed_price",
}

// CSVOrderStore хранит ордера в orders.csv
type CSVOrderStore struct {
	backend *csvBackend
}

// Create сохраняет новый ордер и заполняет order.ID.
// ID выдаётся как max(существующих)+1, поэтому идентификаторы
// остаются стабильными между перезапусками.
func (s *CSVOrderStore) Create(order *models.Order) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	orders, err := s.load()
	if err != nil {
		return err
	}

	nextID := 1
	for _, existing := range orders {
		if existing.ID >= nextID {
			nextID = existing.ID + 1
		}
	}
	order.ID = nextID

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	orders = append(orders, order)
	return s.save(orders)
}

// GetByID возвращает ордер по ID
func (s *CSVOrderStore) GetByID(id int) (*models.Order, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	orders, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, order := range orders {
		if order.ID == id {
			return order, nil
		}
	}

	return nil, ErrOrderNotFound
}

// GetByUsername возвращает все ордера пользователя (новые первыми)
func (s *CSVOrderStore) GetByUsername(username string) ([]*models.Order, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	orders, err := s.load()
	if err != nil {
		return nil, err
	}

	var result []*models.Order
	for _, order := range orders {
		if order.Username == username {
			result = append(result, order)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// GetPending возвращает все pending ордера всех пользователей
func (s *CSVOrderStore) GetPending() ([]*models.Order, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	orders, err := s.load()
	if err != nil {
		return nil, err
	}

	var result []*models.Order
	for _, order := range orders {
		if order.Status == models.OrderStatusPending {
			result = append(result, order)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// GetByUsernameAndStatus возвращает ордера пользователя с заданным статусом
func (s *CSVOrderStore) GetByUsernameAndStatus(username, status string) ([]*models.Order, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	orders, err := s.load()
	if err != nil {
		return nil, err
	}

	var result []*models.Order
	for _, order := range orders {
		if order.Username == username && order.Status == status {
			result = append(result, order)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// MarkExecuted переводит pending ордер в executed
func (s *CSVOrderStore) MarkExecuted(id int, executedPrice float64, executedAt time.Time) error {
	return s.updatePending(id, func(order *models.Order) {
		order.Status = models.OrderStatusExecuted
		order.ExecutedPrice = &executedPrice
		order.ExecutedAt = &executedAt
	})
}

// MarkCancelled переводит pending ордер в cancelled
func (s *CSVOrderStore) MarkCancelled(id int) error {
	return s.updatePending(id, func(order *models.Order) {
		order.Status = models.OrderStatusCancelled
	})
}

// CountByStatus возвращает количество ордеров со статусом
func (s *CSVOrderStore) CountByStatus(status string) (int, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	orders, err := s.load()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, order := range orders {
		if order.Status == status {
			count++
		}
	}

	return count, nil
}

// updatePending находит pending ордер, применяет мутацию и сохраняет файл.
// Терминальные ордера неизменяемы: возвращается ErrOrderNotPending.
func (s *CSVOrderStore) updatePending(id int, mutate func(*models.Order)) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	orders, err := s.load()
	if err != nil {
		return err
	}

	var target *models.Order
	for _, order := range orders {
		if order.ID == id {
			target = order
			break
		}
	}

	if target == nil {
		return ErrOrderNotFound
	}
	if target.Status != models.OrderStatusPending {
		return ErrOrderNotPending
	}

	mutate(target)
	return s.save(orders)
}

// load читает все ордера из файла
func (s *CSVOrderStore) load() ([]*models.Order, error) {
	records, err := readCSVFile(s.backend.path(ordersFile))
	if err != nil {
		return nil, err
	}

	var orders []*models.Order
	for i, record := range records {
		if i == 0 {
			continue // заголовок
		}
		if len(record) != len(orderHeader) {
			return nil, fmt.Errorf("%s: row %d has %d fields, want %d", ordersFile, i+1, len(record), len(orderHeader))
		}

		order, err := parseOrderRow(record)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", ordersFile, i+1, err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

// save перезаписывает файл ордеров целиком
func (s *CSVOrderStore) save(orders []*models.Order) error {
	rows := make([][]string, 0, len(orders))
	for _, order := range orders {
		executedAt := ""
		if order.ExecutedAt != nil {
			executedAt = formatCSVTime(*order.ExecutedAt)
		}
		executedPrice := ""
		if order.ExecutedPrice != nil {
			executedPrice = formatCSVFloat(*order.ExecutedPrice)
		}

		rows = append(rows, []string{
			strconv.Itoa(order.ID),
			order.Username,
			order.Ticker,
			order.Side,
			formatCSVFloat(order.TargetPrice),
			formatCSVFloat(order.Quantity),
			order.Status,
			formatCSVTime(order.CreatedAt),
			executedAt,
			executedPrice,
		})
	}

	return writeCSVFile(s.backend.path(ordersFile), orderHeader, rows)
}

// parseOrderRow разбирает одну строку orders.csv
func parseOrderRow(record []string) (*models.Order, error) {
	id, err := strconv.Atoi(record[0])
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}

	targetPrice, err := parseCSVFloat(record[4])
	if err != nil {
		return nil, fmt.Errorf("invalid target_price: %w", err)
	}

	quantity, err := parseCSVFloat(record[5])
	if err != nil {
		return nil, fmt.Errorf("invalid quantity: %w", err)
	}

	createdAt, err := parseCSVTime(record[7])
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}

	order := &models.Order{
		ID:          id,
		Username:    record[1],
		Ticker:      record[2],
		Side:        record[3],
		TargetPrice: targetPrice,
		Quantity:    quantity,
		Status:      record[6],
		CreatedAt:   createdAt,
	}

	if record[8] != "" {
		executedAt, err := parseCSVTime(record[8])
		if err != nil {
			return nil, fmt.Errorf("invalid executed_at: %w", err)
		}
		order.ExecutedAt = &executedAt
	}

	if record[9] != "" {
		executedPrice, err := parseCSVFloat(record[9])
		if err != nil {
			return nil, fmt.Errorf("invalid executed_price: %w", err)
		}
		order.ExecutedPrice = &executedPrice
	}

	return order, nil
}
