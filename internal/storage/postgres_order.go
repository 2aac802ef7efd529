package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/niclashart/Streamlit-Stock-App/internal/models"
)

// PostgresOrderStore - работа с таблицей orders
type PostgresOrderStore struct {
	db *sql.DB
}

// NewPostgresOrderStore создает новый экземпляр хранилища ордеров
func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

const orderColumns = `id, username, ticker, side, target_price, quantity, status, created_at, executed_at, executed_price`

// Create сохраняет новый ордер и заполняет order.ID
func (s *PostgresOrderStore) Create(order *models.Order) error {
	query := `
		INSERT INTO orders (username, ticker, side, target_price, quantity, status, created_at, executed_at, executed_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	err := s.db.QueryRow(
		query,
		order.Username,
		order.Ticker,
		order.Side,
		order.TargetPrice,
		order.Quantity,
		order.Status,
		order.CreatedAt,
		order.ExecutedAt,
		order.ExecutedPrice,
	).Scan(&order.ID)

	if err != nil {
		return err
	}

	return nil
}

// GetByID возвращает ордер по ID
func (s *PostgresOrderStore) GetByID(id int) (*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1`

	order := &models.Order{}
	err := s.db.QueryRow(query, id).Scan(
		&order.ID,
		&order.Username,
		&order.Ticker,
		&order.Side,
		&order.TargetPrice,
		&order.Quantity,
		&order.Status,
		&order.CreatedAt,
		&order.ExecutedAt,
		&order.ExecutedPrice,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return order, nil
}

// GetByUsername возвращает все ордера пользователя (новые первыми)
func (s *PostgresOrderStore) GetByUsername(username string) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE username = $1
		ORDER BY created_at DESC`

	return s.queryOrders(query, username)
}

// GetPending возвращает все pending ордера всех пользователей.
// Используется ботом при каждом проходе проверки.
func (s *PostgresOrderStore) GetPending() ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = $1
		ORDER BY created_at ASC`

	return s.queryOrders(query, models.OrderStatusPending)
}

// GetByUsernameAndStatus возвращает ордера пользователя с заданным статусом
func (s *PostgresOrderStore) GetByUsernameAndStatus(username, status string) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE username = $1 AND status = $2
		ORDER BY created_at DESC`

	return s.queryOrders(query, username, status)
}

// MarkExecuted переводит pending ордер в executed.
// Условие status = 'pending' в WHERE гарантирует неизменяемость
// терминальных ордеров на уровне запроса.
func (s *PostgresOrderStore) MarkExecuted(id int, executedPrice float64, executedAt time.Time) error {
	query := `
		UPDATE orders
		SET status = $1, executed_price = $2, executed_at = $3
		WHERE id = $4 AND status = $5`

	result, err := s.db.Exec(query, models.OrderStatusExecuted, executedPrice, executedAt, id, models.OrderStatusPending)
	if err != nil {
		return err
	}

	return s.checkPendingUpdate(result, id)
}

// MarkCancelled переводит pending ордер в cancelled
func (s *PostgresOrderStore) MarkCancelled(id int) error {
	query := `
		UPDATE orders
		SET status = $1
		WHERE id = $2 AND status = $3`

	result, err := s.db.Exec(query, models.OrderStatusCancelled, id, models.OrderStatusPending)
	if err != nil {
		return err
	}

	return s.checkPendingUpdate(result, id)
}

// CountByStatus возвращает количество ордеров со статусом
func (s *PostgresOrderStore) CountByStatus(status string) (int, error) {
	query := `SELECT COUNT(*) FROM orders WHERE status = $1`

	var count int
	err := s.db.QueryRow(query, status).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// queryOrders выполняет SELECT и сканирует строки в слайс ордеров
func (s *PostgresOrderStore) queryOrders(query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		err := rows.Scan(
			&order.ID,
			&order.Username,
			&order.Ticker,
			&order.Side,
			&order.TargetPrice,
			&order.Quantity,
			&order.Status,
			&order.CreatedAt,
			&order.ExecutedAt,
			&order.ExecutedPrice,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// checkPendingUpdate различает "ордера нет" и "ордер уже терминальный"
// когда UPDATE ... AND status = 'pending' не затронул ни одной строки
func (s *PostgresOrderStore) checkPendingUpdate(result sql.Result, id int) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	// Ни одна строка не обновлена: либо ордера нет, либо он не pending
	var status string
	err = s.db.QueryRow(`SELECT status FROM orders WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return err
	}

	return ErrOrderNotPending
}
