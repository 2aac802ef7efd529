package storage

import (
	"errors"
	"time"

	"github.com/niclashart/Streamlit-Stock-App/internal/models"
)

// Общие ошибки хранилищ.
// Оба бэкенда (postgres и csv) возвращают одни и те же sentinel-ошибки,
// чтобы сервисный слой не зависел от выбранного STORAGE_TYPE.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderNotPending  = errors.New("order is not pending")
	ErrPositionNotFound = errors.New("position not found")
)

// UserStore - работа с учётными записями
type UserStore interface {
	// Create сохраняет нового пользователя.
	// Возвращает ErrUserExists при нарушении уникальности username.
	Create(user *models.User) error

	// GetByUsername возвращает пользователя по имени
	GetByUsername(username string) (*models.User, error)

	// Exists проверяет существование пользователя
	Exists(username string) (bool, error)

	// UpdatePassword обновляет хеш пароля
	UpdatePassword(username, passwordHash string) error
}

// OrderStore - работа с ордерами
type OrderStore interface {
	// Create сохраняет новый ордер и заполняет order.ID
	Create(order *models.Order) error

	// GetByID возвращает ордер по ID
	GetByID(id int) (*models.Order, error)

	// GetByUsername возвращает все ордера пользователя (новые первыми)
	GetByUsername(username string) ([]*models.Order, error)

	// GetPending возвращает все pending ордера всех пользователей
	GetPending() ([]*models.Order, error)

	// GetByUsernameAndStatus возвращает ордера пользователя с заданным статусом
	GetByUsernameAndStatus(username, status string) ([]*models.Order, error)

	// MarkExecuted переводит pending ордер в executed с фактической
	// ценой и временем исполнения. Для не-pending ордера возвращает
	// ErrOrderNotPending: терминальные ордера неизменяемы.
	MarkExecuted(id int, executedPrice float64, executedAt time.Time) error

	// MarkCancelled переводит pending ордер в cancelled.
	// Для не-pending ордера возвращает ErrOrderNotPending.
	MarkCancelled(id int) error

	// CountByStatus возвращает количество ордеров со статусом
	CountByStatus(status string) (int, error)
}

// PositionStore - работа с позициями портфеля
type PositionStore interface {
	// GetByUsername возвращает все позиции пользователя
	GetByUsername(username string) ([]*models.Position, error)

	// Get возвращает позицию пользователя по тикеру
	Get(username, ticker string) (*models.Position, error)

	// Upsert создаёт позицию или заменяет существующую (username, ticker)
	Upsert(position *models.Position) error

	// Remove удаляет позицию. Возвращает ErrPositionNotFound если её нет.
	Remove(username, ticker string) error
}

// Store объединяет все хранилища одного бэкенда
type Store struct {
	Users     UserStore
	Orders    OrderStore
	Positions PositionStore

	closeFn func() error
}

// Close освобождает ресурсы бэкенда (соединение с БД).
// Для csv-бэкенда является no-op.
func (s *Store) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}
