package service

import (
	"errors"

	"go.uber.org/zap"

	"github.com/niclashart/Streamlit-Stock-App/internal/models"
	"github.com/niclashart/Streamlit-Stock-App/internal/storage"
	"github.com/niclashart/Streamlit-Stock-App/pkg/utils"
)

// Ошибки сервиса ордеров
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotPending = errors.New("only pending orders can be cancelled")
	ErrNotOrderOwner   = errors.New("order belongs to another user")
	ErrInvalidStatus   = errors.New("invalid order status filter")
)

// OrderService - бизнес-логика лимитных ордеров
type OrderService struct {
	orders storage.OrderStore
	logger *zap.Logger
}

// NewOrderService создает новый экземпляр сервиса ордеров
func NewOrderService(orders storage.OrderStore, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders: orders,
		logger: logger,
	}
}

// CreateOrder создает новый лимитный ордер
// Выполняет:
// 1. Валидацию тикера, стороны, цены и количества
// 2. Нормализацию тикера (верхний регистр)
// 3. Сохранение со статусом pending
//
// Статус навязывается сервисом: ордер не может родиться исполненным,
// даже если текущая цена уже удовлетворяет условию. Исполняет только бот.
func (s *OrderService) CreateOrder(username, ticker, side string, targetPrice, quantity float64) (*models.Order, error) {
	// 1. Валидация
	if err := utils.ValidateTicker(ticker); err != nil {
		return nil, err
	}
	if err := utils.ValidateSide(side); err != nil {
		return nil, err
	}
	if err := utils.ValidatePrice(targetPrice); err != nil {
		return nil, err
	}
	if err := utils.ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	// 2-3. Нормализация и сохранение
	order := &models.Order{
		Username:    username,
		Ticker:      utils.NormalizeTicker(ticker),
		Side:        side,
		TargetPrice: targetPrice,
		Quantity:    quantity,
		Status:      models.OrderStatusPending,
	}

	if err := s.orders.Create(order); err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.Int("order_id", order.ID),
		zap.String("username", username),
		zap.String("ticker", order.Ticker),
		zap.String("side", order.Side),
		zap.Float64("target_price", order.TargetPrice),
		zap.Float64("quantity", order.Quantity))

	return order, nil
}

// GetOrders возвращает ордера пользователя, опционально фильтруя по статусу
func (s *OrderService) GetOrders(username, status string) ([]*models.Order, error) {
	if status == "" {
		return s.orders.GetByUsername(username)
	}

	switch status {
	case models.OrderStatusPending, models.OrderStatusExecuted, models.OrderStatusCancelled:
	default:
		return nil, ErrInvalidStatus
	}

	return s.orders.GetByUsernameAndStatus(username, status)
}

// GetOrder возвращает ордер пользователя по ID с проверкой владельца
func (s *OrderService) GetOrder(username string, id int) (*models.Order, error) {
	order, err := s.orders.GetByID(id)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.Username != username {
		return nil, ErrNotOrderOwner
	}

	return order, nil
}

// CancelOrder отменяет pending ордер пользователя
// Выполняет:
// 1. Проверку существования и владельца
// 2. Перевод в cancelled (только из pending)
func (s *OrderService) CancelOrder(username string, id int) (*models.Order, error) {
	// 1. Проверка владельца
	order, err := s.GetOrder(username, id)
	if err != nil {
		return nil, err
	}

	// 2. Отмена
	if err := s.orders.MarkCancelled(order.ID); err != nil {
		if errors.Is(err, storage.ErrOrderNotPending) {
			return nil, ErrOrderNotPending
		}
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	s.logger.Info("order cancelled",
		zap.Int("order_id", order.ID),
		zap.String("username", username))

	order.Status = models.OrderStatusCancelled
	return order, nil
}
