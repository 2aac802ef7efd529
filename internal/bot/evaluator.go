// Package bot реализует исполнение лимитных ордеров: периодическую или
// запускаемую по запросу проверку pending ордеров против текущих котировок.
package bot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/niclashart/Streamlit-Stock-App/internal/marketdata"
	"github.com/niclashart/Streamlit-Stock-App/internal/models"
	"github.com/niclashart/Streamlit-Stock-App/internal/storage"
)

// PortfolioUpdater отражает исполненный ордер в портфеле пользователя
type PortfolioUpdater interface {
	ApplyExecution(order *models.Order, executedPrice float64, executedAt time.Time) error
}

// Broadcaster рассылает уведомления подписчикам (WebSocket)
type Broadcaster interface {
	// BroadcastExecution - уведомление об одном исполненном ордере
	BroadcastExecution(exec *OrderExecution)

	// BroadcastBotStatus - итог завершённого прохода проверки
	BroadcastBotStatus(result *CheckResult)
}

// OrderExecution - отчёт об одном исполненном ордере
type OrderExecution struct {
	OrderID       int       `json:"order_id"`
	Username      string    `json:"username"`
	Ticker        string    `json:"ticker"`
	Side          string    `json:"side"`
	TargetPrice   float64   `json:"target_price"`
	Quantity      float64   `json:"quantity"`
	ExecutedPrice float64   `json:"executed_price"`
	ExecutedAt    time.Time `json:"executed_at"`
}

// CheckResult - итог одного прохода проверки
type CheckResult struct {
	CheckedAt      time.Time         `json:"checked_at"`
	Pending        int               `json:"pending"`
	Executed       []*OrderExecution `json:"executed"`
	SkippedTickers []string          `json:"skipped_tickers,omitempty"`
}

// Evaluator - бот исполнения лимитных ордеров.
//
// Проход проверки:
// 1. Загрузка всех pending ордеров
// 2. Получение котировки по каждому тикеру (один запрос на тикер за проход)
// 3. Исполнение сработавших ордеров по текущей цене
// 4. Обновление портфеля и рассылка уведомлений
//
// Проходы сериализованы мьютексом: ручной запуск во время фонового
// прохода дождётся его окончания, ордер не может исполниться дважды.
type Evaluator struct {
	orders    storage.OrderStore
	feed      marketdata.PriceFeed
	portfolio PortfolioUpdater
	logger    *zap.Logger

	// Опциональный broadcaster (nil, если WebSocket не поднят)
	broadcaster Broadcaster

	checkMu sync.Mutex // сериализует проходы

	mu        sync.RWMutex
	lastCheck *CheckResult
	running   bool
}

// NewEvaluator создает новый экземпляр бота
func NewEvaluator(orders storage.OrderStore, feed marketdata.PriceFeed, portfolio PortfolioUpdater, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		orders:    orders,
		feed:      feed,
		portfolio: portfolio,
		logger:    logger,
	}
}

// SetBroadcaster подключает рассылку уведомлений об исполнениях.
// Вызывается после инициализации WebSocket hub
func (e *Evaluator) SetBroadcaster(b Broadcaster) {
	e.broadcaster = b
}

// CheckPendingOrders выполняет один проход проверки pending ордеров.
//
// Ошибка котировки по тикеру не прерывает проход: все ордера этого
// тикера пропускаются до следующего раза и остаются pending.
// Ошибка записи в хранилище прерывает проход и отдаётся вызывающему.
func (e *Evaluator) CheckPendingOrders(ctx context.Context) (*CheckResult, error) {
	e.checkMu.Lock()
	defer e.checkMu.Unlock()

	started := time.Now()
	defer func() {
		CheckDuration.Observe(time.Since(started).Seconds())
	}()
	ChecksTotal.Inc()

	// 1. Все pending ордера
	pending, err := e.orders.GetPending()
	if err != nil {
		return nil, err
	}

	result := &CheckResult{
		CheckedAt: started,
		Executed:  []*OrderExecution{},
	}

	// 2. Кэш котировок на один проход: одна цена на тикер,
	// неудавшиеся тикеры не запрашиваются повторно
	prices := make(map[string]float64)
	failed := make(map[string]bool)

	for _, order := range pending {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if failed[order.Ticker] {
			continue
		}

		price, ok := prices[order.Ticker]
		if !ok {
			price, err = e.feed.GetCurrentPrice(ctx, order.Ticker)
			if err != nil {
				e.logger.Warn("price lookup failed, skipping ticker this pass",
					zap.String("ticker", order.Ticker),
					zap.Error(err))
				PriceLookupErrors.WithLabelValues(order.Ticker).Inc()
				failed[order.Ticker] = true
				result.SkippedTickers = append(result.SkippedTickers, order.Ticker)
				continue
			}
			prices[order.Ticker] = price
		}

		// 3. Условие исполнения: buy при price <= target, sell при price >= target
		if !order.Matches(price) {
			continue
		}

		executedAt := time.Now()
		if err := e.orders.MarkExecuted(order.ID, price, executedAt); err != nil {
			// Ошибка записи прерывает проход: лучше не исполнить
			// вообще, чем исполнить и потерять факт исполнения
			return nil, err
		}

		OrdersExecuted.WithLabelValues(order.Side).Inc()

		exec := &OrderExecution{
			OrderID:       order.ID,
			Username:      order.Username,
			Ticker:        order.Ticker,
			Side:          order.Side,
			TargetPrice:   order.TargetPrice,
			Quantity:      order.Quantity,
			ExecutedPrice: price,
			ExecutedAt:    executedAt,
		}
		result.Executed = append(result.Executed, exec)

		e.logger.Info("order executed",
			zap.Int("order_id", order.ID),
			zap.String("username", order.Username),
			zap.String("ticker", order.Ticker),
			zap.String("side", order.Side),
			zap.Float64("target_price", order.TargetPrice),
			zap.Float64("executed_price", price))

		// 4. Портфель: ошибка обновления логируется, но ордер уже
		// исполнен и проход продолжается
		if err := e.portfolio.ApplyExecution(order, price, executedAt); err != nil {
			e.logger.Error("failed to apply execution to portfolio",
				zap.Int("order_id", order.ID),
				zap.Error(err))
		}

		if e.broadcaster != nil {
			e.broadcaster.BroadcastExecution(exec)
		}
	}

	result.Pending = len(pending) - len(result.Executed)
	PendingOrders.Set(float64(result.Pending))

	e.mu.Lock()
	e.lastCheck = result
	e.mu.Unlock()

	if e.broadcaster != nil {
		e.broadcaster.BroadcastBotStatus(result)
	}

	return result, nil
}

// Run запускает фоновые проходы с заданным интервалом.
// Блокирует до отмены контекста. Ошибки проходов логируются,
// цикл продолжается.
func (e *Evaluator) Run(ctx context.Context, interval time.Duration) {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	e.logger.Info("background order checks started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("background order checks stopped")
			return
		case <-ticker.C:
			if _, err := e.CheckPendingOrders(ctx); err != nil {
				e.logger.Error("order check pass failed", zap.Error(err))
			}
		}
	}
}

// LastCheck возвращает итог последнего прохода (nil, если проходов не было)
func (e *Evaluator) LastCheck() *CheckResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastCheck
}

// Running сообщает, запущен ли фоновый цикл
func (e *Evaluator) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}
