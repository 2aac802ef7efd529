package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/niclashart/Streamlit-Stock-App/internal/marketdata"
	"github.com/niclashart/Streamlit-Stock-App/internal/models"
	"github.com/niclashart/Streamlit-Stock-App/internal/storage"
	"github.com/niclashart/Streamlit-Stock-App/pkg/utils"
)

// Ошибки сервиса портфеля
var (
	ErrPositionNotFound = errors.New("position not found")
	ErrInsufficientQty  = errors.New("not enough shares in position")
)

// DividendsSince - начало периода дивидендной истории
var DividendsSince = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

// PortfolioService - агрегатор портфеля.
//
// Таблица позиций является единственным источником истины о составе
// портфеля: исполненные ордера изменяют её через ApplyExecution,
// а все рыночные метрики (стоимость, P&L) вычисляются на лету
// из позиций и текущих котировок.
type PortfolioService struct {
	positions storage.PositionStore
	feed      marketdata.PriceFeed
	logger    *zap.Logger
}

// NewPortfolioService создает новый экземпляр сервиса портфеля
func NewPortfolioService(positions storage.PositionStore, feed marketdata.PriceFeed, logger *zap.Logger) *PortfolioService {
	return &PortfolioService{
		positions: positions,
		feed:      feed,
		logger:    logger,
	}
}

// AddLot добавляет лот к позиции пользователя
// Выполняет:
// 1. Валидацию параметров
// 2. Слияние с существующей позицией: количество суммируется,
//    цена входа пересчитывается как средневзвешенная
// 3. Сохранение
//
// Пример слияния: 10 акций по 100 + 10 акций по 200 = 20 акций по 150.
func (s *PortfolioService) AddLot(username, ticker string, shares, price float64, purchaseDate time.Time) (*models.Position, error) {
	// 1. Валидация
	if err := utils.ValidateTicker(ticker); err != nil {
		return nil, err
	}
	if err := utils.ValidateQuantity(shares); err != nil {
		return nil, err
	}
	if err := utils.ValidatePrice(price); err != nil {
		return nil, err
	}
	ticker = utils.NormalizeTicker(ticker)

	// 2. Слияние с существующей позицией
	position, err := s.positions.Get(username, ticker)
	if err != nil {
		if !errors.Is(err, storage.ErrPositionNotFound) {
			return nil, err
		}
		position = &models.Position{
			Username:     username,
			Ticker:       ticker,
			Shares:       shares,
			EntryPrice:   price,
			PurchaseDate: purchaseDate,
		}
	} else {
		position.EntryPrice = utils.WeightedAverageCost(position.Shares, position.EntryPrice, shares, price)
		position.Shares += shares
		position.PurchaseDate = purchaseDate
	}

	// 3. Сохранение
	if err := s.positions.Upsert(position); err != nil {
		return nil, err
	}

	s.logger.Info("lot added",
		zap.String("username", username),
		zap.String("ticker", ticker),
		zap.Float64("shares", shares),
		zap.Float64("price", price),
		zap.Float64("avg_price", position.EntryPrice))

	return position, nil
}

// ReduceLot уменьшает позицию на shares акций.
// Цена входа при продаже не меняется. Если остаток <= 0,
// позиция удаляется: тикер пропадает из holdings, но история
// ордеров по нему сохраняется.
func (s *PortfolioService) ReduceLot(username, ticker string, shares float64) error {
	if err := utils.ValidateQuantity(shares); err != nil {
		return err
	}
	ticker = utils.NormalizeTicker(ticker)

	position, err := s.positions.Get(username, ticker)
	if err != nil {
		if errors.Is(err, storage.ErrPositionNotFound) {
			return ErrPositionNotFound
		}
		return err
	}

	remaining := position.Shares - shares
	if remaining <= 0 {
		if err := s.positions.Remove(username, ticker); err != nil {
			return err
		}
		s.logger.Info("position closed",
			zap.String("username", username),
			zap.String("ticker", ticker))
		return nil
	}

	position.Shares = remaining
	if err := s.positions.Upsert(position); err != nil {
		return err
	}

	s.logger.Info("position reduced",
		zap.String("username", username),
		zap.String("ticker", ticker),
		zap.Float64("remaining", remaining))

	return nil
}

// RemovePosition удаляет позицию целиком
func (s *PortfolioService) RemovePosition(username, ticker string) error {
	ticker = utils.NormalizeTicker(ticker)

	if err := s.positions.Remove(username, ticker); err != nil {
		if errors.Is(err, storage.ErrPositionNotFound) {
			return ErrPositionNotFound
		}
		return err
	}

	return nil
}

// ApplyExecution отражает исполненный ордер в портфеле:
// buy добавляет лот по фактической цене исполнения,
// sell уменьшает позицию.
//
// Продажа без позиции допустима (пользователь мог купить акции
// вне приложения) и просто не меняет портфель.
func (s *PortfolioService) ApplyExecution(order *models.Order, executedPrice float64, executedAt time.Time) error {
	switch order.Side {
	case models.OrderSideBuy:
		_, err := s.AddLot(order.Username, order.Ticker, order.Quantity, executedPrice, executedAt)
		return err
	case models.OrderSideSell:
		err := s.ReduceLot(order.Username, order.Ticker, order.Quantity)
		if errors.Is(err, ErrPositionNotFound) {
			s.logger.Warn("sell executed without matching position",
				zap.String("username", order.Username),
				zap.String("ticker", order.Ticker))
			return nil
		}
		return err
	default:
		return errors.New("unknown order side: " + order.Side)
	}
}

// Holdings возвращает строки портфеля с рыночными метриками.
// Недоступность котировки одного тикера не валит весь портфель:
// строка помечается Priced=false и рыночные поля остаются нулевыми.
func (s *PortfolioService) Holdings(ctx context.Context, username string) ([]*models.Holding, error) {
	positions, err := s.positions.GetByUsername(username)
	if err != nil {
		return nil, err
	}

	holdings := make([]*models.Holding, 0, len(positions))
	for _, position := range positions {
		// Закрытые позиции не должны попадать в выдачу
		if position.Shares <= 0 {
			continue
		}

		holding := &models.Holding{
			Ticker:   position.Ticker,
			Quantity: position.Shares,
			AvgPrice: position.EntryPrice,
		}

		price, err := s.feed.GetCurrentPrice(ctx, position.Ticker)
		if err != nil {
			s.logger.Warn("price unavailable for holding",
				zap.String("ticker", position.Ticker),
				zap.Error(err))
		} else {
			costBasis := position.Shares * position.EntryPrice
			holding.Priced = true
			holding.CurrentPrice = price
			holding.CurrentValue = position.Shares * price
			holding.ProfitLoss = utils.GainLoss(position.Shares, position.EntryPrice, price)
			holding.ProfitLossPct = utils.GainLossPercent(costBasis, holding.CurrentValue)
		}

		holdings = append(holdings, holding)
	}

	return holdings, nil
}

// Summary возвращает итоговые показатели портфеля.
// Тикеры без котировки исключаются из суммарных метрик,
// но присутствуют в списке holdings с Priced=false.
func (s *PortfolioService) Summary(ctx context.Context, username string) (*models.PortfolioSummary, error) {
	holdings, err := s.Holdings(ctx, username)
	if err != nil {
		return nil, err
	}

	summary := &models.PortfolioSummary{
		Username: username,
		Holdings: holdings,
	}

	for _, holding := range holdings {
		if !holding.Priced {
			continue
		}
		summary.TotalCost += holding.Quantity * holding.AvgPrice
		summary.TotalValue += holding.CurrentValue
	}

	summary.ProfitLoss = summary.TotalValue - summary.TotalCost
	summary.ProfitLossPct = utils.GainLossPercent(summary.TotalCost, summary.TotalValue)

	return summary, nil
}

// DividendIncome возвращает дивидендный доход по каждому тикеру портфеля:
// сумма выплат с 2015 года, умноженная на текущее количество акций.
// Тикеры, по которым история недоступна, пропускаются.
func (s *PortfolioService) DividendIncome(ctx context.Context, username string) (map[string]float64, error) {
	positions, err := s.positions.GetByUsername(username)
	if err != nil {
		return nil, err
	}

	income := make(map[string]float64, len(positions))
	for _, position := range positions {
		dividends, err := s.feed.GetDividends(ctx, position.Ticker, DividendsSince)
		if err != nil {
			s.logger.Warn("dividend history unavailable",
				zap.String("ticker", position.Ticker),
				zap.Error(err))
			continue
		}

		total := 0.0
		for _, dividend := range dividends {
			total += dividend.Amount
		}
		income[position.Ticker] = utils.Round2(total * position.Shares)
	}

	return income, nil
}
