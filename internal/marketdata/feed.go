// Package marketdata предоставляет унифицированный интерфейс к источникам
// рыночных котировок.
package marketdata

import (
	"context"
	"errors"
	"time"
)

// Ошибки источника котировок
var (
	// ErrTickerNotFound - источник не знает такого тикера
	ErrTickerNotFound = errors.New("ticker not found")

	// ErrNoData - тикер существует, но данных за запрошенный период нет
	ErrNoData = errors.New("no market data available")
)

// PriceFeed определяет унифицированный интерфейс источника котировок.
// Реализации: YahooClient (реальные данные), StaticFeed (тесты).
type PriceFeed interface {
	// GetQuote получает сводку по тикеру: текущая цена, закрытие
	// предыдущего дня, валюта, название компании
	GetQuote(ctx context.Context, ticker string) (*Quote, error)

	// GetCurrentPrice получает текущую цену тикера
	GetCurrentPrice(ctx context.Context, ticker string) (float64, error)

	// GetHistory получает дневные цены закрытия за период [start, end]
	GetHistory(ctx context.Context, ticker string, start, end time.Time) ([]*PricePoint, error)

	// GetDividends получает дивидендные выплаты начиная с since
	GetDividends(ctx context.Context, ticker string, since time.Time) ([]*Dividend, error)
}

// Quote - сводка по тикеру
type Quote struct {
	Ticker        string    `json:"ticker"`
	Name          string    `json:"name,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_pct"`
	Timestamp     time.Time `json:"timestamp"`
}

// PricePoint - одна точка дневной истории цен
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Dividend - одна дивидендная выплата
type Dividend struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}
