package models

import "time"

// Order представляет условный ордер пользователя.
// Ордер создаётся в статусе pending и исполняется ботом,
// когда текущая цена достигает целевой.
type Order struct {
	ID            int        `json:"id" db:"id"`
	Username      string     `json:"username" db:"username"`
	Ticker        string     `json:"ticker" db:"ticker"`               // AAPL, MSFT, ...
	Side          string     `json:"side" db:"side"`                   // buy, sell
	TargetPrice   float64    `json:"target_price" db:"target_price"`   // целевая цена срабатывания
	Quantity      float64    `json:"quantity" db:"quantity"`           // количество акций (дробное допустимо)
	Status        string     `json:"status" db:"status"`               // pending, executed, cancelled
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	ExecutedAt    *time.Time `json:"executed_at,omitempty" db:"executed_at"`
	ExecutedPrice *float64   `json:"executed_price,omitempty" db:"executed_price"` // фактическая цена исполнения
}

// Стороны ордера
const (
	OrderSideBuy  = "buy"
	OrderSideSell = "sell"
)

// Статусы ордера
const (
	OrderStatusPending   = "pending"
	OrderStatusExecuted  = "executed"
	OrderStatusCancelled = "cancelled"
)

// IsTerminal возвращает true для исполненных и отменённых ордеров.
// Терминальные ордера неизменяемы.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusExecuted || o.Status == OrderStatusCancelled
}

// Matches проверяет условие срабатывания ордера по текущей цене:
// buy исполняется при price <= target, sell при price >= target.
func (o *Order) Matches(price float64) bool {
	switch o.Side {
	case OrderSideBuy:
		return price <= o.TargetPrice
	case OrderSideSell:
		return price >= o.TargetPrice
	default:
		return false
	}
}
