package models

import "time"

// Position представляет позицию портфеля: сколько акций тикера
// держит пользователь и по какой средней цене они куплены.
// На пару (username, ticker) хранится одна строка; повторные покупки
// сливаются со средневзвешенной ценой входа.
type Position struct {
	Username     string    `json:"username" db:"username"`
	Ticker       string    `json:"ticker" db:"ticker"`
	Shares       float64   `json:"shares" db:"shares"`
	EntryPrice   float64   `json:"entry_price" db:"entry_price"` // средневзвешенная цена покупки
	PurchaseDate time.Time `json:"purchase_date" db:"purchase_date"`
}

// Holding - производная строка портфеля с рыночными метриками.
// Не хранится: вычисляется агрегатором из позиций и текущих котировок.
type Holding struct {
	Ticker        string  `json:"ticker"`
	Quantity      float64 `json:"quantity"`
	AvgPrice      float64 `json:"avg_price"` // cost basis
	CurrentPrice  float64 `json:"current_price"`
	CurrentValue  float64 `json:"current_value"`
	ProfitLoss    float64 `json:"profit_loss"`
	ProfitLossPct float64 `json:"profit_loss_pct"`
	Priced        bool    `json:"priced"` // false если котировка недоступна в этом цикле
}

// PortfolioSummary - итоговые показатели портфеля пользователя
type PortfolioSummary struct {
	Username      string     `json:"username"`
	Holdings      []*Holding `json:"holdings"`
	TotalCost     float64    `json:"total_cost"`
	TotalValue    float64    `json:"total_value"`
	ProfitLoss    float64    `json:"total_profit_loss"`
	ProfitLossPct float64    `json:"total_profit_loss_pct"`
}
