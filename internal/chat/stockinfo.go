package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrTickerUnknown - сервис рыночных данных не знает такого тикера
var ErrTickerUnknown = errors.New("unknown ticker")

// StockInfo - сводка по тикеру из сервиса рыночных данных
type StockInfo struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previous_close"`
	Change        float64 `json:"change"`
	ChangePct     float64 `json:"change_pct"`
}

// StockInfoClient - клиент внутреннего сервиса рыночных данных
// (GET /info/{ticker})
type StockInfoClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewStockInfoClient создает новый клиент сервиса рыночных данных.
// baseURL - адрес сервиса, например http://localhost:5001
func NewStockInfoClient(baseURL string) *StockInfoClient {
	return &StockInfoClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetInfo получает сводку по тикеру
func (c *StockInfoClient) GetInfo(ctx context.Context, ticker string) (*StockInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/info/"+ticker, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create stock info request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stock info request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrTickerUnknown, ticker)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("stock info request failed: status %d", resp.StatusCode)
	}

	var info StockInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode stock info: %w", err)
	}
	return &info, nil
}
