package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/niclashart/Streamlit-Stock-App/pkg/ratelimit"
	"github.com/niclashart/Streamlit-Stock-App/pkg/retry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultYahooBaseURL - продакшен эндпоинт chart API
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooClient - клиент chart API Yahoo Finance.
//
// Все запросы идут через общий rate limiter (Yahoo банит агрессивных
// клиентов) и повторяются при сетевых ошибках. Ошибка "тикер не найден"
// помечается как permanent и не повторяется.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.RateLimiter
	retryCfg   retry.Config
	logger     *zap.Logger
}

// YahooOption настраивает YahooClient
type YahooOption func(*YahooClient)

// WithBaseURL заменяет базовый URL (httptest в тестах)
func WithBaseURL(baseURL string) YahooOption {
	return func(c *YahooClient) { c.baseURL = baseURL }
}

// WithHTTPClient заменяет HTTP клиент
func WithHTTPClient(client *http.Client) YahooOption {
	return func(c *YahooClient) { c.httpClient = client }
}

// WithRateLimit задаёт лимит запросов в секунду
func WithRateLimit(rate, burst float64) YahooOption {
	return func(c *YahooClient) { c.limiter = ratelimit.NewRateLimiter(rate, burst) }
}

// NewYahooClient создаёт клиент Yahoo Finance
func NewYahooClient(logger *zap.Logger, opts ...YahooOption) *YahooClient {
	client := &YahooClient{
		baseURL:    DefaultYahooBaseURL,
		httpClient: NewHTTPClient(DefaultHTTPClientConfig()),
		limiter:    ratelimit.NewRateLimiter(5, 10),
		retryCfg:   retry.NetworkConfig(),
		logger:     logger,
	}
	client.retryCfg.RetryIf = retry.RetryIfNotPermanent

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// chartResponse - ответ эндпоинта /v8/finance/chart/{ticker}
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				LongName           string  `json:"longName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetQuote получает сводку по тикеру из метаданных графика
func (c *YahooClient) GetQuote(ctx context.Context, ticker string) (*Quote, error) {
	params := url.Values{
		"range":    {"5d"},
		"interval": {"1d"},
	}

	resp, err := c.fetchChart(ctx, ticker, params)
	if err != nil {
		return nil, err
	}

	meta := resp.Chart.Result[0].Meta
	quote := &Quote{
		Ticker:        meta.Symbol,
		Name:          meta.LongName,
		Currency:      meta.Currency,
		Price:         meta.RegularMarketPrice,
		PreviousClose: meta.PreviousClose,
		Timestamp:     time.Unix(meta.RegularMarketTime, 0).UTC(),
	}
	if meta.PreviousClose != 0 {
		quote.Change = meta.RegularMarketPrice - meta.PreviousClose
		quote.ChangePct = quote.Change / meta.PreviousClose * 100
	}

	return quote, nil
}

// GetCurrentPrice получает текущую цену тикера
func (c *YahooClient) GetCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	quote, err := c.GetQuote(ctx, ticker)
	if err != nil {
		return 0, err
	}
	if quote.Price == 0 {
		return 0, ErrNoData
	}
	return quote.Price, nil
}

// GetHistory получает дневные свечи за период [start, end]
func (c *YahooClient) GetHistory(ctx context.Context, ticker string, start, end time.Time) ([]*PricePoint, error) {
	params := url.Values{
		"period1":  {strconv.FormatInt(start.Unix(), 10)},
		"period2":  {strconv.FormatInt(end.Unix(), 10)},
		"interval": {"1d"},
	}

	resp, err := c.fetchChart(ctx, ticker, params)
	if err != nil {
		return nil, err
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, ErrNoData
	}
	quote := result.Indicators.Quote[0]

	points := make([]*PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Yahoo возвращает null для дней без торгов
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}

		point := &PricePoint{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			point.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			point.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			point.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			point.Volume = *quote.Volume[i]
		}
		points = append(points, point)
	}

	if len(points) == 0 {
		return nil, ErrNoData
	}

	return points, nil
}

// GetDividends получает дивидендные выплаты начиная с since
func (c *YahooClient) GetDividends(ctx context.Context, ticker string, since time.Time) ([]*Dividend, error) {
	params := url.Values{
		"period1":  {strconv.FormatInt(since.Unix(), 10)},
		"period2":  {strconv.FormatInt(time.Now().Unix(), 10)},
		"interval": {"1d"},
		"events":   {"div"},
	}

	resp, err := c.fetchChart(ctx, ticker, params)
	if err != nil {
		return nil, err
	}

	events := resp.Chart.Result[0].Events.Dividends

	dividends := make([]*Dividend, 0, len(events))
	for _, event := range events {
		dividends = append(dividends, &Dividend{
			Date:   time.Unix(event.Date, 0).UTC(),
			Amount: event.Amount,
		})
	}

	sort.Slice(dividends, func(i, j int) bool {
		return dividends[i].Date.Before(dividends[j].Date)
	})

	return dividends, nil
}

// fetchChart выполняет запрос к chart API с rate limiting и retry
func (c *YahooClient) fetchChart(ctx context.Context, ticker string, params url.Values) (*chartResponse, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	return retry.DoWithResult(ctx, func() (*chartResponse, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, retry.Permanent(err)
		}
		// Yahoo отклоняет запросы без User-Agent
		req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; portfolio-dashboard/1.0)")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("chart request failed",
				zap.String("ticker", ticker),
				zap.Error(err))
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, retry.Permanent(fmt.Errorf("%w: %s", ErrTickerNotFound, ticker))
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("chart API returned status %d", resp.StatusCode)
		}

		var chart chartResponse
		if err := json.Unmarshal(body, &chart); err != nil {
			return nil, fmt.Errorf("failed to decode chart response: %w", err)
		}

		if chart.Chart.Error != nil {
			return nil, retry.Permanent(fmt.Errorf("%w: %s", ErrTickerNotFound, chart.Chart.Error.Description))
		}
		if len(chart.Chart.Result) == 0 {
			return nil, retry.Permanent(fmt.Errorf("%w: %s", ErrTickerNotFound, ticker))
		}

		return &chart, nil
	}, c.retryCfg)
}
