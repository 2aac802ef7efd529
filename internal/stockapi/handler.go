// Package stockapi реализует HTTP сервис рыночных данных: тонкую
// обертку над источником котировок для фронтенда и чат-бота.
package stockapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/niclashart/Streamlit-Stock-App/internal/marketdata"
	"github.com/niclashart/Streamlit-Stock-App/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultDividendsSince - дивиденды по умолчанию считаются с этой даты
var DefaultDividendsSince = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

// ErrorResponse - тело ошибки сервиса рыночных данных
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HistoryResponse - история цен по нескольким тикерам
type HistoryResponse struct {
	Start  string                              `json:"start"`
	End    string                              `json:"end"`
	Series map[string][]*marketdata.PricePoint `json:"series"`
	Errors map[string]string                   `json:"errors,omitempty"` // тикер -> причина пропуска
}

// Handler отвечает за endpoints сервиса рыночных данных
//
// Endpoints:
// - GET /info/{ticker}      - сводка по тикеру
// - GET /price/{ticker}     - только текущая цена
// - GET /history?tickers=A,B&start=YYYY-MM-DD&end=YYYY-MM-DD - дневная история
// - GET /dividends/{ticker} - дивидендные выплаты
// - GET /health             - проверка живости
type Handler struct {
	feed   marketdata.PriceFeed
	logger *zap.Logger
}

// NewHandler создает новый Handler с внедрением зависимостей
func NewHandler(feed marketdata.PriceFeed, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{feed: feed, logger: logger}
}

// NewRouter собирает маршруты сервиса рыночных данных
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/info/{ticker}", h.GetInfo).Methods("GET")
	router.HandleFunc("/price/{ticker}", h.GetPrice).Methods("GET")
	router.HandleFunc("/history", h.GetHistory).Methods("GET")
	router.HandleFunc("/dividends/{ticker}", h.GetDividends).Methods("GET")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}

// GetInfo возвращает сводку по тикеру
// GET /info/{ticker}
//
// Response:
// - 200 OK: сводка (цена, предыдущее закрытие, изменение, название)
// - 404 Not Found: источник не знает такого тикера
func (h *Handler) GetInfo(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(mux.Vars(r)["ticker"])
	if err := utils.ValidateTicker(ticker); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_ticker", err.Error())
		return
	}

	quote, err := h.feed.GetQuote(r.Context(), ticker)
	if err != nil {
		h.respondFeedError(w, ticker, err)
		return
	}

	h.respondJSON(w, http.StatusOK, quote)
}

// GetPrice возвращает только текущую цену тикера
// GET /price/{ticker}
//
// Response: {"ticker": "AAPL", "price": 165.4}
func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(mux.Vars(r)["ticker"])
	if err := utils.ValidateTicker(ticker); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_ticker", err.Error())
		return
	}

	price, err := h.feed.GetCurrentPrice(r.Context(), ticker)
	if err != nil {
		h.respondFeedError(w, ticker, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"price":  price,
	})
}

// GetHistory возвращает дневные цены закрытия по нескольким тикерам.
// GET /history?tickers=AAPL,MSFT&start=2024-01-01&end=2024-06-01
//
// end по умолчанию - сегодня. Ошибка по одному тикеру не валит весь
// ответ: тикер попадает в errors, остальные серии отдаются.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	tickersParam := r.URL.Query().Get("tickers")
	if tickersParam == "" {
		h.respondError(w, http.StatusBadRequest, "missing_tickers", "tickers query parameter is required")
		return
	}

	startParam := r.URL.Query().Get("start")
	if startParam == "" {
		h.respondError(w, http.StatusBadRequest, "missing_start", "start query parameter is required (YYYY-MM-DD)")
		return
	}
	start, err := utils.ParseDate(startParam)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_start", err.Error())
		return
	}

	end := time.Now()
	if endParam := r.URL.Query().Get("end"); endParam != "" {
		end, err = utils.ParseDate(endParam)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid_end", err.Error())
			return
		}
	}

	resp := &HistoryResponse{
		Start:  utils.FormatDate(start),
		End:    utils.FormatDate(end),
		Series: make(map[string][]*marketdata.PricePoint),
	}

	for _, raw := range strings.Split(tickersParam, ",") {
		ticker := utils.NormalizeTicker(raw)
		if ticker == "" {
			continue
		}
		if err := utils.ValidateTicker(ticker); err != nil {
			if resp.Errors == nil {
				resp.Errors = make(map[string]string)
			}
			resp.Errors[ticker] = err.Error()
			continue
		}

		points, err := h.feed.GetHistory(r.Context(), ticker, start, end)
		if err != nil {
			h.logger.Warn("history lookup failed",
				zap.String("ticker", ticker),
				zap.Error(err))
			if resp.Errors == nil {
				resp.Errors = make(map[string]string)
			}
			resp.Errors[ticker] = err.Error()
			continue
		}
		resp.Series[ticker] = points
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GetDividends возвращает дивидендные выплаты тикера
// GET /dividends/{ticker}?since=YYYY-MM-DD
//
// since по умолчанию - 2015-01-01.
func (h *Handler) GetDividends(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(mux.Vars(r)["ticker"])
	if err := utils.ValidateTicker(ticker); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_ticker", err.Error())
		return
	}

	since := DefaultDividendsSince
	if sinceParam := r.URL.Query().Get("since"); sinceParam != "" {
		parsed, err := utils.ParseDate(sinceParam)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid_since", err.Error())
			return
		}
		since = parsed
	}

	dividends, err := h.feed.GetDividends(r.Context(), ticker, since)
	if err != nil {
		h.respondFeedError(w, ticker, err)
		return
	}

	if dividends == nil {
		dividends = []*marketdata.Dividend{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":    ticker,
		"since":     utils.FormatDate(since),
		"dividends": dividends,
	})
}

// respondFeedError переводит ошибки источника котировок в HTTP статусы
func (h *Handler) respondFeedError(w http.ResponseWriter, ticker string, err error) {
	switch {
	case errors.Is(err, marketdata.ErrTickerNotFound):
		h.respondError(w, http.StatusNotFound, "ticker_not_found", "No data found for ticker "+ticker)
	case errors.Is(err, marketdata.ErrNoData):
		h.respondError(w, http.StatusNotFound, "no_data", "No market data available for ticker "+ticker)
	default:
		h.logger.Error("market data request failed",
			zap.String("ticker", ticker),
			zap.Error(err))
		h.respondError(w, http.StatusBadGateway, "upstream_error", "Market data provider request failed")
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, code, message string) {
	h.respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}
