package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/niclashart/Streamlit-Stock-App/internal/models"
	"github.com/niclashart/Streamlit-Stock-App/internal/service"
	"github.com/niclashart/Streamlit-Stock-App/pkg/utils"
)

// PortfolioServiceInterface определяет операции портфеля для handlers
type PortfolioServiceInterface interface {
	Holdings(ctx context.Context, username string) ([]*models.Holding, error)
	Summary(ctx context.Context, username string) (*models.PortfolioSummary, error)
	AddLot(username, ticker string, shares, price float64, purchaseDate time.Time) (*models.Position, error)
	RemovePosition(username, ticker string) error
	DividendIncome(ctx context.Context, username string) (map[string]float64, error)
}

// PortfolioHandler отвечает за портфель пользователя
//
// Endpoints:
// - GET    /api/v1/portfolio/{username}                    - holdings с рыночными метриками
// - GET    /api/v1/portfolio/{username}/summary            - итоговые показатели
// - GET    /api/v1/portfolio/{username}/dividends          - дивидендный доход
// - POST   /api/v1/portfolio/{username}/positions          - ручное добавление лота
// - DELETE /api/v1/portfolio/{username}/positions/{ticker} - удаление позиции
type PortfolioHandler struct {
	portfolioService PortfolioServiceInterface
}

// NewPortfolioHandler создает новый PortfolioHandler с внедрением зависимостей
func NewPortfolioHandler(portfolioService PortfolioServiceInterface) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

// AddLotRequest - тело запроса на ручное добавление лота
type AddLotRequest struct {
	Ticker       string  `json:"ticker"`
	Shares       float64 `json:"shares"`
	Price        float64 `json:"price"`
	PurchaseDate string  `json:"purchase_date,omitempty"` // YYYY-MM-DD, default: сегодня
}

// GetHoldings возвращает строки портфеля
// GET /api/v1/portfolio/{username}
func (h *PortfolioHandler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	holdings, err := h.portfolioService.Holdings(r.Context(), username)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Failed to load portfolio", err.Error())
		return
	}

	if holdings == nil {
		holdings = []*models.Holding{}
	}
	respondWithJSON(w, http.StatusOK, holdings)
}

// GetSummary возвращает итоговые показатели портфеля
// GET /api/v1/portfolio/{username}/summary
func (h *PortfolioHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	summary, err := h.portfolioService.Summary(r.Context(), username)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Failed to build summary", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// GetDividends возвращает дивидендный доход по тикерам портфеля
// GET /api/v1/portfolio/{username}/dividends
func (h *PortfolioHandler) GetDividends(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	income, err := h.portfolioService.DividendIncome(r.Context(), username)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Failed to load dividends", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, income)
}

// AddPosition добавляет лот вручную (покупка вне приложения)
// POST /api/v1/portfolio/{username}/positions
//
// Request Body:
//
//	{
//	  "ticker": "AAPL",
//	  "shares": 10,
//	  "price": 150.0,
//	  "purchase_date": "2024-03-01"
//	}
func (h *PortfolioHandler) AddPosition(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	var req AddLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	purchaseDate := time.Now()
	if req.PurchaseDate != "" {
		parsed, err := utils.ParseDate(req.PurchaseDate)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid_date", err.Error(), "")
			return
		}
		purchaseDate = parsed
	}

	position, err := h.portfolioService.AddLot(username, req.Ticker, req.Shares, req.Price, purchaseDate)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_position", err.Error(), "")
		return
	}

	respondWithJSON(w, http.StatusCreated, position)
}

// RemovePosition удаляет позицию целиком
// DELETE /api/v1/portfolio/{username}/positions/{ticker}
func (h *PortfolioHandler) RemovePosition(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	err := h.portfolioService.RemovePosition(vars["username"], vars["ticker"])
	if err != nil {
		if errors.Is(err, service.ErrPositionNotFound) {
			respondWithError(w, http.StatusNotFound, "position_not_found", "Position not found", "")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Failed to remove position", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "position removed"})
}
