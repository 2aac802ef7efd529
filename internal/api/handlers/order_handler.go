package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/niclashart/Streamlit-Stock-App/internal/models"
	"github.com/niclashart/Streamlit-Stock-App/internal/service"
)

// OrderServiceInterface определяет операции с ордерами для handlers
type OrderServiceInterface interface {
	CreateOrder(username, ticker, side string, targetPrice, quantity float64) (*models.Order, error)
	GetOrders(username, status string) ([]*models.Order, error)
	GetOrder(username string, id int) (*models.Order, error)
	CancelOrder(username string, id int) (*models.Order, error)
}

// OrderHandler отвечает за лимитные ордера пользователя
//
// Endpoints:
// - GET  /api/v1/orders/{username}             - список ордеров (?status=)
// - POST /api/v1/orders/{username}             - создание ордера
// - GET  /api/v1/orders/{username}/{id}        - один ордер
// - POST /api/v1/orders/{username}/{id}/cancel - отмена ордера
type OrderHandler struct {
	orderService OrderServiceInterface
}

// NewOrderHandler создает новый OrderHandler с внедрением зависимостей
func NewOrderHandler(orderService OrderServiceInterface) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrderRequest - тело запроса на создание ордера
type CreateOrderRequest struct {
	Ticker      string  `json:"ticker"`       // AAPL
	Side        string  `json:"side"`         // buy | sell
	TargetPrice float64 `json:"target_price"` // лимитная цена
	Quantity    float64 `json:"quantity"`     // количество акций
}

// CreateOrder создает новый лимитный ордер
// POST /api/v1/orders/{username}
//
// Request Body:
//
//	{
//	  "ticker": "AAPL",
//	  "side": "buy",
//	  "target_price": 170.0,
//	  "quantity": 10
//	}
//
// Response:
// - 201 Created: ордер принят (всегда в статусе pending)
// - 400 Bad Request: невалидные параметры
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	order, err := h.orderService.CreateOrder(username, req.Ticker, req.Side, req.TargetPrice, req.Quantity)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_order", err.Error(), "")
		return
	}

	respondWithJSON(w, http.StatusCreated, order)
}

// GetOrders возвращает ордера пользователя
// GET /api/v1/orders/{username}?status=pending
func (h *OrderHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	status := r.URL.Query().Get("status")

	orders, err := h.orderService.GetOrders(username, status)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			respondWithError(w, http.StatusBadRequest, "invalid_status", err.Error(), "")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Failed to load orders", err.Error())
		return
	}

	if orders == nil {
		orders = []*models.Order{}
	}
	respondWithJSON(w, http.StatusOK, orders)
}

// GetOrder возвращает один ордер пользователя
// GET /api/v1/orders/{username}/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	username := vars["username"]

	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_id", "Order ID must be an integer", "")
		return
	}

	order, err := h.orderService.GetOrder(username, id)
	if err != nil {
		h.respondOrderError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, order)
}

// CancelOrder отменяет pending ордер
// POST /api/v1/orders/{username}/{id}/cancel
//
// Response:
// - 200 OK: ордер отменён
// - 404 Not Found: ордера нет или он принадлежит другому пользователю
// - 409 Conflict: ордер уже исполнен или отменён
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	username := vars["username"]

	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_id", "Order ID must be an integer", "")
		return
	}

	order, err := h.orderService.CancelOrder(username, id)
	if err != nil {
		h.respondOrderError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, order)
}

// respondOrderError переводит ошибки сервиса ордеров в HTTP статусы.
// Чужой ордер отдаётся как 404, чтобы не раскрывать чужие ID.
func (h *OrderHandler) respondOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrNotOrderOwner):
		respondWithError(w, http.StatusNotFound, "order_not_found", "Order not found", "")
	case errors.Is(err, service.ErrOrderNotPending):
		respondWithError(w, http.StatusConflict, "order_not_pending", "Only pending orders can be cancelled", "")
	default:
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Order operation failed", err.Error())
	}
}
