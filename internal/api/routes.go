package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/niclashart/Streamlit-Stock-App/internal/api/handlers"
	"github.com/niclashart/Streamlit-Stock-App/internal/api/middleware"
	"github.com/niclashart/Streamlit-Stock-App/internal/websocket"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	UserService      handlers.UserServiceInterface
	OrderService     handlers.OrderServiceInterface
	PortfolioService handlers.PortfolioServiceInterface
	BotService       handlers.BotServiceInterface
	Hub              *websocket.Hub
	Logger           *zap.Logger
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /auth/
//	│   ├── POST /register - регистрация
//	│   ├── POST /login    - вход
//	│   └── POST /password - смена пароля
//	├── /portfolio/{username}
//	│   ├── GET  /                    - holdings с рыночными метриками
//	│   ├── GET  /summary             - итоговые показатели
//	│   ├── GET  /dividends           - дивидендный доход
//	│   ├── POST /positions           - ручное добавление лота
//	│   └── DELETE /positions/{ticker} - удаление позиции
//	├── /orders/{username}
//	│   ├── GET  /             - список ордеров (?status=)
//	│   ├── POST /             - создание ордера
//	│   ├── GET  /{id}         - один ордер
//	│   └── POST /{id}/cancel  - отмена ордера
//	└── /bot/
//	    ├── POST /check  - синхронный проход проверки
//	    └── GET  /status - итог последнего прохода
//
// /ws/stream - WebSocket для real-time уведомлений об исполнениях
// /health    - проверка живости
// /metrics   - Prometheus метрики
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.CORS)

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Auth routes
	if deps.UserService != nil {
		authHandler := handlers.NewAuthHandler(deps.UserService)
		api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
		api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
		api.HandleFunc("/auth/password", authHandler.ChangePassword).Methods("POST")
	}

	// Portfolio routes
	if deps.PortfolioService != nil {
		portfolioHandler := handlers.NewPortfolioHandler(deps.PortfolioService)
		api.HandleFunc("/portfolio/{username}", portfolioHandler.GetHoldings).Methods("GET")
		api.HandleFunc("/portfolio/{username}/summary", portfolioHandler.GetSummary).Methods("GET")
		api.HandleFunc("/portfolio/{username}/dividends", portfolioHandler.GetDividends).Methods("GET")
		api.HandleFunc("/portfolio/{username}/positions", portfolioHandler.AddPosition).Methods("POST")
		api.HandleFunc("/portfolio/{username}/positions/{ticker}", portfolioHandler.RemovePosition).Methods("DELETE")
	}

	// Order routes
	if deps.OrderService != nil {
		orderHandler := handlers.NewOrderHandler(deps.OrderService)
		api.HandleFunc("/orders/{username}", orderHandler.GetOrders).Methods("GET")
		api.HandleFunc("/orders/{username}", orderHandler.CreateOrder).Methods("POST")
		api.HandleFunc("/orders/{username}/{id}", orderHandler.GetOrder).Methods("GET")
		api.HandleFunc("/orders/{username}/{id}/cancel", orderHandler.CancelOrder).Methods("POST")
	}

	// Bot routes
	if deps.BotService != nil {
		botHandler := handlers.NewBotHandler(deps.BotService)
		api.HandleFunc("/bot/check", botHandler.Check).Methods("POST")
		api.HandleFunc("/bot/status", botHandler.Status).Methods("GET")
	}

	// WebSocket route
	if deps.Hub != nil {
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(deps.Hub, w, r)
		})
	}

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}
