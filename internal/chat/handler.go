package chat

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handler отвечает за HTTP endpoints чат-сервиса
//
// Endpoints:
// - POST /chatbot - вопрос пользователя, ответ ассистента
// - GET  /health  - проверка живости
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler создает новый Handler с внедрением зависимостей
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// NewRouter собирает маршруты чат-сервиса
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/chatbot", h.Chat).Methods("POST")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}

// ChatRequest - тело запроса к ассистенту
type ChatRequest struct {
	Query  string `json:"query"`
	Ticker string `json:"ticker,omitempty"`
}

// ChatResponse - ответ ассистента
type ChatResponse struct {
	Reply string `json:"reply"`
}

// errorResponse - тело ошибки чат-сервиса
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Chat отвечает на вопрос пользователя
// POST /chatbot
//
// Request Body:
//
//	{
//	  "query": "Is AAPL a good buy right now?",
//	  "ticker": "AAPL"
//	}
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, errorResponse{
			Error: "Invalid JSON body", Code: "invalid_request",
		})
		return
	}

	reply, err := h.service.Reply(r.Context(), req.Query, req.Ticker)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyQuery):
			h.respondJSON(w, http.StatusBadRequest, errorResponse{
				Error: err.Error(), Code: "empty_query",
			})
		case errors.Is(err, ErrUpstream):
			h.respondJSON(w, http.StatusBadGateway, errorResponse{
				Error: "Assistant is temporarily unavailable", Code: "upstream_error",
			})
		default:
			h.respondJSON(w, http.StatusBadRequest, errorResponse{
				Error: err.Error(), Code: "invalid_request",
			})
		}
		return
	}

	h.respondJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
