package handlers

import (
	"context"
	"net/http"

	"github.com/niclashart/Streamlit-Stock-App/internal/bot"
)

// BotServiceInterface определяет операции бота для handlers
type BotServiceInterface interface {
	CheckPendingOrders(ctx context.Context) (*bot.CheckResult, error)
	LastCheck() *bot.CheckResult
	Running() bool
}

// BotHandler отвечает за запуск и статус бота исполнения ордеров
//
// Endpoints:
// - POST /api/v1/bot/check  - синхронный проход проверки pending ордеров
// - GET  /api/v1/bot/status - итог последнего прохода
type BotHandler struct {
	evaluator BotServiceInterface
}

// NewBotHandler создает новый BotHandler с внедрением зависимостей
func NewBotHandler(evaluator BotServiceInterface) *BotHandler {
	return &BotHandler{evaluator: evaluator}
}

// BotStatusResponse - статус бота
type BotStatusResponse struct {
	BackgroundRunning bool             `json:"background_running"`
	LastCheck         *bot.CheckResult `json:"last_check,omitempty"`
}

// Check выполняет один проход проверки и возвращает его итог
// POST /api/v1/bot/check
//
// Response:
// - 200 OK: проход завершён (в теле - исполненные ордера и пропуски)
// - 500 Internal Server Error: проход прерван ошибкой хранилища
func (h *BotHandler) Check(w http.ResponseWriter, r *http.Request) {
	result, err := h.evaluator.CheckPendingOrders(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "check_failed", "Order check pass failed", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// Status возвращает итог последнего прохода
// GET /api/v1/bot/status
func (h *BotHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, BotStatusResponse{
		BackgroundRunning: h.evaluator.Running(),
		LastCheck:         h.evaluator.LastCheck(),
	})
}
