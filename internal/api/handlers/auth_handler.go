package handlers

import (
	"errors"
	"net/http"

	"github.com/niclashart/Streamlit-Stock-App/internal/models"
	"github.com/niclashart/Streamlit-Stock-App/internal/service"
)

// UserServiceInterface определяет операции учётных записей для handlers
type UserServiceInterface interface {
	Register(username, password string) (*models.User, error)
	Login(username, password string) (*models.User, error)
	ChangePassword(username, oldPassword, newPassword string) error
}

// AuthHandler отвечает за регистрацию и вход
//
// Endpoints:
// - POST /api/v1/auth/register - регистрация нового пользователя
// - POST /api/v1/auth/login    - проверка учётных данных
// - POST /api/v1/auth/password - смена пароля
type AuthHandler struct {
	userService UserServiceInterface
}

// NewAuthHandler создает новый AuthHandler с внедрением зависимостей
func NewAuthHandler(userService UserServiceInterface) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// CredentialsRequest - тело запросов register и login
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest - тело запроса смены пароля
type ChangePasswordRequest struct {
	Username    string `json:"username"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// UserResponse - данные пользователя в ответах (без хеша пароля)
type UserResponse struct {
	Username string `json:"username"`
}

// Register регистрирует нового пользователя
// POST /api/v1/auth/register
//
// Response:
// - 201 Created: пользователь создан
// - 400 Bad Request: невалидное имя или слабый пароль
// - 409 Conflict: имя занято
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	user, err := h.userService.Register(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			respondWithError(w, http.StatusConflict, "username_taken", "Username is already taken", "")
			return
		}
		respondWithError(w, http.StatusBadRequest, "invalid_credentials_format", err.Error(), "")
		return
	}

	respondWithJSON(w, http.StatusCreated, UserResponse{Username: user.Username})
}

// Login проверяет учётные данные
// POST /api/v1/auth/login
//
// Response:
// - 200 OK: данные верны
// - 401 Unauthorized: неверное имя или пароль
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	user, err := h.userService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password", "")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Login failed", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, UserResponse{Username: user.Username})
}

// ChangePassword меняет пароль после проверки старого
// POST /api/v1/auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	if err := h.userService.ChangePassword(req.Username, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondWithError(w, http.StatusUnauthorized, "invalid_credentials", "Old password is incorrect", "")
		case errors.Is(err, service.ErrUserNotFound):
			respondWithError(w, http.StatusNotFound, "user_not_found", "User not found", "")
		default:
			respondWithError(w, http.StatusBadRequest, "invalid_password", err.Error(), "")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "password changed"})
}
