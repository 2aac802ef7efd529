package service

import (
	"errors"

	"go.uber.org/zap"

	"github.com/niclashart/Streamlit-Stock-App/internal/models"
	"github.com/niclashart/Streamlit-Stock-App/internal/storage"
	"github.com/niclashart/Streamlit-Stock-App/pkg/crypto"
	"github.com/niclashart/Streamlit-Stock-App/pkg/utils"
)

// Ошибки сервиса пользователей
var (
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
)

// UserService - бизнес-логика учётных записей
type UserService struct {
	users  storage.UserStore
	logger *zap.Logger
}

// NewUserService создает новый экземпляр сервиса пользователей
func NewUserService(users storage.UserStore, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// Register регистрирует нового пользователя
// Выполняет:
// 1. Валидацию имени и пароля
// 2. Хеширование пароля (bcrypt)
// 3. Сохранение в хранилище
func (s *UserService) Register(username, password string) (*models.User, error) {
	// 1. Валидация
	if err := utils.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := utils.ValidatePassword(password); err != nil {
		return nil, err
	}

	// 2. Хеширование пароля
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
	}

	// 3. Сохранение
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.String("username", username))
	return user, nil
}

// Login проверяет учётные данные пользователя.
// Несуществующий пользователь и неверный пароль дают одну и ту же
// ошибку, чтобы не раскрывать список зарегистрированных имён.
func (s *UserService) Login(username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !crypto.CheckPasswordMatch(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// ChangePassword меняет пароль после проверки старого
func (s *UserService) ChangePassword(username, oldPassword, newPassword string) error {
	// 1. Проверяем старый пароль
	user, err := s.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if !crypto.CheckPasswordMatch(oldPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	// 2. Валидируем и хешируем новый
	if err := utils.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return err
	}

	// 3. Сохраняем
	if err := s.users.UpdatePassword(username, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.String("username", username))
	return nil
}
