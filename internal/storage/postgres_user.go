package storage

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/niclashart/Streamlit-Stock-App/internal/models"
)

// PostgresUserStore - работа с таблицей users
type PostgresUserStore struct {
	db *sql.DB
}

// NewPostgresUserStore создает новый экземпляр хранилища пользователей
func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

// Create сохраняет нового пользователя
func (s *PostgresUserStore) Create(user *models.User) error {
	query := `
		INSERT INTO users (username, password_hash, created_at)
		VALUES ($1, $2, $3)`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(query, user.Username, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return err
	}

	return nil
}

// GetByUsername возвращает пользователя по имени
func (s *PostgresUserStore) GetByUsername(username string) (*models.User, error) {
	query := `
		SELECT username, password_hash, created_at
		FROM users
		WHERE username = $1`

	user := &models.User{}
	err := s.db.QueryRow(query, username).Scan(
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// Exists проверяет существование пользователя
func (s *PostgresUserStore) Exists(username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	err := s.db.QueryRow(query, username).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// UpdatePassword обновляет хеш пароля пользователя
func (s *PostgresUserStore) UpdatePassword(username, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE username = $2`

	result, err := s.db.Exec(query, passwordHash, username)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// isUniqueViolation проверяет, является ли ошибка нарушением UNIQUE constraint
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "23505")
}
