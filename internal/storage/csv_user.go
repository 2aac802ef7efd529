package storage

import (
	"fmt"
	"time"

	"github.com/niclashart/Streamlit-Stock-App/internal/models"
)

const usersFile = "users.csv"

var userHeader = []string{"username", "password_hash", "created_at"}

// CSVUserStore хранит пользователей в users.csv
type CSVUserStore struct {
	backend *csvBackend
}

// Create сохраняет нового пользователя
func (s *CSVUserStore) Create(user *models.User) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}

	for _, existing := range users {
		if existing.Username == user.Username {
			return ErrUserExists
		}
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	users = append(users, user)
	return s.save(users)
}

// GetByUsername возвращает пользователя по имени
func (s *CSVUserStore) GetByUsername(username string) (*models.User, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, user := range users {
		if user.Username == username {
			return user, nil
		}
	}

	return nil, ErrUserNotFound
}

// Exists проверяет существование пользователя
func (s *CSVUserStore) Exists(username string) (bool, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return false, err
	}

	for _, user := range users {
		if user.Username == username {
			return true, nil
		}
	}

	return false, nil
}

// UpdatePassword обновляет хеш пароля пользователя
func (s *CSVUserStore) UpdatePassword(username, passwordHash string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}

	found := false
	for _, user := range users {
		if user.Username == username {
			user.PasswordHash = passwordHash
			found = true
			break
		}
	}

	if !found {
		return ErrUserNotFound
	}

	return s.save(users)
}

// load читает всех пользователей из файла
func (s *CSVUserStore) load() ([]*models.User, error) {
	records, err := readCSVFile(s.backend.path(usersFile))
	if err != nil {
		return nil, err
	}

	var users []*models.User
	for i, record := range records {
		if i == 0 {
			continue // заголовок
		}
		if len(record) != len(userHeader) {
			return nil, fmt.Errorf("%s: row %d has %d fields, want %d", usersFile, i+1, len(record), len(userHeader))
		}

		createdAt, err := parseCSVTime(record[2])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: invalid created_at: %w", usersFile, i+1, err)
		}

		users = append(users, &models.User{
			Username:     record[0],
			PasswordHash: record[1],
			CreatedAt:    createdAt,
		})
	}

	return users, nil
}

// save перезаписывает файл пользователей целиком
func (s *CSVUserStore) save(users []*models.User) error {
	rows := make([][]string, 0, len(users))
	for _, user := range users {
		rows = append(rows, []string{
			user.Username,
			user.PasswordHash,
			formatCSVTime(user.CreatedAt),
		})
	}

	return writeCSVFile(s.backend.path(usersFile), userHeader, rows)
}
