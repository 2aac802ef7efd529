package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/niclashart/Streamlit-Stock-App/internal/models"
)

// PostgresPositionStore - работа с таблицей positions
type PostgresPositionStore struct {
	db *sql.DB
}

// NewPostgresPositionStore создает новый экземпляр хранилища позиций
func NewPostgresPositionStore(db *sql.DB) *PostgresPositionStore {
	return &PostgresPositionStore{db: db}
}

// GetByUsername возвращает все позиции пользователя
func (s *PostgresPositionStore) GetByUsername(username string) ([]*models.Position, error) {
	query := `
		SELECT username, ticker, shares, entry_price, purchase_date
		FROM positions
		WHERE username = $1
		ORDER BY ticker ASC`

	rows, err := s.db.Query(query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		position := &models.Position{}
		err := rows.Scan(
			&position.Username,
			&position.Ticker,
			&position.Shares,
			&position.EntryPrice,
			&position.PurchaseDate,
		)
		if err != nil {
			return nil, err
		}
		positions = append(positions, position)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return positions, nil
}

// Get возвращает позицию пользователя по тикеру
func (s *PostgresPositionStore) Get(username, ticker string) (*models.Position, error) {
	query := `
		SELECT username, ticker, shares, entry_price, purchase_date
		FROM positions
		WHERE username = $1 AND ticker = $2`

	position := &models.Position{}
	err := s.db.QueryRow(query, username, ticker).Scan(
		&position.Username,
		&position.Ticker,
		&position.Shares,
		&position.EntryPrice,
		&position.PurchaseDate,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}

	return position, nil
}

// Upsert создаёт позицию или заменяет существующую (username, ticker)
func (s *PostgresPositionStore) Upsert(position *models.Position) error {
	query := `
		INSERT INTO positions (username, ticker, shares, entry_price, purchase_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username, ticker)
		DO UPDATE SET shares = $3, entry_price = $4, purchase_date = $5`

	if position.PurchaseDate.IsZero() {
		position.PurchaseDate = time.Now()
	}

	_, err := s.db.Exec(
		query,
		position.Username,
		position.Ticker,
		position.Shares,
		position.EntryPrice,
		position.PurchaseDate,
	)
	if err != nil {
		return err
	}

	return nil
}

// Remove удаляет позицию пользователя по тикеру
func (s *PostgresPositionStore) Remove(username, ticker string) error {
	query := `DELETE FROM positions WHERE username = $1 AND ticker = $2`

	result, err := s.db.Exec(query, username, ticker)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrPositionNotFound
	}

	return nil
}
