package storage

import (
	"fmt"
	"sort"
	"time"

	"github.com/niclashart/Streamlit-Stock-App/internal/models"
)

var positionHeader = []string{"ticker", "shares", "entry_price", "purchase_date"}

// CSVPositionStore хранит позиции в файлах portfolio_<username>.csv.
// Один файл на пользователя, как в исходном файловом формате.
type CSVPositionStore struct {
	backend *csvBackend
}

// portfolioFile возвращает имя файла портфеля пользователя
func portfolioFile(username string) string {
	return fmt.Sprintf("portfolio_%s.csv", username)
}

// GetByUsername возвращает все позиции пользователя
func (s *CSVPositionStore) GetByUsername(username string) ([]*models.Position, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	positions, err := s.load(username)
	if err != nil {
		return nil, err
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Ticker < positions[j].Ticker
	})

	return positions, nil
}

// Get возвращает позицию пользователя по тикеру
func (s *CSVPositionStore) Get(username, ticker string) (*models.Position, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	positions, err := s.load(username)
	if err != nil {
		return nil, err
	}

	for _, position := range positions {
		if position.Ticker == ticker {
			return position, nil
		}
	}

	return nil, ErrPositionNotFound
}

// Upsert создаёт позицию или заменяет существующую (username, ticker)
func (s *CSVPositionStore) Upsert(position *models.Position) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	positions, err := s.load(position.Username)
	if err != nil {
		return err
	}

	if position.PurchaseDate.IsZero() {
		position.PurchaseDate = time.Now()
	}

	replaced := false
	for i, existing := range positions {
		if existing.Ticker == position.Ticker {
			positions[i] = position
			replaced = true
			break
		}
	}
	if !replaced {
		positions = append(positions, position)
	}

	return s.save(position.Username, positions)
}

// Remove удаляет позицию пользователя по тикеру
func (s *CSVPositionStore) Remove(username, ticker string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	positions, err := s.load(username)
	if err != nil {
		return err
	}

	kept := positions[:0]
	found := false
	for _, position := range positions {
		if position.Ticker == ticker {
			found = true
			continue
		}
		kept = append(kept, position)
	}

	if !found {
		return ErrPositionNotFound
	}

	return s.save(username, kept)
}

// load читает все позиции пользователя из его файла портфеля
func (s *CSVPositionStore) load(username string) ([]*models.Position, error) {
	name := portfolioFile(username)
	records, err := readCSVFile(s.backend.path(name))
	if err != nil {
		return nil, err
	}

	var positions []*models.Position
	for i, record := range records {
		if i == 0 {
			continue // заголовок
		}
		if len(record) != len(positionHeader) {
			return nil, fmt.Errorf("%s: row %d has %d fields, want %d", name, i+1, len(record), len(positionHeader))
		}

		shares, err := parseCSVFloat(record[1])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: invalid shares: %w", name, i+1, err)
		}

		entryPrice, err := parseCSVFloat(record[2])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: invalid entry_price: %w", name, i+1, err)
		}

		purchaseDate, err := parseCSVTime(record[3])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: invalid purchase_date: %w", name, i+1, err)
		}

		positions = append(positions, &models.Position{
			Username:     username,
			Ticker:       record[0],
			Shares:       shares,
			EntryPrice:   entryPrice,
			PurchaseDate: purchaseDate,
		})
	}

	return positions, nil
}

// save перезаписывает файл портфеля пользователя целиком
func (s *CSVPositionStore) save(username string, positions []*models.Position) error {
	rows := make([][]string, 0, len(positions))
	for _, position := range positions {
		rows = append(rows, []string{
			position.Ticker,
			formatCSVFloat(position.Shares),
			formatCSVFloat(position.EntryPrice),
			formatCSVTime(position.PurchaseDate),
		})
	}

	return writeCSVFile(s.backend.path(portfolioFile(username)), positionHeader, rows)
}
