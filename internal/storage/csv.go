package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Формат времени в csv-файлах
const csvTimeLayout = "2006-01-02 15:04:05"

// csvBackend - общее состояние файлового бэкенда: каталог данных
// и мьютекс, сериализующий все операции чтения-перезаписи.
type csvBackend struct {
	dir string
	mu  sync.Mutex
}

func newCSVBackend(dir string) *csvBackend {
	return &csvBackend{dir: dir}
}

// path возвращает абсолютный путь к файлу внутри каталога данных
func (b *csvBackend) path(name string) string {
	return filepath.Join(b.dir, name)
}

// OpenCSV открывает файловый бэкенд в каталоге dir и возвращает Store.
// Каталог создаётся при отсутствии. Все три хранилища делят один мьютекс:
// каждая операция читает файл целиком и перезаписывает его атомарно
// через временный файл.
func OpenCSV(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	backend := newCSVBackend(dir)

	return &Store{
		Users:     &CSVUserStore{backend: backend},
		Orders:    &CSVOrderStore{backend: backend},
		Positions: &CSVPositionStore{backend: backend},
	}, nil
}

// readCSVFile читает все записи файла. Отсутствующий файл - не ошибка:
// возвращается пустой срез (файл появится при первой записи).
func readCSVFile(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	return records, nil
}

// writeCSVFile перезаписывает файл целиком: заголовок + строки.
// Запись идёт во временный файл с последующим rename, чтобы
// читатели не увидели наполовину записанный файл.
func writeCSVFile(path string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	writer := csv.NewWriter(tmp)
	if err := writer.Write(header); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write rows: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush %s: %w", filepath.Base(path), err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}

	return nil
}

// parseCSVTime разбирает время из csv-ячейки.
// Поддерживает и RFC3339 (на случай файлов, отредактированных вручную).
func parseCSVTime(value string) (time.Time, error) {
	if t, err := time.Parse(csvTimeLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// formatCSVTime форматирует время для записи в csv
func formatCSVTime(t time.Time) string {
	return t.Format(csvTimeLayout)
}

// parseCSVFloat разбирает число из csv-ячейки
func parseCSVFloat(value string) (float64, error) {
	return strconv.ParseFloat(value, 64)
}

// formatCSVFloat форматирует число для записи в csv
func formatCSVFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
