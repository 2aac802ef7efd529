package storage

import "fmt"

// Поддерживаемые типы хранилища (значение STORAGE_TYPE)
const (
	TypeCSV      = "csv"
	TypePostgres = "postgres"
)

// Open создаёт Store нужного бэкенда.
// Для csv параметр - каталог данных, для postgres - DSN подключения.
func Open(storageType, csvDir, postgresDSN string) (*Store, error) {
	switch storageType {
	case TypeCSV:
		return OpenCSV(csvDir)
	case TypePostgres:
		return OpenPostgres(postgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage type: %q (expected %q or %q)", storageType, TypeCSV, TypePostgres)
	}
}
