package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// OpenPostgres открывает подключение к PostgreSQL и возвращает Store
// с реляционными реализациями всех хранилищ.
//
// Выполняет:
// 1. Открытие пула соединений database/sql
// 2. Проверку подключения (ping с таймаутом)
// 3. Создание таблиц, если их ещё нет
func OpenPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return NewPostgresStore(db), nil
}

// NewPostgresStore собирает Store поверх готового *sql.DB.
// Используется в тестах (sqlmock) и в OpenPostgres.
func NewPostgresStore(db *sql.DB) *Store {
	return &Store{
		Users:     NewPostgresUserStore(db),
		Orders:    NewPostgresOrderStore(db),
		Positions: NewPostgresPositionStore(db),
		closeFn:   db.Close,
	}
}

// EnsureSchema создаёт таблицы users, positions и orders, если их нет.
// Схема повторяет файловый формат csv-бэкенда один к одному.
func EnsureSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			username      TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			username      TEXT NOT NULL,
			ticker        TEXT NOT NULL,
			shares        DOUBLE PRECISION NOT NULL,
			entry_price   DOUBLE PRECISION NOT NULL,
			purchase_date TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (username, ticker)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id             SERIAL PRIMARY KEY,
			username       TEXT NOT NULL,
			ticker         TEXT NOT NULL,
			side           TEXT NOT NULL,
			target_price   DOUBLE PRECISION NOT NULL,
			quantity       DOUBLE PRECISION NOT NULL,
			status         TEXT NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL,
			executed_at    TIMESTAMPTZ,
			executed_price DOUBLE PRECISION
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
