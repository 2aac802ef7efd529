package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// validator.go - валидация входных данных API
//
// Возвращает error с описанием проблемы или nil.

var (
	// Тикеры: 1-10 символов, буквы/цифры, допускаются '.' и '-'
	// (BRK.B, BTC-USD)
	tickerPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]{1,10}$`)

	// Имена пользователей: 3-30 символов, буквы/цифры/подчёркивания
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)
)

// ValidateTicker проверяет формат биржевого тикера
func ValidateTicker(ticker string) error {
	if ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	if !tickerPattern.MatchString(ticker) {
		return fmt.Errorf("invalid ticker format: %q", ticker)
	}
	return nil
}

// NormalizeTicker приводит тикер к каноническому виду (верхний регистр)
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// ValidateUsername проверяет формат имени пользователя
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username must be 3-30 characters (letters, digits, underscore)")
	}
	return nil
}

// ValidatePassword проверяет минимальные требования к паролю
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}

// ValidateSide проверяет сторону ордера (buy/sell)
func ValidateSide(side string) error {
	switch side {
	case "buy", "sell":
		return nil
	default:
		return fmt.Errorf("invalid side: %q (expected buy or sell)", side)
	}
}

// ValidateQuantity проверяет количество акций (> 0)
func ValidateQuantity(quantity float64) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %g", quantity)
	}
	return nil
}

// ValidatePrice проверяет цену (> 0)
func ValidatePrice(price float64) error {
	if price <= 0 {
		return fmt.Errorf("price must be positive, got %g", price)
	}
	return nil
}
