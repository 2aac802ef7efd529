package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/niclashart/Streamlit-Stock-App/internal/storage"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Market   MarketConfig
	Bot      BotConfig
	Chat     ChatConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP серверов.
// Основной API, сервис рыночных данных и чат-сервис слушают разные порты
type ServerConfig struct {
	Host          string
	Port          int // основной API
	StockDataPort int // сервис рыночных данных
	ChatbotPort   int // чат-сервис
}

// StorageConfig - выбор хранилища пользовательских данных
type StorageConfig struct {
	Type   string // csv | postgres
	CSVDir string // каталог CSV файлов (для Type=csv)
}

// DatabaseConfig - настройки подключения к Postgres (для Type=postgres)
type DatabaseConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// MarketConfig - настройки источника котировок
type MarketConfig struct {
	// StockDataURL - адрес сервиса рыночных данных для чат-сервиса
	StockDataURL string

	// RateLimit - запросов в секунду к внешнему провайдеру
	RateLimit float64
	Burst     int
}

// BotConfig - настройки бота исполнения ордеров
type BotConfig struct {
	// CheckInterval - интервал фоновых проходов; 0 отключает фон,
	// проверки остаются доступны через POST /api/v1/bot/check
	CheckInterval time.Duration
}

// ChatConfig - настройки чат-ассистента
type ChatConfig struct {
	// DeepSeekAPIKey - ключ DeepSeek API; пустой включает запасной
	// режим ответов из данных сервиса котировок
	DeepSeekAPIKey string
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:          getEnv("SERVER_HOST", "0.0.0.0"),
			Port:          getEnvAsInt("SERVER_PORT", 8080),
			StockDataPort: getEnvAsInt("STOCKDATA_PORT", 5001),
			ChatbotPort:   getEnvAsInt("CHATBOT_PORT", 5000),
		},
		Storage: StorageConfig{
			Type:   getEnv("STORAGE_TYPE", storage.TypeCSV),
			CSVDir: getEnv("CSV_DIR", "data"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "stockapp"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Market: MarketConfig{
			StockDataURL: getEnv("STOCKDATA_URL", "http://localhost:5001"),
			RateLimit:    getEnvAsFloat("MARKET_RATE_LIMIT", 5.0),
			Burst:        getEnvAsInt("MARKET_BURST", 10),
		},
		Bot: BotConfig{
			CheckInterval: getEnvAsDuration("BOT_CHECK_INTERVAL", 0),
		},
		Chat: ChatConfig{
			DeepSeekAPIKey: getEnv("DEEPSEEK_API_KEY", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate проверяет диапазоны и согласованность параметров
func (c *Config) validate() error {
	for name, port := range map[string]int{
		"SERVER_PORT":    c.Server.Port,
		"STOCKDATA_PORT": c.Server.StockDataPort,
		"CHATBOT_PORT":   c.Server.ChatbotPort,
		"DB_PORT":        c.Database.Port,
	} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
		}
	}

	switch c.Storage.Type {
	case storage.TypeCSV:
		if c.Storage.CSVDir == "" {
			return fmt.Errorf("CSV_DIR is required for STORAGE_TYPE=csv")
		}
	case storage.TypePostgres:
		// DSN собирается из DB_* переменных
	default:
		return fmt.Errorf("STORAGE_TYPE must be %q or %q, got %q",
			storage.TypeCSV, storage.TypePostgres, c.Storage.Type)
	}

	if c.Bot.CheckInterval < 0 {
		return fmt.Errorf("BOT_CHECK_INTERVAL cannot be negative, got %v", c.Bot.CheckInterval)
	}

	if c.Market.RateLimit <= 0 {
		return fmt.Errorf("MARKET_RATE_LIMIT must be positive, got %v", c.Market.RateLimit)
	}

	if c.Market.Burst < 1 {
		return fmt.Errorf("MARKET_BURST must be at least 1, got %d", c.Market.Burst)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
