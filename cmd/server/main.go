package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/niclashart/Streamlit-Stock-App/internal/api"
	"github.com/niclashart/Streamlit-Stock-App/internal/bot"
	"github.com/niclashart/Streamlit-Stock-App/internal/config"
	"github.com/niclashart/Streamlit-Stock-App/internal/marketdata"
	"github.com/niclashart/Streamlit-Stock-App/internal/service"
	"github.com/niclashart/Streamlit-Stock-App/internal/storage"
	"github.com/niclashart/Streamlit-Stock-App/internal/websocket"
	"github.com/niclashart/Streamlit-Stock-App/pkg/logger"

	_ "github.com/lib/pq"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must("server", cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	// Инициализация хранилища
	store, err := storage.Open(cfg.Storage.Type, cfg.Storage.CSVDir, cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}
	defer store.Close()

	log.Info("Storage opened", zap.String("type", cfg.Storage.Type))

	// Источник котировок
	feed := marketdata.NewYahooClient(log,
		marketdata.WithRateLimit(cfg.Market.RateLimit, float64(cfg.Market.Burst)))

	// Инициализация сервисов
	userService := service.NewUserService(store.Users, log)
	orderService := service.NewOrderService(store.Orders, log)
	portfolioService := service.NewPortfolioService(store.Positions, feed, log)

	// WebSocket hub
	hub := websocket.NewHub(log)
	go hub.Run()

	// Бот исполнения ордеров
	evaluator := bot.NewEvaluator(store.Orders, feed, portfolioService, log)
	evaluator.SetBroadcaster(hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Bot.CheckInterval > 0 {
		go evaluator.Run(ctx, cfg.Bot.CheckInterval)
	} else {
		log.Info("Background order checks disabled (BOT_CHECK_INTERVAL=0)")
	}

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		UserService:      userService,
		OrderService:     orderService,
		PortfolioService: portfolioService,
		BotService:       evaluator,
		Hub:              hub,
		Logger:           log,
	}

	router := api.SetupRoutes(deps)

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		log.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем фоновые проходы бота
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
