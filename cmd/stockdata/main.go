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

	"github.com/niclashart/Streamlit-Stock-App/internal/config"
	"github.com/niclashart/Streamlit-Stock-App/internal/marketdata"
	"github.com/niclashart/Streamlit-Stock-App/internal/stockapi"
	"github.com/niclashart/Streamlit-Stock-App/pkg/logger"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must("stockdata", cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	// Источник котировок с rate limit и retry
	feed := marketdata.NewYahooClient(log,
		marketdata.WithRateLimit(cfg.Market.RateLimit, float64(cfg.Market.Burst)))

	router := stockapi.NewRouter(stockapi.NewHandler(feed, log))

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.StockDataPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		log.Info("Starting stock data service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down stock data service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Stock data service exited")
}
