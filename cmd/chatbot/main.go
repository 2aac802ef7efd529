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

	"github.com/niclashart/Streamlit-Stock-App/internal/chat"
	"github.com/niclashart/Streamlit-Stock-App/internal/config"
	"github.com/niclashart/Streamlit-Stock-App/pkg/logger"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must("chatbot", cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	// Без API ключа сервис работает в запасном режиме:
	// сводки по тикерам из сервиса рыночных данных
	var completer chat.Completer
	if cfg.Chat.DeepSeekAPIKey != "" {
		completer = chat.NewDeepSeekClient(cfg.Chat.DeepSeekAPIKey, log)
		log.Info("DeepSeek API key configured")
	} else {
		log.Warn("DEEPSEEK_API_KEY not set, falling back to stock summaries")
	}

	stocks := chat.NewStockInfoClient(cfg.Market.StockDataURL)
	chatService := chat.NewService(completer, stocks, log)

	router := chat.NewRouter(chat.NewHandler(chatService, log))

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.ChatbotPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // ответ модели может быть небыстрым
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		log.Info("Starting chatbot service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down chatbot service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Chatbot service exited")
}
