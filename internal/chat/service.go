package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/niclashart/Streamlit-Stock-App/pkg/utils"
)

// Completer - генератор ответов свободной формы (DeepSeek)
type Completer interface {
	Complete(ctx context.Context, userContent string) (string, error)
}

// StockInfoProvider - источник сводок по тикерам
type StockInfoProvider interface {
	GetInfo(ctx context.Context, ticker string) (*StockInfo, error)
}

// Service отвечает на вопросы пользователя об акциях.
//
// С настроенным API ключом вопрос уходит в DeepSeek вместе со сводкой
// по тикеру (если тикер указан). Без ключа сервис строит простой ответ
// из данных сервиса котировок, а на общие вопросы отвечает подсказкой
// настроить ключ.
type Service struct {
	completer Completer // nil, если API ключ не настроен
	stocks    StockInfoProvider
	logger    *zap.Logger
}

// NewService создает новый чат-сервис.
// completer может быть nil - тогда работает только запасной режим
func NewService(completer Completer, stocks StockInfoProvider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		completer: completer,
		stocks:    stocks,
		logger:    logger,
	}
}

// Reply генерирует ответ на вопрос пользователя.
// ticker опционален: с ним ответ обогащается данными по бумаге
func (s *Service) Reply(ctx context.Context, query, ticker string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}

	if ticker != "" {
		ticker = utils.NormalizeTicker(ticker)
		if err := utils.ValidateTicker(ticker); err != nil {
			return "", err
		}
	}

	if s.completer != nil {
		return s.replyWithModel(ctx, query, ticker)
	}
	return s.replyFallback(ctx, query, ticker)
}

// replyWithModel собирает контекст и спрашивает DeepSeek
func (s *Service) replyWithModel(ctx context.Context, query, ticker string) (string, error) {
	stockContext := "The user is asking about stocks."
	if ticker != "" {
		info, err := s.stocks.GetInfo(ctx, ticker)
		switch {
		case errors.Is(err, ErrTickerUnknown):
			// Тикер не найден: модель отвечает без стокового контекста
			s.logger.Debug("ticker unknown, answering without stock context",
				zap.String("ticker", ticker))
		case err != nil:
			s.logger.Warn("stock context lookup failed",
				zap.String("ticker", ticker),
				zap.Error(err))
		default:
			encoded, err := json.MarshalIndent(info, "", "  ")
			if err == nil {
				stockContext = fmt.Sprintf("Information about %s:\n%s\n", ticker, encoded)
			}
		}
	}

	return s.completer.Complete(ctx, fmt.Sprintf("%s\n\nUser question: %s", stockContext, query))
}

// replyFallback отвечает без модели: сводка по тикеру или подсказка
func (s *Service) replyFallback(ctx context.Context, query, ticker string) (string, error) {
	if ticker == "" {
		return "Please set the DEEPSEEK_API_KEY in your environment to enable general questions. " +
			"However, I can still provide specific stock information if you provide a ticker symbol.", nil
	}

	info, err := s.stocks.GetInfo(ctx, ticker)
	if err != nil {
		if errors.Is(err, ErrTickerUnknown) {
			return fmt.Sprintf("I couldn't find information about %s. "+
				"Please check if the ticker symbol is correct.", ticker), nil
		}
		return "", err
	}

	var b strings.Builder
	name := info.Name
	if name == "" {
		name = ticker
	}
	fmt.Fprintf(&b, "Here's what I know about %s (%s):\n\n", ticker, name)
	fmt.Fprintf(&b, "Current Price: %.2f", info.Price)
	if info.Currency != "" {
		fmt.Fprintf(&b, " %s", info.Currency)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Previous Close: %.2f\n", info.PreviousClose)
	fmt.Fprintf(&b, "Change: %+.2f (%+.2f%%)\n", info.Change, info.ChangePct)

	return b.String(), nil
}
