// Package chat реализует чат-ассистента по акциям: проксирование
// запросов в DeepSeek API со стоковым контекстом и запасной ответ
// без API ключа.
package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Параметры DeepSeek API
const (
	DefaultDeepSeekBaseURL = "https://api.deepseek.com"

	deepSeekModel       = "deepseek-chat"
	deepSeekTemperature = 0.7
	deepSeekMaxTokens   = 500
)

// systemPrompt - фиксированная роль ассистента
const systemPrompt = "You are a helpful stock market assistant. Answer questions about stocks, " +
	"provide financial advice, and help with investment decisions. Keep responses concise and " +
	"informative. Remember what the user has already told you and maintain context in your responses."

// Ошибки чат-сервиса
var (
	// ErrEmptyQuery - пустой вопрос пользователя
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrUpstream - DeepSeek API вернул ошибку
	ErrUpstream = errors.New("chat completion request failed")
)

// DeepSeekClient - клиент DeepSeek chat-completions API
type DeepSeekClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// DeepSeekOption настраивает DeepSeekClient
type DeepSeekOption func(*DeepSeekClient)

// WithDeepSeekBaseURL переопределяет базовый URL (для тестов)
func WithDeepSeekBaseURL(baseURL string) DeepSeekOption {
	return func(c *DeepSeekClient) {
		c.baseURL = baseURL
	}
}

// WithDeepSeekHTTPClient переопределяет HTTP клиент
func WithDeepSeekHTTPClient(client *http.Client) DeepSeekOption {
	return func(c *DeepSeekClient) {
		c.httpClient = client
	}
}

// NewDeepSeekClient создает новый клиент DeepSeek API
func NewDeepSeekClient(apiKey string, logger *zap.Logger, opts ...DeepSeekOption) *DeepSeekClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &DeepSeekClient{
		baseURL: DefaultDeepSeekBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete отправляет вопрос пользователя (с уже собранным контекстом)
// в DeepSeek и возвращает текст ответа
func (c *DeepSeekClient) Complete(ctx context.Context, userContent string) (string, error) {
	payload := chatRequest{
		Model: deepSeekModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		Temperature: deepSeekTemperature,
		MaxTokens:   deepSeekMaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("chat completion request rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet))
		return "", fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrUpstream)
	}

	return parsed.Choices[0].Message.Content, nil
}
