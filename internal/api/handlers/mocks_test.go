package handlers

import (
	"context"
	"time"

	"github.com/niclashart/Streamlit-Stock-App/internal/bot"
	"github.com/niclashart/Streamlit-Stock-App/internal/models"
)

// ============================================================
// Моки сервисов для тестов handlers
// ============================================================

// MockUserService - мок UserServiceInterface
type MockUserService struct {
	RegisterFunc       func(username, password string) (*models.User, error)
	LoginFunc          func(username, password string) (*models.User, error)
	ChangePasswordFunc func(username, oldPassword, newPassword string) error
}

func (m *MockUserService) Register(username, password string) (*models.User, error) {
	return m.RegisterFunc(username, password)
}

func (m *MockUserService) Login(username, password string) (*models.User, error) {
	return m.LoginFunc(username, password)
}

func (m *MockUserService) ChangePassword(username, oldPassword, newPassword string) error {
	return m.ChangePasswordFunc(username, oldPassword, newPassword)
}

// MockOrderService - мок OrderServiceInterface
type MockOrderService struct {
	CreateOrderFunc func(username, ticker, side string, targetPrice, quantity float64) (*models.Order, error)
	GetOrdersFunc   func(username, status string) ([]*models.Order, error)
	GetOrderFunc    func(username string, id int) (*models.Order, error)
	CancelOrderFunc func(username string, id int) (*models.Order, error)
}

func (m *MockOrderService) CreateOrder(username, ticker, side string, targetPrice, quantity float64) (*models.Order, error) {
	return m.CreateOrderFunc(username, ticker, side, targetPrice, quantity)
}

func (m *MockOrderService) GetOrders(username, status string) ([]*models.Order, error) {
	return m.GetOrdersFunc(username, status)
}

func (m *MockOrderService) GetOrder(username string, id int) (*models.Order, error) {
	return m.GetOrderFunc(username, id)
}

func (m *MockOrderService) CancelOrder(username string, id int) (*models.Order, error) {
	return m.CancelOrderFunc(username, id)
}

// MockPortfolioService - мок PortfolioServiceInterface
type MockPortfolioService struct {
	HoldingsFunc       func(ctx context.Context, username string) ([]*models.Holding, error)
	SummaryFunc        func(ctx context.Context, username string) (*models.PortfolioSummary, error)
	AddLotFunc         func(username, ticker string, shares, price float64, purchaseDate time.Time) (*models.Position, error)
	RemovePositionFunc func(username, ticker string) error
	DividendIncomeFunc func(ctx context.Context, username string) (map[string]float64, error)
}

func (m *MockPortfolioService) Holdings(ctx context.Context, username string) ([]*models.Holding, error) {
	return m.HoldingsFunc(ctx, username)
}

func (m *MockPortfolioService) Summary(ctx context.Context, username string) (*models.PortfolioSummary, error) {
	return m.SummaryFunc(ctx, username)
}

func (m *MockPortfolioService) AddLot(username, ticker string, shares, price float64, purchaseDate time.Time) (*models.Position, error) {
	return m.AddLotFunc(username, ticker, shares, price, purchaseDate)
}

func (m *MockPortfolioService) RemovePosition(username, ticker string) error {
	return m.RemovePositionFunc(username, ticker)
}

func (m *MockPortfolioService) DividendIncome(ctx context.Context, username string) (map[string]float64, error) {
	return m.DividendIncomeFunc(ctx, username)
}

// MockBotService - мок BotServiceInterface
type MockBotService struct {
	CheckFunc func(ctx context.Context) (*bot.CheckResult, error)
	lastCheck *bot.CheckResult
	running   bool
}

func (m *MockBotService) CheckPendingOrders(ctx context.Context) (*bot.CheckResult, error) {
	return m.CheckFunc(ctx)
}

func (m *MockBotService) LastCheck() *bot.CheckResult { return m.lastCheck }

func (m *MockBotService) Running() bool { return m.running }
