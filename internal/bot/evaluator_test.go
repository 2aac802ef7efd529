package bot

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/niclashart/Streamlit-Stock-App/internal/marketdata"
	"github.com/niclashart/Streamlit-Stock-App/internal/models"
	"github.com/niclashart/Streamlit-Stock-App/internal/storage"
)

// ============================================================
// Моки
// ============================================================

type mockOrderStore struct {
	mu     sync.Mutex
	orders map[int]*models.Order
	nextID int

	failMarkExecuted error
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{orders: make(map[int]*models.Order), nextID: 1}
}

func (m *mockOrderStore) add(order *models.Order) *models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = m.nextID
	m.nextID++
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	m.orders[order.ID] = order
	return order
}

func (m *mockOrderStore) Create(order *models.Order) error {
	m.add(order)
	return nil
}

func (m *mockOrderStore) GetByID(id int) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderStore) GetByUsername(username string) ([]*models.Order, error) {
	return nil, nil
}

func (m *mockOrderStore) GetPending() ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Order
	for _, order := range m.orders {
		if order.Status == models.OrderStatusPending {
			result = append(result, order)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockOrderStore) GetByUsernameAndStatus(username, status string) ([]*models.Order, error) {
	return nil, nil
}

func (m *mockOrderStore) MarkExecuted(id int, executedPrice float64, executedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMarkExecuted != nil {
		return m.failMarkExecuted
	}
	order, ok := m.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	if order.Status != models.OrderStatusPending {
		return storage.ErrOrderNotPending
	}
	order.Status = models.OrderStatusExecuted
	order.ExecutedPrice = &executedPrice
	order.ExecutedAt = &executedAt
	return nil
}

func (m *mockOrderStore) MarkCancelled(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	if order.Status != models.OrderStatusPending {
		return storage.ErrOrderNotPending
	}
	order.Status = models.OrderStatusCancelled
	return nil
}

func (m *mockOrderStore) CountByStatus(status string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, order := range m.orders {
		if order.Status == status {
			count++
		}
	}
	return count, nil
}

type mockFeed struct {
	mu     sync.Mutex
	prices map[string]float64
	calls  map[string]int
}

func newMockFeed(prices map[string]float64) *mockFeed {
	return &mockFeed{prices: prices, calls: make(map[string]int)}
}

func (f *mockFeed) GetQuote(ctx context.Context, ticker string) (*marketdata.Quote, error) {
	price, err := f.GetCurrentPrice(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return &marketdata.Quote{Ticker: ticker, Price: price}, nil
}

func (f *mockFeed) GetCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[ticker]++
	price, ok := f.prices[ticker]
	if !ok {
		return 0, marketdata.ErrTickerNotFound
	}
	return price, nil
}

func (f *mockFeed) GetHistory(ctx context.Context, ticker string, start, end time.Time) ([]*marketdata.PricePoint, error) {
	return nil, marketdata.ErrNoData
}

func (f *mockFeed) GetDividends(ctx context.Context, ticker string, since time.Time) ([]*marketdata.Dividend, error) {
	return nil, marketdata.ErrNoData
}

type mockPortfolio struct {
	mu      sync.Mutex
	applied []*models.Order
	failErr error
}

func (p *mockPortfolio) ApplyExecution(order *models.Order, executedPrice float64, executedAt time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failErr != nil {
		return p.failErr
	}
	p.applied = append(p.applied, order)
	return nil
}

type mockBroadcaster struct {
	mu       sync.Mutex
	execs    []*OrderExecution
	statuses []*CheckResult
}

func (b *mockBroadcaster) BroadcastExecution(exec *OrderExecution) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.execs = append(b.execs, exec)
}

func (b *mockBroadcaster) BroadcastBotStatus(result *CheckResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses = append(b.statuses, result)
}

// ============================================================
// Тесты
// ============================================================

func TestEvaluatorExecutesBuyBelowTarget(t *testing.T) {
	store := newMockOrderStore()
	order := store.add(&models.Order{
		Username:    "alice",
		Ticker:      "AAPL",
		Side:        models.OrderSideBuy,
		TargetPrice: 170.0,
		Quantity:    10,
	})

	feed := newMockFeed(map[string]float64{"AAPL": 165.0})
	portfolio := &mockPortfolio{}
	eval := NewEvaluator(store, feed, portfolio, zap.NewNop())

	result, err := eval.CheckPendingOrders(context.Background())
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if len(result.Executed) != 1 {
		t.Fatalf("expected 1 execution, got %d", len(result.Executed))
	}
	// Исполнение по текущей цене, а не по лимиту
	if result.Executed[0].ExecutedPrice != 165.0 {
		t.Errorf("expected executed price 165.0, got %f", result.Executed[0].ExecutedPrice)
	}

	stored, _ := store.GetByID(order.ID)
	if stored.Status != models.OrderStatusExecuted {
		t.Errorf("expected executed, got %s", stored.Status)
	}

	// Портфель получил исполнение
	if len(portfolio.applied) != 1 {
		t.Errorf("expected portfolio update, got %d", len(portfolio.applied))
	}
}

func TestEvaluatorLeavesSellBelowTargetPending(t *testing.T) {
	store := newMockOrderStore()
	order := store.add(&models.Order{
		Username:    "alice",
		Ticker:      "TSLA",
		Side:        models.OrderSideSell,
		TargetPrice: 250.0,
		Quantity:    5,
	})

	feed := newMockFeed(map[string]float64{"TSLA": 240.0})
	eval := NewEvaluator(store, feed, &mockPortfolio{}, zap.NewNop())

	result, err := eval.CheckPendingOrders(context.Background())
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if len(result.Executed) != 0 {
		t.Errorf("expected no executions, got %d", len(result.Executed))
	}
	if result.Pending != 1 {
		t.Errorf("expected 1 pending, got %d", result.Pending)
	}

	stored, _ := store.GetByID(order.ID)
	if stored.Status != models.OrderStatusPending {
		t.Errorf("expected pending, got %s", stored.Status)
	}
}

func TestEvaluatorExecutesSellAtOrAboveTarget(t *testing.T) {
	store := newMockOrderStore()
	store.add(&models.Order{
		Username:    "alice",
		Ticker:      "TSLA",
		Side:        models.OrderSideSell,
		TargetPrice: 250.0,
		Quantity:    5,
	})

	feed := newMockFeed(map[string]float64{"TSLA": 250.0})
	eval := NewEvaluator(store, feed, &mockPortfolio{}, zap.NewNop())

	result, err := eval.CheckPendingOrders(context.Background())
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	// Равенство цены и лимита исполняет sell
	if len(result.Executed) != 1 {
		t.Fatalf("expected 1 execution, got %d", len(result.Executed))
	}
}

func TestEvaluatorIgnoresCancelledOrders(t *testing.T) {
	store := newMockOrderStore()
	order := store.add(&models.Order{
		Username:    "alice",
		Ticker:      "AAPL",
		Side:        models.OrderSideBuy,
		TargetPrice: 170.0,
		Quantity:    10,
	})
	if err := store.MarkCancelled(order.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	feed := newMockFeed(map[string]float64{"AAPL": 165.0})
	eval := NewEvaluator(store, feed, &mockPortfolio{}, zap.NewNop())

	result, err := eval.CheckPendingOrders(context.Background())
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if len(result.Executed) != 0 {
		t.Errorf("cancelled order must not execute, got %d executions", len(result.Executed))
	}

	stored, _ := store.GetByID(order.ID)
	if stored.Status != models.OrderStatusCancelled {
		t.Errorf("expected cancelled, got %s", stored.Status)
	}
}

func TestEvaluatorSkipsTickerOnPriceFailure(t *testing.T) {
	store := newMockOrderStore()
	broken := store.add(&models.Order{
		Username:    "alice",
		Ticker:      "BROKEN",
		Side:        models.OrderSideBuy,
		TargetPrice: 100.0,
		Quantity:    1,
	})
	// Второй ордер на тот же тикер: котировка не должна запрашиваться повторно
	store.add(&models.Order{
		Username:    "bob",
		Ticker:      "BROKEN",
		Side:        models.OrderSideBuy,
		TargetPrice: 90.0,
		Quantity:    2,
	})
	healthy := store.add(&models.Order{
		Username:    "alice",
		Ticker:      "AAPL",
		Side:        models.OrderSideBuy,
		TargetPrice: 170.0,
		Quantity:    10,
	})

	feed := newMockFeed(map[string]float64{"AAPL": 165.0})
	eval := NewEvaluator(store, feed, &mockPortfolio{}, zap.NewNop())

	result, err := eval.CheckPendingOrders(context.Background())
	if err != nil {
		t.Fatalf("price failure must not fail the pass: %v", err)
	}

	// Здоровый тикер исполнился
	if len(result.Executed) != 1 || result.Executed[0].OrderID != healthy.ID {
		t.Fatalf("expected healthy order to execute, got %+v", result.Executed)
	}

	// Ордер с недоступной котировкой остался pending
	stored, _ := store.GetByID(broken.ID)
	if stored.Status != models.OrderStatusPending {
		t.Errorf("expected pending, got %s", stored.Status)
	}

	// Один запрос котировки на упавший тикер за проход
	if feed.calls["BROKEN"] != 1 {
		t.Errorf("expected 1 price call for BROKEN, got %d", feed.calls["BROKEN"])
	}

	if len(result.SkippedTickers) != 1 || result.SkippedTickers[0] != "BROKEN" {
		t.Errorf("expected BROKEN in skipped tickers, got %v", result.SkippedTickers)
	}
}

func TestEvaluatorCachesPricePerPass(t *testing.T) {
	store := newMockOrderStore()
	for i := 0; i < 3; i++ {
		store.add(&models.Order{
			Username:    "alice",
			Ticker:      "AAPL",
			Side:        models.OrderSideSell,
			TargetPrice: 500.0, // не сработает
			Quantity:    1,
		})
	}

	feed := newMockFeed(map[string]float64{"AAPL": 165.0})
	eval := NewEvaluator(store, feed, &mockPortfolio{}, zap.NewNop())

	if _, err := eval.CheckPendingOrders(context.Background()); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if feed.calls["AAPL"] != 1 {
		t.Errorf("expected 1 price call for 3 orders, got %d", feed.calls["AAPL"])
	}
}

func TestEvaluatorStorageFailureAbortsPass(t *testing.T) {
	store := newMockOrderStore()
	store.add(&models.Order{
		Username:    "alice",
		Ticker:      "AAPL",
		Side:        models.OrderSideBuy,
		TargetPrice: 170.0,
		Quantity:    10,
	})
	store.failMarkExecuted = errors.New("disk full")

	feed := newMockFeed(map[string]float64{"AAPL": 165.0})
	eval := NewEvaluator(store, feed, &mockPortfolio{}, zap.NewNop())

	_, err := eval.CheckPendingOrders(context.Background())
	if err == nil {
		t.Fatal("expected storage error to surface")
	}
}

func TestEvaluatorBroadcastsExecutions(t *testing.T) {
	store := newMockOrderStore()
	store.add(&models.Order{
		Username:    "alice",
		Ticker:      "AAPL",
		Side:        models.OrderSideBuy,
		TargetPrice: 170.0,
		Quantity:    10,
	})

	feed := newMockFeed(map[string]float64{"AAPL": 165.0})
	broadcaster := &mockBroadcaster{}
	eval := NewEvaluator(store, feed, &mockPortfolio{}, zap.NewNop())
	eval.SetBroadcaster(broadcaster)

	if _, err := eval.CheckPendingOrders(context.Background()); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if len(broadcaster.execs) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(broadcaster.execs))
	}
	if broadcaster.execs[0].Ticker != "AAPL" {
		t.Errorf("unexpected broadcast: %+v", broadcaster.execs[0])
	}
	if len(broadcaster.statuses) != 1 {
		t.Fatalf("expected 1 status broadcast, got %d", len(broadcaster.statuses))
	}
	if len(broadcaster.statuses[0].Executed) != 1 {
		t.Errorf("status broadcast should carry the executed order: %+v", broadcaster.statuses[0])
	}
}

func TestEvaluatorLastCheck(t *testing.T) {
	store := newMockOrderStore()
	feed := newMockFeed(nil)
	eval := NewEvaluator(store, feed, &mockPortfolio{}, zap.NewNop())

	if eval.LastCheck() != nil {
		t.Error("expected nil before first pass")
	}

	if _, err := eval.CheckPendingOrders(context.Background()); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	last := eval.LastCheck()
	if last == nil {
		t.Fatal("expected last check to be recorded")
	}
	if last.Pending != 0 {
		t.Errorf("expected 0 pending, got %d", last.Pending)
	}
}
