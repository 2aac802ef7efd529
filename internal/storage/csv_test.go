package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/niclashart/Streamlit-Stock-App/internal/models"
)

// ============================================================
// CSV Backend Tests
// ============================================================

func newTestCSVStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenCSV(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open csv store: %v", err)
	}
	return store
}

func TestCSVUserStore(t *testing.T) {
	store := newTestCSVStore(t)

	t.Run("get missing user", func(t *testing.T) {
		_, err := store.Users.GetByUsername("nobody")
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("create and get", func(t *testing.T) {
		user := &models.User{Username: "alice", PasswordHash: "hash1"}
		if err := store.Users.Create(user); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		got, err := store.Users.GetByUsername("alice")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.PasswordHash != "hash1" {
			t.Errorf("expected hash1, got %s", got.PasswordHash)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := store.Users.Create(&models.User{Username: "alice", PasswordHash: "other"})
		if !errors.Is(err, ErrUserExists) {
			t.Errorf("expected ErrUserExists, got %v", err)
		}
	})

	t.Run("exists", func(t *testing.T) {
		exists, err := store.Users.Exists("alice")
		if err != nil {
			t.Fatalf("exists failed: %v", err)
		}
		if !exists {
			t.Error("expected alice to exist")
		}

		exists, err = store.Users.Exists("bob")
		if err != nil {
			t.Fatalf("exists failed: %v", err)
		}
		if exists {
			t.Error("expected bob to not exist")
		}
	})

	t.Run("update password", func(t *testing.T) {
		if err := store.Users.UpdatePassword("alice", "hash2"); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		got, err := store.Users.GetByUsername("alice")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.PasswordHash != "hash2" {
			t.Errorf("expected hash2, got %s", got.PasswordHash)
		}

		err = store.Users.UpdatePassword("nobody", "hash")
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestCSVOrderStoreLifecycle(t *testing.T) {
	store := newTestCSVStore(t)

	first := &models.Order{
		Username:    "alice",
		Ticker:      "AAPL",
		Side:        models.OrderSideBuy,
		TargetPrice: 170.0,
		Quantity:    10,
		Status:      models.OrderStatusPending,
		CreatedAt:   time.Now().Add(-time.Hour),
	}
	second := &models.Order{
		Username:    "alice",
		Ticker:      "TSLA",
		Side:        models.OrderSideSell,
		TargetPrice: 250.0,
		Quantity:    5,
		Status:      models.OrderStatusPending,
		CreatedAt:   time.Now(),
	}

	if err := store.Orders.Create(first); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.Orders.Create(second); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("expected IDs 1 and 2, got %d and %d", first.ID, second.ID)
	}

	t.Run("get by username newest first", func(t *testing.T) {
		orders, err := store.Orders.GetByUsername("alice")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if len(orders) != 2 {
			t.Fatalf("expected 2 orders, got %d", len(orders))
		}
		if orders[0].Ticker != "TSLA" {
			t.Errorf("expected newest order first, got %s", orders[0].Ticker)
		}
	})

	t.Run("mark executed", func(t *testing.T) {
		executedAt := time.Now()
		if err := store.Orders.MarkExecuted(first.ID, 165.0, executedAt); err != nil {
			t.Fatalf("mark executed failed: %v", err)
		}

		got, err := store.Orders.GetByID(first.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Status != models.OrderStatusExecuted {
			t.Errorf("expected status executed, got %s", got.Status)
		}
		if got.ExecutedPrice == nil || *got.ExecutedPrice != 165.0 {
			t.Errorf("expected executed price 165.0, got %v", got.ExecutedPrice)
		}
		if got.ExecutedAt == nil {
			t.Error("expected executed_at to be set")
		}
	})

	t.Run("executed order is immutable", func(t *testing.T) {
		err := store.Orders.MarkCancelled(first.ID)
		if !errors.Is(err, ErrOrderNotPending) {
			t.Errorf("expected ErrOrderNotPending, got %v", err)
		}
	})

	t.Run("cancel pending order", func(t *testing.T) {
		if err := store.Orders.MarkCancelled(second.ID); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}

		got, err := store.Orders.GetByID(second.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Status != models.OrderStatusCancelled {
			t.Errorf("expected status cancelled, got %s", got.Status)
		}
	})

	t.Run("pending excludes terminal orders", func(t *testing.T) {
		pending, err := store.Orders.GetPending()
		if err != nil {
			t.Fatalf("get pending failed: %v", err)
		}
		if len(pending) != 0 {
			t.Errorf("expected no pending orders, got %d", len(pending))
		}
	})

	t.Run("count by status", func(t *testing.T) {
		count, err := store.Orders.CountByStatus(models.OrderStatusExecuted)
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 executed order, got %d", count)
		}
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := store.Orders.GetByID(999)
		if !errors.Is(err, ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
		err = store.Orders.MarkCancelled(999)
		if !errors.Is(err, ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
	})
}

func TestCSVOrderStoreIDsSurviveRestart(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenCSV(dir)
	if err != nil {
		t.Fatalf("failed to open csv store: %v", err)
	}

	order := &models.Order{
		Username:    "alice",
		Ticker:      "AAPL",
		Side:        models.OrderSideBuy,
		TargetPrice: 170.0,
		Quantity:    10,
		Status:      models.OrderStatusPending,
	}
	if err := store.Orders.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Повторное открытие того же каталога продолжает нумерацию
	reopened, err := OpenCSV(dir)
	if err != nil {
		t.Fatalf("failed to reopen csv store: %v", err)
	}

	next := &models.Order{
		Username:    "alice",
		Ticker:      "MSFT",
		Side:        models.OrderSideBuy,
		TargetPrice: 400.0,
		Quantity:    1,
		Status:      models.OrderStatusPending,
	}
	if err := reopened.Orders.Create(next); err != nil {
		t.Fatalf("create after reopen failed: %v", err)
	}
	if next.ID != order.ID+1 {
		t.Errorf("expected ID %d after reopen, got %d", order.ID+1, next.ID)
	}
}

func TestCSVPositionStore(t *testing.T) {
	store := newTestCSVStore(t)

	position := &models.Position{
		Username:   "alice",
		Ticker:     "AAPL",
		Shares:     10,
		EntryPrice: 150.0,
	}

	t.Run("upsert creates", func(t *testing.T) {
		if err := store.Positions.Upsert(position); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		got, err := store.Positions.Get("alice", "AAPL")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Shares != 10 || got.EntryPrice != 150.0 {
			t.Errorf("unexpected position: %+v", got)
		}
	})

	t.Run("upsert replaces", func(t *testing.T) {
		updated := &models.Position{
			Username:   "alice",
			Ticker:     "AAPL",
			Shares:     20,
			EntryPrice: 150.0,
		}
		if err := store.Positions.Upsert(updated); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		positions, err := store.Positions.GetByUsername("alice")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if len(positions) != 1 {
			t.Fatalf("expected 1 position, got %d", len(positions))
		}
		if positions[0].Shares != 20 {
			t.Errorf("expected 20 shares, got %f", positions[0].Shares)
		}
	})

	t.Run("per-user portfolio files", func(t *testing.T) {
		other := &models.Position{
			Username:   "bob",
			Ticker:     "TSLA",
			Shares:     5,
			EntryPrice: 200.0,
		}
		if err := store.Positions.Upsert(other); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		positions, err := store.Positions.GetByUsername("alice")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		for _, p := range positions {
			if p.Ticker == "TSLA" {
				t.Error("bob's position leaked into alice's portfolio")
			}
		}
	})

	t.Run("remove", func(t *testing.T) {
		if err := store.Positions.Remove("alice", "AAPL"); err != nil {
			t.Fatalf("remove failed: %v", err)
		}

		_, err := store.Positions.Get("alice", "AAPL")
		if !errors.Is(err, ErrPositionNotFound) {
			t.Errorf("expected ErrPositionNotFound, got %v", err)
		}

		err = store.Positions.Remove("alice", "AAPL")
		if !errors.Is(err, ErrPositionNotFound) {
			t.Errorf("expected ErrPositionNotFound, got %v", err)
		}
	})
}

func TestCSVFilesOnDisk(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenCSV(dir)
	if err != nil {
		t.Fatalf("failed to open csv store: %v", err)
	}

	if err := store.Users.Create(&models.User{Username: "alice", PasswordHash: "hash"}); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if err := store.Positions.Upsert(&models.Position{Username: "alice", Ticker: "AAPL", Shares: 1, EntryPrice: 100}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	for _, name := range []string{"users.csv", "portfolio_alice.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}

func TestOpenUnknownStorageType(t *testing.T) {
	_, err := Open("mongodb", "", "")
	if err == nil {
		t.Fatal("expected error for unknown storage type")
	}
}
