package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/niclashart/Streamlit-Stock-App/internal/bot"
)

func TestHubBroadcastExecution(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// Ждём регистрации клиента в hub
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client was not registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.BroadcastExecution(&bot.OrderExecution{
		OrderID:       1,
		Username:      "alice",
		Ticker:        "AAPL",
		Side:          "buy",
		TargetPrice:   170.0,
		Quantity:      10,
		ExecutedPrice: 165.0,
		ExecutedAt:    time.Now(),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var received OrderExecutedMessage
	if err := json.Unmarshal(message, &received); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if received.Type != MessageTypeOrderExecuted {
		t.Errorf("expected type %s, got %s", MessageTypeOrderExecuted, received.Type)
	}

	data, ok := received.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected data shape: %T", received.Data)
	}
	if data["ticker"] != "AAPL" {
		t.Errorf("expected ticker AAPL, got %v", data["ticker"])
	}
	if data["executed_price"] != 165.0 {
		t.Errorf("expected executed price 165.0, got %v", data["executed_price"])
	}
}

func TestHubClientCountAfterDisconnect(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 1 client, got %d", hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 0 clients after disconnect, got %d", hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
