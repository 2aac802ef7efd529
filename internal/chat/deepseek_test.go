package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestDeepSeekClient_Complete(t *testing.T) {
	t.Run("successful completion", func(t *testing.T) {
		var gotAuth string
		var gotReq chatRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/chat/completions" {
				t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
			}
			gotAuth = r.Header.Get("Authorization")
			if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Buy low, sell high."}}]}`))
		}))
		defer server.Close()

		client := NewDeepSeekClient("test-key", zap.NewNop(), WithDeepSeekBaseURL(server.URL))

		reply, err := client.Complete(context.Background(), "Any advice?")
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if reply != "Buy low, sell high." {
			t.Errorf("reply = %q", reply)
		}

		if gotAuth != "Bearer test-key" {
			t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer test-key")
		}
		if gotReq.Model != "deepseek-chat" {
			t.Errorf("model = %q, want deepseek-chat", gotReq.Model)
		}
		if gotReq.Temperature != 0.7 || gotReq.MaxTokens != 500 {
			t.Errorf("temperature = %v, max_tokens = %d, want 0.7 and 500", gotReq.Temperature, gotReq.MaxTokens)
		}
		if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", gotReq.Messages)
		}
	})

	t.Run("non-200 returns ErrUpstream", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewDeepSeekClient("bad-key", zap.NewNop(), WithDeepSeekBaseURL(server.URL))

		_, err := client.Complete(context.Background(), "Any advice?")
		if !errors.Is(err, ErrUpstream) {
			t.Errorf("error = %v, want ErrUpstream", err)
		}
	})

	t.Run("empty choices returns ErrUpstream", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}))
		defer server.Close()

		client := NewDeepSeekClient("test-key", zap.NewNop(), WithDeepSeekBaseURL(server.URL))

		_, err := client.Complete(context.Background(), "Any advice?")
		if !errors.Is(err, ErrUpstream) {
			t.Errorf("error = %v, want ErrUpstream", err)
		}
	})
}

func TestStockInfoClient_GetInfo(t *testing.T) {
	t.Run("known ticker", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/info/AAPL" {
				t.Errorf("path = %q, want /info/AAPL", r.URL.Path)
			}
			w.Write([]byte(`{"ticker":"AAPL","name":"Apple Inc.","price":165.4,"previous_close":163.0}`))
		}))
		defer server.Close()

		client := NewStockInfoClient(server.URL)

		info, err := client.GetInfo(context.Background(), "AAPL")
		if err != nil {
			t.Fatalf("GetInfo() error = %v", err)
		}
		if info.Name != "Apple Inc." || info.Price != 165.4 {
			t.Errorf("unexpected info: %+v", info)
		}
	})

	t.Run("404 maps to ErrTickerUnknown", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"No data found for ticker NOPE","code":"ticker_not_found"}`))
		}))
		defer server.Close()

		client := NewStockInfoClient(server.URL)

		_, err := client.GetInfo(context.Background(), "NOPE")
		if !errors.Is(err, ErrTickerUnknown) {
			t.Errorf("error = %v, want ErrTickerUnknown", err)
		}
	})
}
