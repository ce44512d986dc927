package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const marketsBody = `[
	{"id": "bitcoin", "symbol": "btc", "name": "Bitcoin", "image": "https://img/btc.png", "current_price": 64000.5},
	{"id": "ethereum", "symbol": "eth", "name": "Ethereum", "image": "https://img/eth.png", "current_price": 3200},
	{"id": "ghost", "symbol": "gst", "name": "Ghost", "image": "", "current_price": null},
	{"id": "tether", "symbol": "usdt", "name": "Tether", "image": "https://img/usdt.png", "current_price": 1.0}
]`

func TestFetchTopAssets(t *testing.T) {
	var gotQuery string
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/markets" {
			t.Errorf("path = %q, want /coins/markets", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("x-cg-demo-api-key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(marketsBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, "demo-key", 0, 1)
	assets, err := client.FetchTopAssets(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotKey != "demo-key" {
		t.Errorf("api key header = %q, want demo-key", gotKey)
	}
	for _, want := range []string{"vs_currency=usd", "order=market_cap_desc", "per_page=100"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}

	if len(assets) != 3 {
		t.Fatalf("len(assets) = %d, want 3 (priceless coin skipped)", len(assets))
	}
	if assets[0].ID != "bitcoin" || assets[0].PriceUSD != 64000.5 {
		t.Errorf("assets[0] = %+v", assets[0])
	}
	if assets[1].Symbol != "eth" || assets[1].Image != "https://img/eth.png" {
		t.Errorf("assets[1] = %+v", assets[1])
	}
	if assets[2].ID != "tether" {
		t.Errorf("order not preserved, assets[2] = %+v", assets[2])
	}
}

func TestFetchTopAssetsClampsLimit(t *testing.T) {
	var perPage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		perPage = r.URL.Query().Get("per_page")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0, 0)

	if _, err := client.FetchTopAssets(context.Background(), 1000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if perPage != "250" {
		t.Errorf("per_page = %q, want 250", perPage)
	}

	if _, err := client.FetchTopAssets(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if perPage != "1" {
		t.Errorf("per_page = %q, want 1", perPage)
	}
}

func TestFetchTopAssetsRetryOn429(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[{"id": "bitcoin", "symbol": "btc", "name": "Bitcoin", "current_price": 50000}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 10*time.Millisecond, 2)
	assets, err := client.FetchTopAssets(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if len(assets) != 1 || assets[0].PriceUSD != 50000 {
		t.Errorf("assets = %+v", assets)
	}
}

func TestFetchTopAssetsRateLimitExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Millisecond, 1)
	if _, err := client.FetchTopAssets(context.Background(), 10); err == nil {
		t.Fatal("expected error when every attempt is rate limited")
	}
}

func TestFetchTopAssetsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0, 3)
	if _, err := client.FetchTopAssets(context.Background(), 10); err == nil {
		t.Fatal("expected error on HTTP 500")
	}
}

func TestFetchTopAssetsContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(1 * time.Second)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	client := NewClient(server.URL, "", 0, 1)
	if _, err := client.FetchTopAssets(ctx, 10); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}
