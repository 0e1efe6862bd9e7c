package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sudo-init-do/tradebit/internal/logger"
)

func jsonServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func failingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func overrideUpstreams(t *testing.T, binance, gecko, compare string) {
	t.Helper()
	prevBinance, prevGecko, prevCompare := binanceBaseURL, coingeckoBaseURL, cryptocompareBaseURL
	binanceBaseURL, coingeckoBaseURL, cryptocompareBaseURL = binance, gecko, compare
	t.Cleanup(func() {
		binanceBaseURL, coingeckoBaseURL, cryptocompareBaseURL = prevBinance, prevGecko, prevCompare
	})
}

func TestFetchChainPrefersBinance(t *testing.T) {
	geckoHits := 0
	gecko := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		geckoHits++
	}))
	defer gecko.Close()

	binance := jsonServer(t, `{"symbol":"BTCUSDT","price":"64000.10"}`)
	overrideUpstreams(t, binance.URL, gecko.URL, gecko.URL)

	p, err := fetchChain(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("fetchChain: %v", err)
	}
	if p.String() != "64000.1" {
		t.Fatalf("expected 64000.1, got %s", p)
	}
	if geckoHits != 0 {
		t.Fatalf("fallback upstream consulted %d times despite binance success", geckoHits)
	}
}

func TestFetchChainFallsBackToCoingecko(t *testing.T) {
	down := failingServer(t)
	gecko := jsonServer(t, `{"bitcoin":{"usd":64123.5}}`)
	overrideUpstreams(t, down.URL, gecko.URL, down.URL)

	p, err := fetchChain(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("fetchChain: %v", err)
	}
	if p.String() != "64123.5" {
		t.Fatalf("expected 64123.5, got %s", p)
	}
}

func TestFetchChainFallsBackToCryptoCompare(t *testing.T) {
	down := failingServer(t)
	compare := jsonServer(t, `{"USD":63999.9}`)
	overrideUpstreams(t, down.URL, down.URL, compare.URL)

	p, err := fetchChain(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("fetchChain: %v", err)
	}
	if p.String() != "63999.9" {
		t.Fatalf("expected 63999.9, got %s", p)
	}
}

func TestFetchChainReportsAllFailures(t *testing.T) {
	down := failingServer(t)
	overrideUpstreams(t, down.URL, down.URL, down.URL)

	_, err := fetchChain(context.Background(), "BTC")
	if err == nil {
		t.Fatalf("expected error when every upstream is down")
	}
}

func TestPriceServesStaticWhenUpstreamsFail(t *testing.T) {
	logger.Init()
	down := failingServer(t)
	overrideUpstreams(t, down.URL, down.URL, down.URL)

	p := Price(context.Background(), "BTC")
	if p.String() != "65000" {
		t.Fatalf("expected static 65000, got %s", p)
	}
}

func TestPriceUSDTIsAlwaysOne(t *testing.T) {
	// No upstream override: USDT must short-circuit before any fetch.
	p := Price(context.Background(), "usdt")
	if p.String() != "1" {
		t.Fatalf("expected 1, got %s", p)
	}
}
