package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Base URLs are vars so tests can point them at a local server.
var (
	binanceBaseURL       = "https://api.binance.com"
	coingeckoBaseURL     = "https://api.coingecko.com"
	cryptocompareBaseURL = "https://min-api.cryptocompare.com"
)

var httpClient = &http.Client{Timeout: 5 * time.Second}

var geckoIDs = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
	"BNB": "binancecoin",
	"SOL": "solana",
	"XRP": "ripple",
}

// fetchChain walks the upstreams in order and returns the first price.
func fetchChain(ctx context.Context, coin string) (decimal.Decimal, error) {
	p, binanceErr := fetchBinance(ctx, coin)
	if binanceErr == nil {
		return p, nil
	}
	p, geckoErr := fetchCoingecko(ctx, coin)
	if geckoErr == nil {
		return p, nil
	}
	p, compareErr := fetchCryptoCompare(ctx, coin)
	if compareErr == nil {
		return p, nil
	}
	return decimal.Zero, fmt.Errorf("binance: %v; coingecko: %v; cryptocompare: %v", binanceErr, geckoErr, compareErr)
}

func fetchBinance(ctx context.Context, coin string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", binanceBaseURL, SymbolFor(coin))
	var out struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := getJSON(ctx, url, &out); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(out.Price)
}

func fetchCoingecko(ctx context.Context, coin string) (decimal.Decimal, error) {
	id, ok := geckoIDs[coin]
	if !ok {
		return decimal.Zero, fmt.Errorf("no coingecko id for %s", coin)
	}
	url := fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=usd", coingeckoBaseURL, id)
	out := map[string]map[string]json.Number{}
	if err := getJSON(ctx, url, &out); err != nil {
		return decimal.Zero, err
	}
	raw, ok := out[id]["usd"]
	if !ok {
		return decimal.Zero, fmt.Errorf("coingecko response missing %s", id)
	}
	return decimal.NewFromString(raw.String())
}

func fetchCryptoCompare(ctx context.Context, coin string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/data/price?fsym=%s&tsyms=USD", cryptocompareBaseURL, coin)
	out := map[string]json.Number{}
	if err := getJSON(ctx, url, &out); err != nil {
		return decimal.Zero, err
	}
	raw, ok := out["USD"]
	if !ok {
		return decimal.Zero, fmt.Errorf("cryptocompare response missing USD")
	}
	return decimal.NewFromString(raw.String())
}

func getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
