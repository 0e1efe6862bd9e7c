// Package market serves spot prices for the supported coins. Lookups go
// through a short-lived Redis cache, then a chain of public tickers, and
// finally a static table, so a price is always returned.
package market

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tradebit/internal/config"
	"github.com/sudo-init-do/tradebit/internal/logger"
)

// Coins is the fixed set every account gets a balance row for at signup.
var Coins = []string{"USDT", "BTC", "ETH", "BNB", "SOL", "XRP"}

// Last-resort prices when every upstream is down.
var staticPrices = map[string]string{
	"USDT": "1",
	"BTC":  "65000",
	"ETH":  "3000",
	"BNB":  "550",
	"SOL":  "150",
	"XRP":  "0.6",
}

var rdb *redis.Client

// Init connects the price cache. A missing Redis only disables caching.
func Init() {
	rdb = redis.NewClient(&redis.Options{Addr: config.App.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Log.Warn("price cache redis unreachable, lookups go straight to upstreams", zap.Error(err))
	}
}

func IsSupportedCoin(coin string) bool {
	coin = strings.ToUpper(coin)
	for _, c := range Coins {
		if c == coin {
			return true
		}
	}
	return false
}

// SymbolFor maps a coin to its USDT ticker symbol, e.g. BTC -> BTCUSDT.
func SymbolFor(coin string) string {
	return strings.ToUpper(coin) + "USDT"
}

// CoinFromSymbol is the inverse of SymbolFor for tradable symbols.
func CoinFromSymbol(symbol string) (string, bool) {
	s := strings.ToUpper(symbol)
	coin := strings.TrimSuffix(s, "USDT")
	if coin == "" || coin == s || coin == "USDT" || !IsSupportedCoin(coin) {
		return "", false
	}
	return coin, true
}

// Price returns the USD price for a coin. It never fails: cache, then the
// upstream chain, then the static table.
func Price(ctx context.Context, coin string) decimal.Decimal {
	coin = strings.ToUpper(coin)
	if coin == "USDT" {
		return decimal.NewFromInt(1)
	}
	if p, ok := cacheGet(ctx, coin); ok {
		return p
	}
	p, err := fetchChain(ctx, coin)
	if err != nil {
		logger.Log.Warn("all price upstreams failed, serving static price",
			zap.String("coin", coin), zap.Error(err))
		return staticPrice(coin)
	}
	cacheSet(ctx, coin, p)
	return p
}

// Quote is one coin's spot price as served over REST and the ticker stream.
type Quote struct {
	Coin   string          `json:"coin"`
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// Snapshot returns quotes for every tradable coin.
func Snapshot(ctx context.Context) []Quote {
	quotes := make([]Quote, 0, len(Coins)-1)
	for _, c := range Coins {
		if c == "USDT" {
			continue
		}
		quotes = append(quotes, Quote{Coin: c, Symbol: SymbolFor(c), Price: Price(ctx, c)})
	}
	return quotes
}

func staticPrice(coin string) decimal.Decimal {
	raw, ok := staticPrices[coin]
	if !ok {
		return decimal.NewFromInt(1)
	}
	p, _ := decimal.NewFromString(raw)
	return p
}

func priceKey(coin string) string {
	return "price:" + coin
}

func cacheGet(ctx context.Context, coin string) (decimal.Decimal, bool) {
	if rdb == nil {
		return decimal.Zero, false
	}
	raw, err := rdb.Get(ctx, priceKey(coin)).Result()
	if err != nil {
		return decimal.Zero, false
	}
	p, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return p, true
}

func cacheSet(ctx context.Context, coin string, p decimal.Decimal) {
	if rdb == nil {
		return
	}
	_ = rdb.Set(ctx, priceKey(coin), p.String(), config.App.PriceCacheTTL).Err()
}
