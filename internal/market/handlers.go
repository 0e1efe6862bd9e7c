package market

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

var coinNames = map[string]string{
	"USDT": "Tether",
	"BTC":  "Bitcoin",
	"ETH":  "Ethereum",
	"BNB":  "BNB",
	"SOL":  "Solana",
	"XRP":  "XRP",
}

// Prices returns the current quote for every tradable pair.
func Prices(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"prices": Snapshot(context.Background())})
}

// Listings returns the coin catalog with live prices. USDT appears as the
// quote currency with no tradable pair of its own.
func Listings(c echo.Context) error {
	ctx := context.Background()

	type listing struct {
		Coin     string `json:"coin"`
		Name     string `json:"name"`
		Symbol   string `json:"symbol,omitempty"`
		Price    string `json:"price"`
		Tradable bool   `json:"tradable"`
	}
	listings := make([]listing, 0, len(Coins))
	for _, coin := range Coins {
		l := listing{
			Coin:     coin,
			Name:     coinNames[coin],
			Price:    Price(ctx, coin).String(),
			Tradable: coin != "USDT",
		}
		if l.Tradable {
			l.Symbol = SymbolFor(coin)
		}
		listings = append(listings, l)
	}
	return c.JSON(http.StatusOK, echo.Map{"listings": listings})
}
