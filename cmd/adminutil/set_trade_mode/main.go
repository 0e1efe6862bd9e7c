package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/sudo-init-do/tradebit/internal/config"
	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/logger"
	"github.com/sudo-init-do/tradebit/internal/trade"
)

// set_trade_mode flips the platform-wide settlement bias without going
// through the HTTP API.
// Usage:
//   go run cmd/adminutil/set_trade_mode/main.go -mode AUTO|ALL_WIN|ALL_LOSE
func main() {
	mode := flag.String("mode", "", "Platform trade mode: AUTO, ALL_WIN or ALL_LOSE")
	flag.Parse()

	m := strings.ToUpper(strings.TrimSpace(*mode))
	if m != trade.ModeAuto && m != trade.ModeAllWin && m != trade.ModeAllLose {
		log.Fatalf("usage: go run cmd/adminutil/set_trade_mode/main.go -mode AUTO|ALL_WIN|ALL_LOSE")
	}

	config.Load()
	logger.Init()
	db.Init()

	_, err := db.Conn.Exec(context.Background(), `
		INSERT INTO settings (key, value) VALUES ('trade_mode', $1)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, m)
	if err != nil {
		log.Fatalf("failed to set trade mode: %v", err)
	}

	fmt.Printf("Trade mode set to %s.\n", m)
}
