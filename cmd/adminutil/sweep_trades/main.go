package main

import (
	"context"
	"fmt"
	"log"

	"github.com/sudo-init-do/tradebit/internal/config"
	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/jobs"
	"github.com/sudo-init-do/tradebit/internal/logger"
	"github.com/sudo-init-do/tradebit/internal/trade"
)

// sweep_trades enqueues settlement for every overdue position once and
// exits. Handy after an outage when the scheduled tasks were lost.
func main() {
	config.Load()
	logger.Init()
	db.Init()
	jobs.Init()
	defer jobs.Close()

	n, err := trade.SweepOverdue(context.Background())
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}

	fmt.Printf("Enqueued settlement for %d overdue trade(s).\n", n)
}
