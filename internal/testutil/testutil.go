// Package testutil wires the shared fixtures the integration tests use. The
// tests are opt-in: without RUN_DB_INTEGRATION=1 and a DATABASE_URL pointing
// at a disposable Postgres they skip instead of failing.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/tradebit/internal/config"
	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/logger"
)

// SetupDB skips the test unless integration runs are enabled, then connects
// the global pool and ensures the schema. Safe to call from every test in a
// package; only the first call does the work.
func SetupDB(t *testing.T) {
	t.Helper()

	if os.Getenv("RUN_DB_INTEGRATION") == "" {
		t.Skip("set RUN_DB_INTEGRATION=1 to run")
	}
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("set DATABASE_URL to a disposable test database")
	}
	if db.Conn != nil {
		return
	}

	config.Load()
	logger.Init()

	// Probe first so an unreachable database skips the run instead of
	// killing it: db.Init fatals on connection errors.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		t.Skipf("db connection failed: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("db ping failed: %v", err)
	}
	pool.Close()

	db.Init()
}

// CreateUser inserts a verified user with a unique email and returns its id.
func CreateUser(t *testing.T, ctx context.Context, suffix string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	email := fmt.Sprintf("%s_%s@example.com", suffix, id.String()[:8])
	_, err := db.Conn.Exec(ctx, `
        INSERT INTO users (id, name, email, password, role, verified)
        VALUES ($1, $2, $3, 'test-hash', 'user', TRUE)
    `, id, "Test "+suffix, email)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

// CleanupUser removes a user and everything hanging off it.
func CleanupUser(ctx context.Context, userID uuid.UUID) {
	tables := []string{
		"trades", "deposits", "withdrawals", "earn_positions", "trade_modes",
		"balance_history", "email_verifications", "kyc_submissions", "balances",
	}
	for _, table := range tables {
		_, _ = db.Conn.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, table), userID)
	}
	_, _ = db.Conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
}

// SetBalance forces the main balance for (user, coin) to an exact amount.
func SetBalance(t *testing.T, ctx context.Context, userID uuid.UUID, coin, amount string) {
	t.Helper()

	_, err := db.Conn.Exec(ctx, `
        INSERT INTO balances (user_id, coin, amount)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, coin) DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()
    `, userID, coin, amount)
	if err != nil {
		t.Fatalf("set balance: %v", err)
	}
}
