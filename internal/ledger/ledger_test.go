package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/testutil"
)

func begin(t *testing.T, ctx context.Context) pgx.Tx {
	t.Helper()
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return tx
}

func amountIn(t *testing.T, ctx context.Context, table string, userID uuid.UUID, coin string) decimal.Decimal {
	t.Helper()
	var raw string
	err := db.Conn.QueryRow(ctx,
		fmt.Sprintf(`SELECT amount::text FROM %s WHERE user_id = $1 AND coin = $2`, table),
		userID, coin,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero
	}
	if err != nil {
		t.Fatalf("read %s: %v", table, err)
	}
	return decimal.RequireFromString(raw)
}

func TestCreditDebitRoundTrip(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()
	userID := testutil.CreateUser(t, ctx, "ledger_roundtrip")
	defer testutil.CleanupUser(ctx, userID)

	tx := begin(t, ctx)
	defer tx.Rollback(ctx)

	// First credit creates the row.
	bal, err := Credit(ctx, tx, userID, "USDT", decimal.RequireFromString("100.5"))
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if !bal.Equal(decimal.RequireFromString("100.5")) {
		t.Fatalf("expected 100.5 after credit, got %s", bal)
	}

	bal, err = Debit(ctx, tx, userID, "USDT", decimal.RequireFromString("40.25"))
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !bal.Equal(decimal.RequireFromString("60.25")) {
		t.Fatalf("expected 60.25 after debit, got %s", bal)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if got := amountIn(t, ctx, "balances", userID, "USDT"); !got.Equal(decimal.RequireFromString("60.25")) {
		t.Fatalf("committed balance %s, want 60.25", got)
	}
}

func TestDebitInsufficient(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()
	userID := testutil.CreateUser(t, ctx, "ledger_insufficient")
	defer testutil.CleanupUser(ctx, userID)

	// No balance row at all.
	tx := begin(t, ctx)
	_, err := Debit(ctx, tx, userID, "BTC", decimal.NewFromInt(1))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds on missing row, got %v", err)
	}
	_ = tx.Rollback(ctx)

	// Row exists but holds less than requested.
	testutil.SetBalance(t, ctx, userID, "BTC", "0.5")
	tx = begin(t, ctx)
	_, err = Debit(ctx, tx, userID, "BTC", decimal.RequireFromString("0.50000001"))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds on short balance, got %v", err)
	}
	_ = tx.Rollback(ctx)

	if got := amountIn(t, ctx, "balances", userID, "BTC"); !got.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("failed debit must not move funds, balance is %s", got)
	}
}

func TestNegativeAmountsRejected(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()
	userID := testutil.CreateUser(t, ctx, "ledger_negative")
	defer testutil.CleanupUser(ctx, userID)

	tx := begin(t, ctx)
	defer tx.Rollback(ctx)

	if _, err := Credit(ctx, tx, userID, "USDT", decimal.NewFromInt(-1)); err == nil {
		t.Fatalf("expected error for negative credit")
	}
	if _, err := Debit(ctx, tx, userID, "USDT", decimal.NewFromInt(-1)); err == nil {
		t.Fatalf("expected error for negative debit")
	}
}

func TestEarnTransfers(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()
	userID := testutil.CreateUser(t, ctx, "ledger_earn")
	defer testutil.CleanupUser(ctx, userID)

	testutil.SetBalance(t, ctx, userID, "ETH", "50")

	tx := begin(t, ctx)
	if err := TransferToEarn(ctx, tx, userID, "ETH", decimal.NewFromInt(30)); err != nil {
		t.Fatalf("to earn: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if got := amountIn(t, ctx, "balances", userID, "ETH"); !got.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("main balance %s, want 20", got)
	}
	if got := amountIn(t, ctx, "earn_positions", userID, "ETH"); !got.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("earn position %s, want 30", got)
	}

	// More than the position holds.
	tx = begin(t, ctx)
	err := TransferFromEarn(ctx, tx, userID, "ETH", decimal.NewFromInt(31))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	_ = tx.Rollback(ctx)

	tx = begin(t, ctx)
	if err := TransferFromEarn(ctx, tx, userID, "ETH", decimal.NewFromInt(30)); err != nil {
		t.Fatalf("from earn: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if got := amountIn(t, ctx, "balances", userID, "ETH"); !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("main balance %s, want 50", got)
	}
	if got := amountIn(t, ctx, "earn_positions", userID, "ETH"); !got.IsZero() {
		t.Fatalf("earn position %s, want 0", got)
	}
}

func TestRecordHistory(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()
	userID := testutil.CreateUser(t, ctx, "ledger_history")
	defer testutil.CleanupUser(ctx, userID)

	tx := begin(t, ctx)
	bal, err := Credit(ctx, tx, userID, "SOL", decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := RecordHistory(ctx, tx, userID, "SOL", bal, decimal.RequireFromString("150")); err != nil {
		t.Fatalf("record history: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var count int
	var raw string
	err = db.Conn.QueryRow(ctx, `
        SELECT COUNT(*), MAX(amount)::text FROM balance_history WHERE user_id = $1 AND coin = 'SOL'
    `, userID).Scan(&count, &raw)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	if count != 1 || !decimal.RequireFromString(raw).Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected one snapshot of 10, got count=%d amount=%s", count, raw)
	}
}

// Concurrent debits against one row must serialize on the row lock: the
// balance can hit zero but never go below it.
func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()
	userID := testutil.CreateUser(t, ctx, "ledger_concurrent")
	defer testutil.CleanupUser(ctx, userID)

	testutil.SetBalance(t, ctx, userID, "USDT", "50")

	const workers = 8
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := db.Conn.Begin(ctx)
			if err != nil {
				t.Errorf("begin: %v", err)
				return
			}
			_, err = Debit(ctx, tx, userID, "USDT", decimal.NewFromInt(10))
			if errors.Is(err, ErrInsufficientFunds) {
				_ = tx.Rollback(ctx)
				return
			}
			if err != nil {
				_ = tx.Rollback(ctx)
				t.Errorf("debit: %v", err)
				return
			}
			if err := tx.Commit(ctx); err != nil {
				t.Errorf("commit: %v", err)
				return
			}
			atomic.AddInt32(&wins, 1)
		}()
	}
	wg.Wait()

	if wins != 5 {
		t.Fatalf("expected exactly 5 debits to win, got %d", wins)
	}
	if got := amountIn(t, ctx, "balances", userID, "USDT"); !got.IsZero() {
		t.Fatalf("final balance %s, want 0", got)
	}
}
