package wallet

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/ledger"
	"github.com/sudo-init-do/tradebit/internal/testutil"
)

func insertDeposit(t *testing.T, ctx context.Context, userID uuid.UUID, coin, amount string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Conn.Exec(ctx, `
        INSERT INTO deposits (id, user_id, coin, amount, address, status)
        VALUES ($1, $2, $3, $4, 'test-address', 'pending')
    `, id, userID, coin, amount)
	if err != nil {
		t.Fatalf("insert deposit: %v", err)
	}
	return id
}

func insertWithdrawal(t *testing.T, ctx context.Context, userID uuid.UUID, coin, amount string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Conn.Exec(ctx, `
        INSERT INTO withdrawals (id, user_id, coin, amount, address, status)
        VALUES ($1, $2, $3, $4, 'test-address', 'pending')
    `, id, userID, coin, amount)
	if err != nil {
		t.Fatalf("insert withdrawal: %v", err)
	}
	return id
}

func mainBalance(t *testing.T, ctx context.Context, userID uuid.UUID, coin string) decimal.Decimal {
	t.Helper()
	var raw string
	err := db.Conn.QueryRow(ctx, `
        SELECT amount::text FROM balances WHERE user_id = $1 AND coin = $2
    `, userID, coin).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero
	}
	if err != nil {
		t.Fatalf("read balance: %v", err)
	}
	return decimal.RequireFromString(raw)
}

func withdrawalStatus(t *testing.T, ctx context.Context, id uuid.UUID) string {
	t.Helper()
	var status string
	if err := db.Conn.QueryRow(ctx, `SELECT status FROM withdrawals WHERE id = $1`, id).Scan(&status); err != nil {
		t.Fatalf("read withdrawal status: %v", err)
	}
	return status
}

func TestDecideDepositApprove(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()
	userID := testutil.CreateUser(t, ctx, "dep_approve")
	defer testutil.CleanupUser(ctx, userID)

	id := insertDeposit(t, ctx, userID, "BTC", "20")

	d, err := DecideDeposit(ctx, id.String(), true)
	if err != nil {
		t.Fatalf("approve deposit: %v", err)
	}
	if d.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", d.Status)
	}
	if d.DecidedAt == nil {
		t.Fatalf("decided_at not set")
	}
	if got := mainBalance(t, ctx, userID, "BTC"); !got.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("balance %s after approval, want 20", got)
	}

	// Exactly one snapshot, carrying the post-credit balance and a real price.
	var snapshots int
	var rawAmount, rawPrice *string
	if err := db.Conn.QueryRow(ctx, `
        SELECT COUNT(*), MAX(amount)::text, MAX(price_usd)::text
        FROM balance_history WHERE user_id = $1 AND coin = 'BTC'
    `, userID).Scan(&snapshots, &rawAmount, &rawPrice); err != nil {
		t.Fatalf("read history: %v", err)
	}
	if snapshots != 1 {
		t.Fatalf("expected 1 history snapshot, got %d", snapshots)
	}
	if got := decimal.RequireFromString(*rawAmount); !got.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("history amount %s, want 20", got)
	}
	if price := decimal.RequireFromString(*rawPrice); !price.IsPositive() {
		t.Fatalf("history price %s, want a positive USD price", price)
	}

	// A decided request stays decided.
	if _, err := DecideDeposit(ctx, id.String(), false); !errors.Is(err, ledger.ErrAlreadyFinalized) {
		t.Fatalf("expected ErrAlreadyFinalized, got %v", err)
	}
	if got := mainBalance(t, ctx, userID, "BTC"); !got.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("balance moved on repeated decision: %s", got)
	}
}

func TestDecideDepositReject(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()
	userID := testutil.CreateUser(t, ctx, "dep_reject")
	defer testutil.CleanupUser(ctx, userID)

	id := insertDeposit(t, ctx, userID, "BTC", "0.75")

	d, err := DecideDeposit(ctx, id.String(), false)
	if err != nil {
		t.Fatalf("reject deposit: %v", err)
	}
	if d.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", d.Status)
	}
	if got := mainBalance(t, ctx, userID, "BTC"); !got.IsZero() {
		t.Fatalf("rejection must not credit, balance is %s", got)
	}
}

func TestDecideDepositNotFound(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()

	_, err := DecideDeposit(ctx, uuid.New().String(), true)
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDecideWithdrawal(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()
	userID := testutil.CreateUser(t, ctx, "wd_decide")
	defer testutil.CleanupUser(ctx, userID)

	testutil.SetBalance(t, ctx, userID, "USDT", "100")

	// Approval re-checks the balance under the row lock; a short balance
	// rolls back and leaves the request pending.
	short := insertWithdrawal(t, ctx, userID, "USDT", "150")
	if _, err := DecideWithdrawal(ctx, short.String(), true); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := withdrawalStatus(t, ctx, short); got != StatusPending {
		t.Fatalf("short withdrawal should stay pending, got %s", got)
	}
	if got := mainBalance(t, ctx, userID, "USDT"); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("failed approval moved funds: %s", got)
	}

	ok := insertWithdrawal(t, ctx, userID, "USDT", "60")
	w, err := DecideWithdrawal(ctx, ok.String(), true)
	if err != nil {
		t.Fatalf("approve withdrawal: %v", err)
	}
	if w.Status != StatusApproved || w.DecidedAt == nil {
		t.Fatalf("withdrawal not finalized: status=%s decided_at=%v", w.Status, w.DecidedAt)
	}
	if got := mainBalance(t, ctx, userID, "USDT"); !got.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("balance %s after approval, want 40", got)
	}

	rejected := insertWithdrawal(t, ctx, userID, "USDT", "10")
	if _, err := DecideWithdrawal(ctx, rejected.String(), false); err != nil {
		t.Fatalf("reject withdrawal: %v", err)
	}
	if got := mainBalance(t, ctx, userID, "USDT"); !got.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("rejection must not touch the balance, got %s", got)
	}
	if _, err := DecideWithdrawal(ctx, rejected.String(), true); !errors.Is(err, ledger.ErrAlreadyFinalized) {
		t.Fatalf("expected ErrAlreadyFinalized, got %v", err)
	}
}

// Two admins approving the same withdrawal at once: the request row lock
// serializes them, so exactly one debit happens.
func TestDecideWithdrawalConcurrent(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()
	userID := testutil.CreateUser(t, ctx, "wd_concurrent")
	defer testutil.CleanupUser(ctx, userID)

	testutil.SetBalance(t, ctx, userID, "USDT", "50")
	id := insertWithdrawal(t, ctx, userID, "USDT", "50")

	var approved, conflicted int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := DecideWithdrawal(ctx, id.String(), true)
			switch {
			case err == nil:
				atomic.AddInt32(&approved, 1)
			case errors.Is(err, ledger.ErrAlreadyFinalized):
				atomic.AddInt32(&conflicted, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if approved != 1 || conflicted != 1 {
		t.Fatalf("expected 1 approval and 1 conflict, got %d and %d", approved, conflicted)
	}
	if got := mainBalance(t, ctx, userID, "USDT"); !got.IsZero() {
		t.Fatalf("balance %s after single approval of 50, want 0", got)
	}
}
