package trade

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/testutil"
)

// insertExpiredTrade seeds a PENDING position whose window already closed.
func insertExpiredTrade(t *testing.T, ctx context.Context, userID uuid.UUID, direction, stake, entry string, durationSecs int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Conn.Exec(ctx, `
        INSERT INTO trades (id, user_id, symbol, direction, stake, duration_secs, entry_price, result, opened_at, expires_at)
        VALUES ($1, $2, 'BTCUSDT', $3, $4, $5, $6, 'PENDING', NOW() - INTERVAL '2 minutes', NOW() - INTERVAL '1 minute')
    `, id, userID, direction, stake, durationSecs, entry)
	if err != nil {
		t.Fatalf("insert trade: %v", err)
	}
	return id
}

func setUserMode(t *testing.T, ctx context.Context, userID uuid.UUID, mode string) {
	t.Helper()
	_, err := db.Conn.Exec(ctx, `
        INSERT INTO trade_modes (user_id, mode) VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET mode = EXCLUDED.mode, updated_at = NOW()
    `, userID, mode)
	if err != nil {
		t.Fatalf("set trade mode: %v", err)
	}
}

func readTrade(t *testing.T, ctx context.Context, id uuid.UUID) Trade {
	t.Helper()
	rows, err := db.Conn.Query(ctx, `SELECT `+SelectColumns+` FROM trades WHERE id = $1`, id)
	if err != nil {
		t.Fatalf("query trade: %v", err)
	}
	trades, err := ScanTrades(rows)
	if err != nil {
		t.Fatalf("scan trade: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	return trades[0]
}

func usdtBalance(t *testing.T, ctx context.Context, userID uuid.UUID) decimal.Decimal {
	t.Helper()
	var raw string
	err := db.Conn.QueryRow(ctx, `
        SELECT amount::text FROM balances WHERE user_id = $1 AND coin = 'USDT'
    `, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero
	}
	if err != nil {
		t.Fatalf("read balance: %v", err)
	}
	return decimal.RequireFromString(raw)
}

func TestResolveForcedWin(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()
	userID := testutil.CreateUser(t, ctx, "trade_win")
	defer testutil.CleanupUser(ctx, userID)

	setUserMode(t, ctx, userID, ModeWin)
	id := insertExpiredTrade(t, ctx, userID, DirectionBuy, "100", "64000", 60)

	if err := Resolve(ctx, id.String()); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	tr := readTrade(t, ctx, id)
	if tr.Result != ResultWin {
		t.Fatalf("expected WIN, got %s", tr.Result)
	}
	if tr.Profit == nil || !tr.Profit.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("60s win on 100 must pay 40, got %v", tr.Profit)
	}
	if tr.SettlePrice == nil || !tr.SettlePrice.GreaterThan(decimal.NewFromInt(64000)) {
		t.Fatalf("winning buy must settle above entry, got %v", tr.SettlePrice)
	}
	if tr.ResolvedAt == nil {
		t.Fatalf("resolved_at not set")
	}

	// Stake plus profit lands on the USDT balance.
	if got := usdtBalance(t, ctx, userID); !got.Equal(decimal.NewFromInt(140)) {
		t.Fatalf("balance %s after win, want 140", got)
	}

	// Settling again must be a no-op, not a second payout.
	if err := Resolve(ctx, id.String()); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if got := usdtBalance(t, ctx, userID); !got.Equal(decimal.NewFromInt(140)) {
		t.Fatalf("repeated resolve changed balance to %s", got)
	}
}

func TestResolveForcedLose(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()
	userID := testutil.CreateUser(t, ctx, "trade_lose")
	defer testutil.CleanupUser(ctx, userID)

	setUserMode(t, ctx, userID, ModeLose)
	id := insertExpiredTrade(t, ctx, userID, DirectionSell, "100", "64000", 300)

	if err := Resolve(ctx, id.String()); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	tr := readTrade(t, ctx, id)
	if tr.Result != ResultLose {
		t.Fatalf("expected LOSE, got %s", tr.Result)
	}
	if tr.Profit == nil || !tr.Profit.Equal(decimal.NewFromInt(-100)) {
		t.Fatalf("loss must record -100, got %v", tr.Profit)
	}
	if tr.SettlePrice == nil || !tr.SettlePrice.GreaterThan(decimal.NewFromInt(64000)) {
		t.Fatalf("losing sell must settle above entry, got %v", tr.SettlePrice)
	}

	// The stake was debited at open; a loss moves nothing back.
	if got := usdtBalance(t, ctx, userID); !got.IsZero() {
		t.Fatalf("loss credited balance: %s", got)
	}
}

func TestResolveAutoUsesMarket(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()
	userID := testutil.CreateUser(t, ctx, "trade_auto")
	defer testutil.CleanupUser(ctx, userID)

	// The platform setting may have been flipped by an earlier run.
	if _, err := db.Conn.Exec(ctx, `UPDATE settings SET value = 'AUTO' WHERE key = 'trade_mode'`); err != nil {
		t.Fatalf("reset trade mode: %v", err)
	}

	// Entries far outside any plausible BTC price make the AUTO comparison
	// deterministic without pinning the feed.
	winID := insertExpiredTrade(t, ctx, userID, DirectionBuy, "50", "0.00000001", 30)
	loseID := insertExpiredTrade(t, ctx, userID, DirectionBuy, "50", "999999999", 30)

	if err := Resolve(ctx, winID.String()); err != nil {
		t.Fatalf("resolve win: %v", err)
	}
	if err := Resolve(ctx, loseID.String()); err != nil {
		t.Fatalf("resolve lose: %v", err)
	}

	if tr := readTrade(t, ctx, winID); tr.Result != ResultWin {
		t.Fatalf("buy far below market should win, got %s", tr.Result)
	}
	if tr := readTrade(t, ctx, loseID); tr.Result != ResultLose {
		t.Fatalf("buy far above market should lose, got %s", tr.Result)
	}

	// 30s bucket pays 30 percent.
	if got := usdtBalance(t, ctx, userID); !got.Equal(decimal.NewFromInt(65)) {
		t.Fatalf("balance %s, want 65", got)
	}
}

func TestResolveGlobalAllWin(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()
	userID := testutil.CreateUser(t, ctx, "trade_allwin")
	defer testutil.CleanupUser(ctx, userID)

	if _, err := db.Conn.Exec(ctx, `UPDATE settings SET value = 'ALL_WIN' WHERE key = 'trade_mode'`); err != nil {
		t.Fatalf("set trade mode: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Conn.Exec(ctx, `UPDATE settings SET value = 'AUTO' WHERE key = 'trade_mode'`)
	})

	// Balance after a 10 stake was debited from 100 at open.
	testutil.SetBalance(t, ctx, userID, "USDT", "90")
	id := insertExpiredTrade(t, ctx, userID, DirectionBuy, "10", "64000", 30)

	if err := Resolve(ctx, id.String()); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if tr := readTrade(t, ctx, id); tr.Result != ResultWin {
		t.Fatalf("ALL_WIN must force a win, got %s", tr.Result)
	}
	// 30s pays 30 percent: 90 + 10 + 3.
	if got := usdtBalance(t, ctx, userID); !got.Equal(decimal.NewFromInt(103)) {
		t.Fatalf("balance %s, want 103", got)
	}
}

func TestResolveMissingTradeIsNoop(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()

	if err := Resolve(ctx, uuid.New().String()); err != nil {
		t.Fatalf("missing trade should be a no-op, got %v", err)
	}
}
