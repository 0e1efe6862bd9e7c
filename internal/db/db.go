package db

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tradebit/internal/logger"
)

var Conn *pgxpool.Pool

// Init connects to Postgres and ensures the schema the handlers rely on.
func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_NAME"),
		)
	}

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.Log.Fatal("unable to connect to database", zap.Error(err))
	}

	if err = Conn.Ping(context.Background()); err != nil {
		logger.Log.Fatal("unable to ping database", zap.Error(err))
	}

	logger.Log.Info("connected to Postgres")

	ensureUsersTable()
	ensureBalancesTable()
	ensureDepositsTable()
	ensureWithdrawalsTable()
	ensureTradesTable()
	ensureEarnPositionsTable()
	ensureTradeModesTable()
	ensureSettingsTable()
	ensureBalanceHistoryTable()
	ensureEmailVerificationsTable()
	ensureKYCSubmissionsTable()
}

func ensureUsersTable() {
	_, err := Conn.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
            verified BOOLEAN NOT NULL DEFAULT FALSE,
            kyc_status TEXT NOT NULL DEFAULT 'unverified' CHECK (kyc_status IN ('unverified', 'pending', 'approved', 'rejected')),
            avatar_url TEXT,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
    `)
	if err != nil {
		logger.Log.Error("failed to ensure users table", zap.Error(err))
	}
}

func ensureBalancesTable() {
	_, err := Conn.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS balances (
            user_id UUID NOT NULL REFERENCES users(id),
            coin TEXT NOT NULL,
            amount NUMERIC(32,8) NOT NULL DEFAULT 0 CHECK (amount >= 0),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (user_id, coin)
        );
    `)
	if err != nil {
		logger.Log.Error("failed to ensure balances table", zap.Error(err))
	}
}

func ensureDepositsTable() {
	_, err := Conn.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS deposits (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id),
            coin TEXT NOT NULL,
            amount NUMERIC(32,8) NOT NULL CHECK (amount > 0),
            address TEXT NOT NULL,
            tx_proof TEXT,
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            decided_at TIMESTAMPTZ
        );
        CREATE INDEX IF NOT EXISTS idx_deposits_user_created ON deposits(user_id, created_at);
        CREATE INDEX IF NOT EXISTS idx_deposits_pending ON deposits(status) WHERE status = 'pending';
    `)
	if err != nil {
		logger.Log.Error("failed to ensure deposits table", zap.Error(err))
	}
}

func ensureWithdrawalsTable() {
	_, err := Conn.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS withdrawals (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id),
            coin TEXT NOT NULL,
            amount NUMERIC(32,8) NOT NULL CHECK (amount > 0),
            address TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            decided_at TIMESTAMPTZ
        );
        CREATE INDEX IF NOT EXISTS idx_withdrawals_user_created ON withdrawals(user_id, created_at);
        CREATE INDEX IF NOT EXISTS idx_withdrawals_pending ON withdrawals(status) WHERE status = 'pending';
    `)
	if err != nil {
		logger.Log.Error("failed to ensure withdrawals table", zap.Error(err))
	}
}

func ensureTradesTable() {
	_, err := Conn.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS trades (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id),
            symbol TEXT NOT NULL,
            direction TEXT NOT NULL CHECK (direction IN ('BUY', 'SELL')),
            stake NUMERIC(32,8) NOT NULL CHECK (stake > 0),
            duration_secs INT NOT NULL,
            entry_price NUMERIC(32,8) NOT NULL,
            result TEXT NOT NULL DEFAULT 'PENDING' CHECK (result IN ('PENDING', 'WIN', 'LOSE')),
            profit NUMERIC(32,8),
            settle_price NUMERIC(32,8),
            opened_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            expires_at TIMESTAMPTZ NOT NULL,
            resolved_at TIMESTAMPTZ
        );
        CREATE INDEX IF NOT EXISTS idx_trades_user_opened ON trades(user_id, opened_at);
        CREATE INDEX IF NOT EXISTS idx_trades_pending_due ON trades(expires_at) WHERE result = 'PENDING';
    `)
	if err != nil {
		logger.Log.Error("failed to ensure trades table", zap.Error(err))
	}
}

func ensureEarnPositionsTable() {
	_, err := Conn.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS earn_positions (
            user_id UUID NOT NULL REFERENCES users(id),
            coin TEXT NOT NULL,
            amount NUMERIC(32,8) NOT NULL DEFAULT 0 CHECK (amount >= 0),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (user_id, coin)
        );
    `)
	if err != nil {
		logger.Log.Error("failed to ensure earn_positions table", zap.Error(err))
	}
}

func ensureTradeModesTable() {
	_, err := Conn.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS trade_modes (
            user_id UUID PRIMARY KEY REFERENCES users(id),
            mode TEXT NOT NULL CHECK (mode IN ('WIN', 'LOSE')),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
    `)
	if err != nil {
		logger.Log.Error("failed to ensure trade_modes table", zap.Error(err))
	}
}

func ensureSettingsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS settings (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
    `)
	if err != nil {
		logger.Log.Error("failed to ensure settings table", zap.Error(err))
		return
	}
	// Seed the global trade mode so reads never miss
	_, err = Conn.Exec(ctx, `
        INSERT INTO settings (key, value) VALUES ('trade_mode', 'AUTO')
        ON CONFLICT (key) DO NOTHING
    `)
	if err != nil {
		logger.Log.Error("failed to seed trade_mode setting", zap.Error(err))
	}
}

func ensureBalanceHistoryTable() {
	_, err := Conn.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS balance_history (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES users(id),
            coin TEXT NOT NULL,
            amount NUMERIC(32,8) NOT NULL,
            price_usd NUMERIC(32,8) NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_balance_history_user ON balance_history(user_id, created_at);
    `)
	if err != nil {
		logger.Log.Error("failed to ensure balance_history table", zap.Error(err))
	}
}

func ensureEmailVerificationsTable() {
	_, err := Conn.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS email_verifications (
            user_id UUID PRIMARY KEY REFERENCES users(id),
            code TEXT NOT NULL,
            expires_at TIMESTAMPTZ NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
    `)
	if err != nil {
		logger.Log.Error("failed to ensure email_verifications table", zap.Error(err))
	}
}

func ensureKYCSubmissionsTable() {
	_, err := Conn.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS kyc_submissions (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id),
            id_number TEXT NOT NULL,
            document_type TEXT NOT NULL,
            front_url TEXT NOT NULL,
            back_url TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
            reason TEXT,
            submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            reviewed_at TIMESTAMPTZ
        );
        CREATE INDEX IF NOT EXISTS idx_kyc_user ON kyc_submissions(user_id, submitted_at);
        CREATE INDEX IF NOT EXISTS idx_kyc_pending ON kyc_submissions(status) WHERE status = 'pending';
    `)
	if err != nil {
		logger.Log.Error("failed to ensure kyc_submissions table", zap.Error(err))
	}
}
