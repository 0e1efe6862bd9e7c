// Package ledger is the settlement engine: every balance mutation on the
// platform goes through here, inside a caller-owned pgx transaction, under a
// row-level lock on the (user, coin) row. Amounts are shopspring decimals end
// to end; NUMERIC columns are written as strings and scanned through ::text so
// no float ever touches money.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	tableBalances = "balances"
	tableEarn     = "earn_positions"
)

// Credit adds amount to the user's main balance and returns the new balance.
// The balance row is created on first use.
func Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, coin string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("credit amount must not be negative")
	}
	cur, err := lockOrCreate(ctx, tx, tableBalances, userID, coin)
	if err != nil {
		return decimal.Zero, err
	}
	next := cur.Add(amount)
	if err := setAmount(ctx, tx, tableBalances, userID, coin, next); err != nil {
		return decimal.Zero, err
	}
	return next, nil
}

// Debit subtracts amount from the user's main balance and returns the new
// balance. A missing row or a balance below amount fails with
// ErrInsufficientFunds before anything is written.
func Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, coin string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("debit amount must not be negative")
	}
	cur, found, err := lockRow(ctx, tx, tableBalances, userID, coin)
	if err != nil {
		return decimal.Zero, err
	}
	if !found || cur.LessThan(amount) {
		return decimal.Zero, ErrInsufficientFunds
	}
	next := cur.Sub(amount)
	if err := setAmount(ctx, tx, tableBalances, userID, coin, next); err != nil {
		return decimal.Zero, err
	}
	return next, nil
}

// TransferToEarn moves amount from the main balance into the earn position.
func TransferToEarn(ctx context.Context, tx pgx.Tx, userID uuid.UUID, coin string, amount decimal.Decimal) error {
	return moveBetween(ctx, tx, userID, coin, amount, true)
}

// TransferFromEarn moves amount from the earn position back to the main balance.
func TransferFromEarn(ctx context.Context, tx pgx.Tx, userID uuid.UUID, coin string, amount decimal.Decimal) error {
	return moveBetween(ctx, tx, userID, coin, amount, false)
}

// RecordHistory appends a balance snapshot inside the caller's transaction so
// the snapshot commits (or rolls back) together with the mutation it records.
func RecordHistory(ctx context.Context, tx pgx.Tx, userID uuid.UUID, coin string, balance, priceUSD decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO balance_history (user_id, coin, amount, price_usd)
        VALUES ($1, $2, $3, $4)`,
		userID, coin, balance.String(), priceUSD.String(),
	)
	return err
}

// moveBetween is the two-sided transfer. Rows are always locked main-first so
// opposing transfers on the same (user, coin) cannot deadlock.
func moveBetween(ctx context.Context, tx pgx.Tx, userID uuid.UUID, coin string, amount decimal.Decimal, toEarn bool) error {
	if !amount.IsPositive() {
		return fmt.Errorf("transfer amount must be positive")
	}
	main, err := lockOrCreate(ctx, tx, tableBalances, userID, coin)
	if err != nil {
		return err
	}
	earn, err := lockOrCreate(ctx, tx, tableEarn, userID, coin)
	if err != nil {
		return err
	}

	var nextMain, nextEarn decimal.Decimal
	if toEarn {
		if main.LessThan(amount) {
			return ErrInsufficientFunds
		}
		nextMain, nextEarn = main.Sub(amount), earn.Add(amount)
	} else {
		if earn.LessThan(amount) {
			return ErrInsufficientFunds
		}
		nextMain, nextEarn = main.Add(amount), earn.Sub(amount)
	}

	if err := setAmount(ctx, tx, tableBalances, userID, coin, nextMain); err != nil {
		return err
	}
	return setAmount(ctx, tx, tableEarn, userID, coin, nextEarn)
}

// lockRow takes the row lock on (user, coin) and returns the current amount.
// found is false when no row exists yet.
func lockRow(ctx context.Context, tx pgx.Tx, table string, userID uuid.UUID, coin string) (decimal.Decimal, bool, error) {
	var raw string
	err := tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT amount::text FROM %s WHERE user_id = $1 AND coin = $2 FOR UPDATE`, table),
		userID, coin,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	amt, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse %s amount: %w", table, err)
	}
	return amt, true, nil
}

// lockOrCreate is lockRow plus zero-row creation for first use. The insert
// uses ON CONFLICT DO NOTHING so two first writers serialize instead of
// erroring; the second lock attempt then sees whichever row won.
func lockOrCreate(ctx context.Context, tx pgx.Tx, table string, userID uuid.UUID, coin string) (decimal.Decimal, error) {
	amt, found, err := lockRow(ctx, tx, table, userID, coin)
	if err != nil {
		return decimal.Zero, err
	}
	if found {
		return amt, nil
	}
	_, err = tx.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (user_id, coin, amount) VALUES ($1, $2, 0) ON CONFLICT (user_id, coin) DO NOTHING`, table),
		userID, coin,
	)
	if err != nil {
		return decimal.Zero, err
	}
	amt, found, err = lockRow(ctx, tx, table, userID, coin)
	if err != nil {
		return decimal.Zero, err
	}
	if !found {
		return decimal.Zero, fmt.Errorf("%s row vanished after insert", table)
	}
	return amt, nil
}

func setAmount(ctx context.Context, tx pgx.Tx, table string, userID uuid.UUID, coin string, amount decimal.Decimal) error {
	ct, err := tx.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET amount = $3, updated_at = NOW() WHERE user_id = $1 AND coin = $2`, table),
		userID, coin, amount.String(),
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
