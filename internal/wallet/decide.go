package wallet

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/tradebit/internal/alerts"
	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/ledger"
	"github.com/sudo-init-do/tradebit/internal/market"
)

// DecideDeposit applies the one-time pending -> approved/rejected transition
// for a deposit. Approval credits the balance and appends the history
// snapshot in the same transaction; rejection only flips the status. A second
// decision on the same request fails with ledger.ErrAlreadyFinalized and has
// no effect on balances.
func DecideDeposit(ctx context.Context, id string, approve bool) (*Deposit, error) {
	// The history snapshot wants a USD price. Fetch it before any row lock.
	var coin string
	err := db.Conn.QueryRow(ctx, `SELECT coin FROM deposits WHERE id = $1`, id).Scan(&coin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var price decimal.Decimal
	if approve {
		price = market.Price(ctx, coin)
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var d Deposit
	var rawAmount string
	var proof *string
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, coin, amount::text, address, tx_proof, status, created_at
		FROM deposits WHERE id = $1 FOR UPDATE
	`, id).Scan(&d.ID, &d.UserID, &d.Coin, &rawAmount, &d.Address, &proof, &d.Status, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if d.Status != StatusPending {
		return nil, ledger.ErrAlreadyFinalized
	}
	if d.Amount, err = decimal.NewFromString(rawAmount); err != nil {
		return nil, err
	}
	if proof != nil {
		d.TxProof = *proof
	}

	newStatus := StatusRejected
	if approve {
		newStatus = StatusApproved
		newBal, err := ledger.Credit(ctx, tx, d.UserID, d.Coin, d.Amount)
		if err != nil {
			return nil, err
		}
		if err := ledger.RecordHistory(ctx, tx, d.UserID, d.Coin, newBal, price); err != nil {
			return nil, err
		}
	}

	if err := tx.QueryRow(ctx,
		`UPDATE deposits SET status = $2, decided_at = NOW() WHERE id = $1 RETURNING decided_at`,
		d.ID, newStatus,
	).Scan(&d.DecidedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	d.Status = newStatus

	notifyDecision(ctx, d.UserID.String(), func(email string) error {
		return alerts.EnqueueDepositDecision(d.ID.String(), d.UserID.String(), email, d.Coin, d.Amount.String(), approve)
	})
	return &d, nil
}

// DecideWithdrawal applies the one-time pending -> approved/rejected
// transition for a withdrawal. Approval debits the balance under the row lock
// with a sufficiency re-check: when the balance no longer covers the amount
// the transition aborts with ledger.ErrInsufficientFunds and the request
// stays pending. Rejection never touches balances.
func DecideWithdrawal(ctx context.Context, id string, approve bool) (*Withdrawal, error) {
	var coin string
	err := db.Conn.QueryRow(ctx, `SELECT coin FROM withdrawals WHERE id = $1`, id).Scan(&coin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var price decimal.Decimal
	if approve {
		price = market.Price(ctx, coin)
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var w Withdrawal
	var rawAmount string
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, coin, amount::text, address, status, created_at
		FROM withdrawals WHERE id = $1 FOR UPDATE
	`, id).Scan(&w.ID, &w.UserID, &w.Coin, &rawAmount, &w.Address, &w.Status, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if w.Status != StatusPending {
		return nil, ledger.ErrAlreadyFinalized
	}
	if w.Amount, err = decimal.NewFromString(rawAmount); err != nil {
		return nil, err
	}

	newStatus := StatusRejected
	if approve {
		newStatus = StatusApproved
		newBal, err := ledger.Debit(ctx, tx, w.UserID, w.Coin, w.Amount)
		if err != nil {
			// insufficient funds rolls everything back; the request stays pending
			return nil, err
		}
		if err := ledger.RecordHistory(ctx, tx, w.UserID, w.Coin, newBal, price); err != nil {
			return nil, err
		}
	}

	if err := tx.QueryRow(ctx,
		`UPDATE withdrawals SET status = $2, decided_at = NOW() WHERE id = $1 RETURNING decided_at`,
		w.ID, newStatus,
	).Scan(&w.DecidedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	w.Status = newStatus

	notifyDecision(ctx, w.UserID.String(), func(email string) error {
		return alerts.EnqueueWithdrawalDecision(w.ID.String(), w.UserID.String(), email, w.Coin, w.Amount.String(), approve)
	})
	return &w, nil
}

// notifyDecision looks up the user's email and fires the alert, best-effort.
func notifyDecision(ctx context.Context, userID string, enqueue func(email string) error) {
	var email string
	if err := db.Conn.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email); err == nil {
		_ = enqueue(email)
	}
}
