package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Deposit request model
type Deposit struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Coin      string          `json:"coin"`
	Amount    decimal.Decimal `json:"amount"`
	Address   string          `json:"address"`
	TxProof   string          `json:"tx_proof,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	DecidedAt *time.Time      `json:"decided_at,omitempty"`
}

// Withdrawal request model
type Withdrawal struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Coin      string          `json:"coin"`
	Amount    decimal.Decimal `json:"amount"`
	Address   string          `json:"address"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	DecidedAt *time.Time      `json:"decided_at,omitempty"`
}

func scanDeposits(rows pgx.Rows) ([]Deposit, error) {
	var out []Deposit
	for rows.Next() {
		var d Deposit
		var rawAmount string
		var proof *string
		if err := rows.Scan(&d.ID, &d.UserID, &d.Coin, &rawAmount, &d.Address, &proof, &d.Status, &d.CreatedAt, &d.DecidedAt); err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(rawAmount)
		if err != nil {
			return nil, err
		}
		d.Amount = amount
		if proof != nil {
			d.TxProof = *proof
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanWithdrawals(rows pgx.Rows) ([]Withdrawal, error) {
	var out []Withdrawal
	for rows.Next() {
		var w Withdrawal
		var rawAmount string
		if err := rows.Scan(&w.ID, &w.UserID, &w.Coin, &rawAmount, &w.Address, &w.Status, &w.CreatedAt, &w.DecidedAt); err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(rawAmount)
		if err != nil {
			return nil, err
		}
		w.Amount = amount
		out = append(out, w)
	}
	return out, rows.Err()
}
