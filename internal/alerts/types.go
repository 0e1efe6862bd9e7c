package alerts

import "time"

// Task type constants
const (
	TaskWelcomeEmail       = "email:welcome"
	TaskVerifyEmail        = "email:verify"
	TaskPasswordReset      = "email:password_reset"
	TaskDepositDecision    = "email:deposit_decision"
	TaskWithdrawalDecision = "email:withdrawal_decision"
	TaskKYCDecision        = "email:kyc_decision"
)

// Common envelope for email notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Welcome email payload
type WelcomeEmailPayload struct {
	UserID   string        `json:"user_id"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Verification code payload
type VerifyEmailPayload struct {
	UserID   string        `json:"user_id"`
	Email    string        `json:"email"`
	Code     string        `json:"code"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Password reset payload
type PasswordResetPayload struct {
	UserID    string        `json:"user_id"`
	Email     string        `json:"email"`
	ResetURL  string        `json:"reset_url"`
	Envelope  EmailEnvelope `json:"envelope"`
	Requested time.Time     `json:"requested"`
}

// Deposit decision payload (sent after an admin approves or rejects)
type DepositDecisionPayload struct {
	RequestID string        `json:"request_id"`
	UserID    string        `json:"user_id"`
	Email     string        `json:"email"`
	Coin      string        `json:"coin"`
	Amount    string        `json:"amount"`
	Approved  bool          `json:"approved"`
	Envelope  EmailEnvelope `json:"envelope"`
	SentAt    time.Time     `json:"sent_at"`
}

// Withdrawal decision payload
type WithdrawalDecisionPayload struct {
	RequestID string        `json:"request_id"`
	UserID    string        `json:"user_id"`
	Email     string        `json:"email"`
	Coin      string        `json:"coin"`
	Amount    string        `json:"amount"`
	Approved  bool          `json:"approved"`
	Envelope  EmailEnvelope `json:"envelope"`
	SentAt    time.Time     `json:"sent_at"`
}

// KYC decision payload
type KYCDecisionPayload struct {
	UserID   string        `json:"user_id"`
	Email    string        `json:"email"`
	Status   string        `json:"status"`
	Reason   string        `json:"reason"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}
