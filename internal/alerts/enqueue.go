package alerts

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sudo-init-do/tradebit/internal/config"
	"github.com/sudo-init-do/tradebit/internal/jobs"
)

// EnqueueWelcomeEmail schedules a welcome email to the user
func EnqueueWelcomeEmail(userID, email, name string) error {
	base := strings.TrimRight(config.App.PublicBaseURL, "/")

	subject := fmt.Sprintf("Welcome to TradeBit, %s!", name)
	body := fmt.Sprintf("Hi %s, thanks for joining TradeBit.\n\nOpen TradeBit: %s\n\nIf the link doesn't work, copy and paste the URL above.", name, base)

	payload := WelcomeEmailPayload{
		UserID:   userID,
		Name:     name,
		Email:    email,
		Envelope: EmailEnvelope{To: email, Subject: subject, Body: body},
		SentAt:   time.Now(),
	}
	b, _ := json.Marshal(payload)
	return jobs.Enqueue(asynq.NewTask(TaskWelcomeEmail, b), asynq.Queue(jobs.QueueEmails))
}

// EnqueueVerifyEmail sends the 6-digit verification code
func EnqueueVerifyEmail(userID, email, name, code string) error {
	subject := "Your TradeBit verification code"
	body := fmt.Sprintf("Hello %s,\n\nYour verification code is: %s\n\nIt expires in 15 minutes. If you did not sign up, ignore this email.\n\n- TradeBit Team", name, code)

	payload := VerifyEmailPayload{
		UserID:   userID,
		Email:    email,
		Code:     code,
		Envelope: EmailEnvelope{To: email, Subject: subject, Body: body},
		SentAt:   time.Now(),
	}
	b, _ := json.Marshal(payload)
	return jobs.Enqueue(asynq.NewTask(TaskVerifyEmail, b), asynq.Queue(jobs.QueueEmails))
}

// EnqueuePasswordReset schedules a password reset notification
func EnqueuePasswordReset(userID, email, resetURL, name string) error {
	subject := "Password reset instructions"
	body := fmt.Sprintf("Hello %s,\n\nWe received a request to reset your TradeBit password.\n\nTo proceed, open the link below:\n%s\n\nThis link expires in 30 minutes. If you did not request this, no action is required.\n\n- TradeBit Team", name, resetURL)

	payload := PasswordResetPayload{
		UserID:    userID,
		Email:     email,
		ResetURL:  resetURL,
		Envelope:  EmailEnvelope{To: email, Subject: subject, Body: body},
		Requested: time.Now(),
	}
	b, _ := json.Marshal(payload)
	return jobs.Enqueue(asynq.NewTask(TaskPasswordReset, b), asynq.Queue(jobs.QueueEmails))
}

// EnqueueDepositDecision notifies the user after an admin decides a deposit
func EnqueueDepositDecision(requestID, userID, email, coin, amount string, approved bool) error {
	subject := "Your deposit was rejected"
	body := fmt.Sprintf("Your deposit request for %s %s was rejected. Contact support if you believe this is wrong.", amount, coin)
	if approved {
		subject = "Your deposit has been credited"
		body = fmt.Sprintf("Your deposit of %s %s has been approved and credited to your balance.", amount, coin)
	}

	payload := DepositDecisionPayload{
		RequestID: requestID,
		UserID:    userID,
		Email:     email,
		Coin:      coin,
		Amount:    amount,
		Approved:  approved,
		Envelope:  EmailEnvelope{To: email, Subject: subject, Body: body},
		SentAt:    time.Now(),
	}
	b, _ := json.Marshal(payload)
	return jobs.Enqueue(asynq.NewTask(TaskDepositDecision, b), asynq.Queue(jobs.QueueEmails))
}

// EnqueueWithdrawalDecision notifies the user after an admin decides a withdrawal
func EnqueueWithdrawalDecision(requestID, userID, email, coin, amount string, approved bool) error {
	subject := "Your withdrawal was rejected"
	body := fmt.Sprintf("Your withdrawal request for %s %s was rejected. The funds remain in your balance.", amount, coin)
	if approved {
		subject = "Your withdrawal is on its way"
		body = fmt.Sprintf("Your withdrawal of %s %s has been approved and debited from your balance.", amount, coin)
	}

	payload := WithdrawalDecisionPayload{
		RequestID: requestID,
		UserID:    userID,
		Email:     email,
		Coin:      coin,
		Amount:    amount,
		Approved:  approved,
		Envelope:  EmailEnvelope{To: email, Subject: subject, Body: body},
		SentAt:    time.Now(),
	}
	b, _ := json.Marshal(payload)
	return jobs.Enqueue(asynq.NewTask(TaskWithdrawalDecision, b), asynq.Queue(jobs.QueueEmails))
}

// EnqueueKYCDecision notifies the user after identity review
func EnqueueKYCDecision(userID, email, status, reason string) error {
	subject := "Your identity verification was not approved"
	body := "Your identity documents could not be verified."
	if reason != "" {
		body += " Reason: " + reason
	}
	if status == "approved" {
		subject = "Your identity has been verified"
		body = "Your identity documents were reviewed and approved. Full access is now enabled."
	}

	payload := KYCDecisionPayload{
		UserID:   userID,
		Email:    email,
		Status:   status,
		Reason:   reason,
		Envelope: EmailEnvelope{To: email, Subject: subject, Body: body},
		SentAt:   time.Now(),
	}
	b, _ := json.Marshal(payload)
	return jobs.Enqueue(asynq.NewTask(TaskKYCDecision, b), asynq.Queue(jobs.QueueEmails))
}
