package alerts

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tradebit/internal/jobs"
	"github.com/sudo-init-do/tradebit/internal/logger"
)

// RegisterHandlers wires the email tasks into the shared worker mux.
func RegisterHandlers() {
	jobs.Handle(TaskWelcomeEmail, handleWelcomeEmail)
	jobs.Handle(TaskVerifyEmail, handleVerifyEmail)
	jobs.Handle(TaskPasswordReset, handlePasswordReset)
	jobs.Handle(TaskDepositDecision, handleDepositDecision)
	jobs.Handle(TaskWithdrawalDecision, handleWithdrawalDecision)
	jobs.Handle(TaskKYCDecision, handleKYCDecision)
}

// Handlers below parse payloads and deliver through the configured mailer.
// A returned error lets asynq retry the send.

func handleWelcomeEmail(_ context.Context, t *asynq.Task) error {
	var p WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		logger.Log.Error("welcome email send failed", zap.String("to", p.Email), zap.Error(err))
		return err
	}
	logger.Log.Info("welcome email sent", zap.String("to", p.Email), zap.String("user", p.UserID))
	return nil
}

func handleVerifyEmail(_ context.Context, t *asynq.Task) error {
	var p VerifyEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		logger.Log.Error("verification email send failed", zap.String("to", p.Email), zap.Error(err))
		return err
	}
	logger.Log.Info("verification email sent", zap.String("to", p.Email))
	return nil
}

func handlePasswordReset(_ context.Context, t *asynq.Task) error {
	var p PasswordResetPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		logger.Log.Error("password reset email send failed", zap.String("to", p.Email), zap.Error(err))
		return err
	}
	logger.Log.Info("password reset email sent", zap.String("to", p.Email))
	return nil
}

func handleDepositDecision(_ context.Context, t *asynq.Task) error {
	var p DepositDecisionPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		logger.Log.Error("deposit decision email send failed",
			zap.String("request", p.RequestID), zap.Error(err))
		return err
	}
	logger.Log.Info("deposit decision email sent",
		zap.String("request", p.RequestID), zap.Bool("approved", p.Approved))
	return nil
}

func handleWithdrawalDecision(_ context.Context, t *asynq.Task) error {
	var p WithdrawalDecisionPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		logger.Log.Error("withdrawal decision email send failed",
			zap.String("request", p.RequestID), zap.Error(err))
		return err
	}
	logger.Log.Info("withdrawal decision email sent",
		zap.String("request", p.RequestID), zap.Bool("approved", p.Approved))
	return nil
}

func handleKYCDecision(_ context.Context, t *asynq.Task) error {
	var p KYCDecisionPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		logger.Log.Error("kyc decision email send failed", zap.String("user", p.UserID), zap.Error(err))
		return err
	}
	logger.Log.Info("kyc decision email sent", zap.String("user", p.UserID), zap.String("status", p.Status))
	return nil
}
