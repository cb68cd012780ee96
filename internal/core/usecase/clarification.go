package usecase

import (
	"context"
	"log/slog"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
	"github.com/kirillkom/catalog-nlq/internal/core/ports"
)

// DefaultAccountRetryMax is the number of partial account readings tolerated
// before the caller is asked to type the id.
const DefaultAccountRetryMax = 2

const (
	MessageRepeatAccount  = "Please say the full account ID, for example: A C C one zero two seven."
	MessageTypeAccount    = "I couldn’t catch your full account ID. For your security, please type it in the account_id box."
	MessageProvideAccount = "Please say or type your account ID to continue."
)

// Clarifier drives the bounded account clarification protocol.
type Clarifier struct {
	store  ports.RetryStore
	max    int
	logger *slog.Logger
}

func NewClarifier(store ports.RetryStore, maxRetries int, logger *slog.Logger) *Clarifier {
	if maxRetries <= 0 {
		maxRetries = DefaultAccountRetryMax
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Clarifier{store: store, max: maxRetries, logger: logger}
}

// OnPartial registers one more partial account reading for callerID. When
// the bound is reached the counter resets and the caller is redirected to
// typed input.
func (c *Clarifier) OnPartial(ctx context.Context, callerID string) domain.Clarification {
	count, err := c.store.Increment(ctx, callerID)
	if err != nil {
		c.logger.Warn("account_retry_increment_failed", "caller_id", callerID, "error", err)
		return repeatPrompt(1)
	}
	if count >= c.max {
		if err := c.store.Reset(ctx, callerID); err != nil {
			c.logger.Warn("account_retry_reset_failed", "caller_id", callerID, "error", err)
		}
		c.logger.Info("clarify_account", "caller_id", callerID, "kind", domain.ClarifyTypeAccount)
		return domain.Clarification{
			Intent:     domain.IntentClarifyAccount,
			Message:    MessageTypeAccount,
			RetryCount: 0,
			Kind:       domain.ClarifyTypeAccount,
		}
	}
	c.logger.Info("clarify_account", "caller_id", callerID, "kind", domain.ClarifyRepeatAccount, "retry_count", count)
	return repeatPrompt(count)
}

// OnResolved clears the counter after an account id was captured.
func (c *Clarifier) OnResolved(ctx context.Context, callerID string) {
	if err := c.store.Reset(ctx, callerID); err != nil {
		c.logger.Warn("account_retry_reset_failed", "caller_id", callerID, "error", err)
	}
}

// MissingAccount asks for an account id without consuming a retry.
func (c *Clarifier) MissingAccount(ctx context.Context, callerID string) domain.Clarification {
	count, err := c.store.Get(ctx, callerID)
	if err != nil {
		c.logger.Warn("account_retry_read_failed", "caller_id", callerID, "error", err)
		count = 0
	}
	c.logger.Info("clarify_account", "caller_id", callerID, "kind", domain.ClarifyProvideAccount)
	return domain.Clarification{
		Intent:     domain.IntentClarifyAccount,
		Message:    MessageProvideAccount,
		RetryCount: count,
		Kind:       domain.ClarifyProvideAccount,
	}
}

func repeatPrompt(count int) domain.Clarification {
	return domain.Clarification{
		Intent:     domain.IntentClarifyAccount,
		Message:    MessageRepeatAccount,
		RetryCount: count,
		Kind:       domain.ClarifyRepeatAccount,
	}
}
