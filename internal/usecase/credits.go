// Package usecase contains application business logic.
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

// DefaultCreditExpiryHours is the age past which earned credit starts
// decaying.
const DefaultCreditExpiryHours = 48

// Credits serializes all earn/spend/decay operations on the single
// global ledger. Concurrent spends racing one balance must go through
// the same instance.
type Credits struct {
	mu     sync.Mutex
	store  domain.CreditStore
	logger *zap.Logger
	now    func() time.Time
}

// NewCredits creates the ledger keeper.
func NewCredits(store domain.CreditStore, logger *zap.Logger) *Credits {
	return &Credits{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Earn appends an earn transaction. The balance caps at
// domain.MaxCreditsSeconds with the excess discarded.
func (c *Credits) Earn(ctx context.Context, seconds int64, metadata map[string]string) error {
	if seconds <= 0 {
		return fmt.Errorf("earn seconds must be positive, got %d", seconds)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ledger, err := c.store.Ledger(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	updated := ledger.Apply(c.newTxn(domain.TxnEarn, seconds, metadata))
	if err := c.store.SetLedger(ctx, updated); err != nil {
		return fmt.Errorf("failed to store ledger: %w", err)
	}
	c.logger.Info("credits earned",
		zap.Int64("seconds", seconds),
		zap.Int64("balance", updated.ClampedTotal()))
	return nil
}

// Spend appends a spend transaction if the balance covers it.
// An insufficient balance is a normal false result, not an error.
func (c *Credits) Spend(ctx context.Context, seconds int64, metadata map[string]string) (bool, error) {
	if seconds <= 0 {
		return false, fmt.Errorf("spend seconds must be positive, got %d", seconds)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ledger, err := c.store.Ledger(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load ledger: %w", err)
	}
	if !ledger.CanSpend(seconds) {
		c.logger.Debug("spend declined, insufficient credits",
			zap.Int64("requested", seconds),
			zap.Int64("balance", ledger.ClampedTotal()))
		return false, nil
	}
	updated := ledger.Apply(c.newTxn(domain.TxnSpend, seconds, metadata))
	if err := c.store.SetLedger(ctx, updated); err != nil {
		return false, fmt.Errorf("failed to store ledger: %w", err)
	}
	c.logger.Info("credits spent",
		zap.Int64("seconds", seconds),
		zap.Int64("balance", updated.ClampedTotal()))
	return true, nil
}

// Decay applies a half-life sweep: every earn transaction older than
// expiryHours contributes max(seconds/2, 1) to a single decay
// transaction. Decayed earns are not tagged as consumed, so overlapping
// sweeps count the same stale earns again.
func (c *Credits) Decay(ctx context.Context, expiryHours int) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ledger, err := c.store.Ledger(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load ledger: %w", err)
	}

	cutoff := c.now().Add(-time.Duration(expiryHours) * time.Hour)
	var decaySeconds int64
	for _, txn := range ledger.Transactions {
		if txn.Type != domain.TxnEarn || !txn.Timestamp.Before(cutoff) {
			continue
		}
		half := txn.Seconds / 2
		if half < 1 {
			half = 1
		}
		decaySeconds += half
	}
	if decaySeconds <= 0 {
		return 0, nil
	}

	updated := ledger.Apply(c.newTxn(domain.TxnDecay, decaySeconds, map[string]string{"reason": "decay"}))
	if err := c.store.SetLedger(ctx, updated); err != nil {
		return 0, fmt.Errorf("failed to store ledger: %w", err)
	}
	c.logger.Info("credits decayed",
		zap.Int64("seconds", decaySeconds),
		zap.Int64("balance", updated.ClampedTotal()))
	return decaySeconds, nil
}

// Balance returns the clamped spendable balance.
func (c *Credits) Balance(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ledger, err := c.store.Ledger(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load ledger: %w", err)
	}
	return ledger.ClampedTotal(), nil
}

func (c *Credits) newTxn(txnType domain.CreditTransactionType, seconds int64, metadata map[string]string) domain.CreditTransaction {
	return domain.CreditTransaction{
		ID:        uuid.NewString(),
		Type:      txnType,
		Seconds:   seconds,
		Timestamp: c.now(),
		Metadata:  metadata,
	}
}
