package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
	"github.com/eliteGoblin/focusd/app_guard/internal/usecase"
)

// RunnerConfig holds the daemon loop configuration.
type RunnerConfig struct {
	DecaySweepInterval time.Duration // how often to run the credit decay sweep
	CreditExpiryHours  int           // earn age threshold for decay
}

// DefaultRunnerConfig returns the default loop configuration.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		DecaySweepInterval: 6 * time.Hour,
		CreditExpiryHours:  usecase.DefaultCreditExpiryHours,
	}
}

// Runner drives the daemon: it consumes the foreground feed into the
// handler and runs the periodic credit decay sweep.
type Runner struct {
	config  RunnerConfig
	feed    domain.ForegroundFeed
	handler *Handler
	credits *usecase.Credits
	logger  *zap.Logger
}

// NewRunner creates the daemon runner.
func NewRunner(
	config RunnerConfig,
	feed domain.ForegroundFeed,
	handler *Handler,
	credits *usecase.Credits,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		config:  config,
		feed:    feed,
		handler: handler,
		credits: credits,
		logger:  logger,
	}
}

// Run blocks until the context is canceled or the feed closes.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("appguard daemon started")
	defer r.handler.Close()

	decayTicker := time.NewTicker(r.config.DecaySweepInterval)
	defer decayTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("appguard daemon stopping")
			return ctx.Err()

		case event, ok := <-r.feed.Events():
			if !ok {
				r.logger.Info("foreground feed closed")
				return nil
			}
			r.handler.HandleEvent(ctx, event)

		case <-decayTicker.C:
			decayed, err := r.credits.Decay(ctx, r.config.CreditExpiryHours)
			if err != nil {
				r.logger.Warn("credit decay sweep failed", zap.Error(err))
			} else if decayed > 0 {
				r.logger.Info("credit decay sweep completed",
					zap.Int64("decayed_seconds", decayed))
			}
		}
	}
}
