package infra

import (
	"context"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

// LogPresenter is an OverlayPresenter that records presentation
// requests in the log. The graphical overlay lives outside this
// process; this is the boundary object the daemon talks to.
type LogPresenter struct {
	logger *zap.Logger
}

// NewLogPresenter creates the presenter.
func NewLogPresenter(logger *zap.Logger) *LogPresenter {
	return &LogPresenter{logger: logger}
}

func (p *LogPresenter) Present(ctx context.Context, req domain.OverlayRequest) {
	p.logger.Info("present block overlay",
		zap.String("item", req.ItemID),
		zap.String("label", req.Label),
		zap.Int64("lock_until_millis", req.LockUntilMillis))
}

// Ensure LogPresenter implements domain.OverlayPresenter.
var _ domain.OverlayPresenter = (*LogPresenter)(nil)
