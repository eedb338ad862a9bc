package infra

import (
	"context"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

// ProcessFeed is the desktop analog of a foreground-switch event source:
// it polls the process table via gopsutil and emits a foreground event
// whenever a process name appears that was not present on the previous
// scan. Scan failures are logged and skipped; the feed never stops on
// a transient error.
type ProcessFeed struct {
	interval time.Duration
	logger   *zap.Logger
	events   chan domain.ForegroundEvent
	seen     map[string]bool
}

// NewProcessFeed creates a feed polling at the given interval.
func NewProcessFeed(interval time.Duration, logger *zap.Logger) *ProcessFeed {
	return &ProcessFeed{
		interval: interval,
		logger:   logger,
		events:   make(chan domain.ForegroundEvent, 16),
		seen:     map[string]bool{},
	}
}

// Events returns the event channel. It closes when Run returns.
func (f *ProcessFeed) Events() <-chan domain.ForegroundEvent {
	return f.events
}

// Run polls until ctx is canceled.
func (f *ProcessFeed) Run(ctx context.Context) error {
	defer close(f.events)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			f.scan(ctx)
		}
	}
}

func (f *ProcessFeed) scan(ctx context.Context) {
	procs, err := process.Processes()
	if err != nil {
		f.logger.Warn("process scan failed", zap.Error(err))
		return
	}

	current := make(map[string]bool, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // process may have exited
		}
		name = strings.ToLower(name)
		if name == "" {
			continue
		}
		current[name] = true
		if f.seen[name] {
			continue
		}
		select {
		case f.events <- domain.ForegroundEvent{ItemID: name, Kind: domain.KindForeground}:
		case <-ctx.Done():
			return
		default:
			f.logger.Debug("event buffer full, dropping foreground event",
				zap.String("item", name))
		}
	}
	f.seen = current
}

// Ensure ProcessFeed implements domain.ForegroundFeed.
var _ domain.ForegroundFeed = (*ProcessFeed)(nil)
