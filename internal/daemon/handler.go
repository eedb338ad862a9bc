// Package daemon implements the foreground-switch handling loop.
package daemon

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
	"github.com/eliteGoblin/focusd/app_guard/internal/usecase"
)

// dedupWindow suppresses repeated overlay presentations for the same
// item on rapid repeated event delivery.
const dedupWindow = time.Second

// Handler consumes foreground-switch events and decides whether to
// request the block overlay. De-dup state and allowance-expiry timers
// are per-instance, not process globals.
type Handler struct {
	selfIDs   map[string]bool
	blocklist *usecase.Blocklist
	focus     *usecase.FocusTracker
	labels    domain.LabelResolver
	presenter domain.OverlayPresenter
	logger    *zap.Logger
	now       func() time.Time

	mu            sync.Mutex
	lastShownItem string
	lastShownAt   time.Time
	timers        map[string]*time.Timer
}

// NewHandler creates a handler. Events for any of selfIDs are ignored.
func NewHandler(
	selfIDs []string,
	blocklist *usecase.Blocklist,
	focus *usecase.FocusTracker,
	labels domain.LabelResolver,
	presenter domain.OverlayPresenter,
	logger *zap.Logger,
) *Handler {
	self := make(map[string]bool, len(selfIDs))
	for _, id := range selfIDs {
		self[id] = true
	}
	return &Handler{
		selfIDs:   self,
		blocklist: blocklist,
		focus:     focus,
		labels:    labels,
		presenter: presenter,
		logger:    logger,
		now:       time.Now,
		timers:    map[string]*time.Timer{},
	}
}

// HandleEvent processes one foreground event. Only foreground-changed
// events are acted on.
func (h *Handler) HandleEvent(ctx context.Context, event domain.ForegroundEvent) {
	if event.Kind != domain.KindForeground {
		return
	}
	itemID := event.ItemID
	if itemID == "" || h.selfIDs[itemID] {
		return
	}

	now := h.now()
	nowMillis := now.UnixMilli()

	// The three snapshot reads are independent keys; issue them
	// concurrently and join. Point-in-time, not transactional: minor
	// races are acceptable for soft enforcement.
	var (
		blocked    map[string]bool
		allowances map[string]int64
		locks      map[string]domain.ActivationLock
		wg         sync.WaitGroup
	)
	wg.Add(3)
	go func() { defer wg.Done(); blocked = h.blocklist.BlockedItems(ctx) }()
	go func() { defer wg.Done(); allowances = h.blocklist.Allowances(ctx) }()
	go func() { defer wg.Done(); locks = h.blocklist.Locks(ctx) }()
	wg.Wait()

	allowanceExpiry, hasAllowance := allowances[itemID]

	if !blocked[itemID] || hasAllowance {
		if err := h.focus.RecordActivity(ctx, now); err != nil {
			h.logger.Warn("failed to record activity", zap.Error(err))
		}
	} else {
		if err := h.focus.MarkBlocked(ctx, now); err != nil {
			h.logger.Warn("failed to mark blocked activity", zap.Error(err))
		}
	}

	if hasAllowance {
		if allowanceExpiry > nowMillis {
			h.scheduleAllowanceEnd(itemID, allowanceExpiry, h.resolveLabel(itemID))
			return
		}
		if err := h.blocklist.ClearAllowance(ctx, itemID); err != nil {
			h.logger.Warn("failed to clear expired allowance",
				zap.String("item", itemID), zap.Error(err))
		}
		h.cancelAllowanceTimer(itemID)
	} else {
		h.cancelAllowanceTimer(itemID)
	}

	lock, hasLock := locks[itemID]

	if !blocked[itemID] {
		h.mu.Lock()
		if h.lastShownItem == itemID {
			h.lastShownItem = ""
			h.lastShownAt = time.Time{}
		}
		h.mu.Unlock()
		return
	}

	h.mu.Lock()
	if h.lastShownItem == itemID && now.Sub(h.lastShownAt) < dedupWindow {
		h.mu.Unlock()
		return
	}
	h.lastShownItem = itemID
	h.lastShownAt = now
	h.mu.Unlock()

	label := h.resolveLabel(itemID)
	h.cancelAllowanceTimer(itemID)

	req := domain.OverlayRequest{ItemID: itemID, Label: label}
	if hasLock {
		req.LockUntilMillis = lock.LockUntilMillis
	}
	h.presenter.Present(ctx, req)
}

// Close cancels all pending allowance timers.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, timer := range h.timers {
		timer.Stop()
		delete(h.timers, id)
	}
}

// scheduleAllowanceEnd arms a one-shot re-check at the allowance expiry
// instant. At most one timer per item; a new schedule cancels and
// replaces the prior one. On firing, the allowance is re-validated: it
// may have been extended concurrently, in which case the timer
// reschedules instead of presenting.
func (h *Handler) scheduleAllowanceEnd(itemID string, expiryMillis int64, label string) {
	delay := time.Duration(expiryMillis-h.now().UnixMilli()) * time.Millisecond
	if delay <= 0 {
		h.presentAfterAllowance(itemID, label)
		return
	}

	timer := time.AfterFunc(delay, func() {
		ctx := context.Background()
		current, ok := h.blocklist.Allowances(ctx)[itemID]
		if ok && current > h.now().UnixMilli() {
			h.scheduleAllowanceEnd(itemID, current, label)
			return
		}
		if err := h.blocklist.ClearAllowance(ctx, itemID); err != nil {
			h.logger.Warn("failed to clear expired allowance",
				zap.String("item", itemID), zap.Error(err))
		}
		h.presentAfterAllowance(itemID, label)
	})

	h.mu.Lock()
	if prior, ok := h.timers[itemID]; ok {
		prior.Stop()
	}
	h.timers[itemID] = timer
	h.mu.Unlock()
}

// presentAfterAllowance re-reads the lock so the overlay carries the
// current lock-until time.
func (h *Handler) presentAfterAllowance(itemID, label string) {
	ctx := context.Background()
	req := domain.OverlayRequest{ItemID: itemID, Label: label}
	if lock, ok := h.blocklist.Locks(ctx)[itemID]; ok {
		req.LockUntilMillis = lock.LockUntilMillis
	}
	h.presenter.Present(ctx, req)
}

func (h *Handler) cancelAllowanceTimer(itemID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if timer, ok := h.timers[itemID]; ok {
		timer.Stop()
		delete(h.timers, itemID)
	}
}

// resolveLabel falls back to the raw id when lookup fails.
func (h *Handler) resolveLabel(itemID string) string {
	label, err := h.labels.Resolve(itemID)
	if err != nil {
		return itemID
	}
	return label
}
