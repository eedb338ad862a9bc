// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"context"
	"sync"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

// ScriptedFeed is a ForegroundFeed driven by the test instead of the
// process table.
type ScriptedFeed struct {
	events chan domain.ForegroundEvent
}

// NewScriptedFeed creates a feed with room for buffered emissions.
func NewScriptedFeed() *ScriptedFeed {
	return &ScriptedFeed{events: make(chan domain.ForegroundEvent, 32)}
}

// Events implements domain.ForegroundFeed.
func (f *ScriptedFeed) Events() <-chan domain.ForegroundEvent {
	return f.events
}

// Foreground emits a foreground-changed event for the item.
func (f *ScriptedFeed) Foreground(itemID string) {
	f.events <- domain.ForegroundEvent{ItemID: itemID, Kind: domain.KindForeground}
}

// Close ends the feed, which stops a runner consuming it.
func (f *ScriptedFeed) Close() {
	close(f.events)
}

// ChannelPresenter is an OverlayPresenter that hands every request to
// the test through a channel while keeping a full record.
type ChannelPresenter struct {
	mu       sync.Mutex
	requests []domain.OverlayRequest
	Ch       chan domain.OverlayRequest
}

// NewChannelPresenter creates the presenter.
func NewChannelPresenter() *ChannelPresenter {
	return &ChannelPresenter{Ch: make(chan domain.OverlayRequest, 32)}
}

// Present implements domain.OverlayPresenter.
func (p *ChannelPresenter) Present(ctx context.Context, req domain.OverlayRequest) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	p.Ch <- req
}

// Requests returns a copy of everything presented so far.
func (p *ChannelPresenter) Requests() []domain.OverlayRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.OverlayRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

var (
	_ domain.ForegroundFeed   = (*ScriptedFeed)(nil)
	_ domain.OverlayPresenter = (*ChannelPresenter)(nil)
)
