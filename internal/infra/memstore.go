package infra

import (
	"context"
	"sync"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

const keyCreditTotal = "credit_total_seconds"

// MemLedger is the in-memory CreditStore. The transaction log lives in
// memory; the clamped balance is written through to the KV store so it
// survives restarts, and seeds a fresh ledger on the next start.
type MemLedger struct {
	mu     sync.Mutex
	ledger domain.CreditLedger
	kv     domain.KVStore
}

// NewMemLedger creates a ledger store, seeding the balance from the KV
// store. A read failure seeds an empty ledger (fail-open).
func NewMemLedger(ctx context.Context, kv domain.KVStore) *MemLedger {
	total, err := kv.GetInt64(ctx, keyCreditTotal)
	if err != nil {
		total = 0
	}
	return &MemLedger{
		ledger: domain.CreditLedger{TotalSeconds: total},
		kv:     kv,
	}
}

func (m *MemLedger) Ledger(ctx context.Context) (domain.CreditLedger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger, nil
}

func (m *MemLedger) SetLedger(ctx context.Context, ledger domain.CreditLedger) error {
	m.mu.Lock()
	m.ledger = ledger
	m.mu.Unlock()
	return m.kv.PutInt64(ctx, keyCreditTotal, ledger.ClampedTotal())
}

// MemIntercepts is a bounded in-memory intercept history, most recent
// first. The oldest entries are evicted past the limit.
type MemIntercepts struct {
	mu     sync.Mutex
	events []domain.InterceptEvent
	limit  int
}

// NewMemIntercepts creates a history bounded to limit entries.
func NewMemIntercepts(limit int) *MemIntercepts {
	return &MemIntercepts{limit: limit}
}

func (m *MemIntercepts) Record(ctx context.Context, event domain.InterceptEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append([]domain.InterceptEvent{event}, m.events...)
	if len(m.events) > m.limit {
		m.events = m.events[:m.limit]
	}
	return nil
}

func (m *MemIntercepts) Recent(ctx context.Context, limit int) ([]domain.InterceptEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit > len(m.events) {
		limit = len(m.events)
	}
	out := make([]domain.InterceptEvent, limit)
	copy(out, m.events[:limit])
	return out, nil
}

// MemSessions is an in-memory focus session store, most recent first.
type MemSessions struct {
	mu       sync.Mutex
	sessions []domain.FocusSession
}

// NewMemSessions creates the store.
func NewMemSessions() *MemSessions {
	return &MemSessions{}
}

func (m *MemSessions) Upsert(ctx context.Context, session domain.FocusSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.sessions {
		if existing.ID == session.ID {
			m.sessions[i] = session
			return nil
		}
	}
	m.sessions = append([]domain.FocusSession{session}, m.sessions...)
	return nil
}

func (m *MemSessions) Recent(ctx context.Context, limit int) ([]domain.FocusSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit > len(m.sessions) {
		limit = len(m.sessions)
	}
	out := make([]domain.FocusSession, limit)
	copy(out, m.sessions[:limit])
	return out, nil
}

// Ensure the in-memory stores implement their interfaces.
var (
	_ domain.CreditStore       = (*MemLedger)(nil)
	_ domain.InterceptStore    = (*MemIntercepts)(nil)
	_ domain.FocusSessionStore = (*MemSessions)(nil)
)
