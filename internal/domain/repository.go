package domain

import "context"

// KVStore is a durable key-value store for typed preference values.
// Operations are asynchronous with respect to the caller's world: reads
// may fail with transient I/O errors, which callers must treat as
// "value absent" (fail-open). A missing key returns the zero value and
// a nil error.
type KVStore interface {
	GetStringSet(ctx context.Context, key string) ([]string, error)
	PutStringSet(ctx context.Context, key string, values []string) error

	GetBool(ctx context.Context, key string) (bool, error)
	PutBool(ctx context.Context, key string, value bool) error

	GetInt64(ctx context.Context, key string) (int64, error)
	PutInt64(ctx context.Context, key string, value int64) error
}

// KVWatcher is an optional KVStore capability: a subscription channel
// that receives a signal immediately and then whenever the underlying
// store changes. The channel closes when ctx is canceled.
type KVWatcher interface {
	Changes(ctx context.Context) (<-chan struct{}, error)
}

// BlockerStore provides typed views over the persisted blocker state.
// Compound values (allowances, locks, last-disabled timestamps) are
// encoded as delimited strings inside string-set values; malformed
// entries are silently dropped on read.
type BlockerStore interface {
	// BlockedItems returns the set of blocked item ids.
	BlockedItems(ctx context.Context) (map[string]bool, error)

	// SetBlocked adds or removes an item from the blocked set.
	SetBlocked(ctx context.Context, itemID string, blocked bool) error

	// Allowances returns itemID -> allowUntil epoch millis, expired
	// entries included.
	Allowances(ctx context.Context) (map[string]int64, error)

	// SetAllowance overwrites any existing allowance for the item.
	SetAllowance(ctx context.Context, itemID string, allowUntilMillis int64) error

	// ClearAllowance removes the allowance for the item (idempotent).
	ClearAllowance(ctx context.Context, itemID string) error

	// ActivationLocks returns itemID -> lock, expired entries included.
	ActivationLocks(ctx context.Context) (map[string]ActivationLock, error)

	// SetActivationLock overwrites any existing lock for the item.
	SetActivationLock(ctx context.Context, itemID string, lock ActivationLock) error

	// ClearActivationLock removes the lock for the item (idempotent).
	ClearActivationLock(ctx context.Context, itemID string) error

	// LastDisabled returns itemID -> last blocked->unblocked transition
	// epoch millis.
	LastDisabled(ctx context.Context) (map[string]int64, error)

	// SetLastDisabled records the blocked->unblocked transition time.
	SetLastDisabled(ctx context.Context, itemID string, atMillis int64) error

	// LandingCompleted reports whether onboarding finished.
	LandingCompleted(ctx context.Context) (bool, error)

	// MarkLandingCompleted records that onboarding finished.
	MarkLandingCompleted(ctx context.Context) error
}

// FocusStore persists the focus accumulator.
type FocusStore interface {
	State(ctx context.Context) (FocusState, error)
	SetState(ctx context.Context, state FocusState) error
}

// CreditStore persists the single global credit ledger.
type CreditStore interface {
	Ledger(ctx context.Context) (CreditLedger, error)
	SetLedger(ctx context.Context, ledger CreditLedger) error
}

// InterceptStore keeps a bounded history of interception events,
// most recent first. The oldest entries are evicted past the bound.
type InterceptStore interface {
	Record(ctx context.Context, event InterceptEvent) error
	Recent(ctx context.Context, limit int) ([]InterceptEvent, error)
}

// FocusSessionStore keeps completed focus sessions.
type FocusSessionStore interface {
	Upsert(ctx context.Context, session FocusSession) error
	Recent(ctx context.Context, limit int) ([]FocusSession, error)
}

// LabelResolver maps an item id to its display label.
// Resolution failures are non-fatal; callers fall back to the raw id.
type LabelResolver interface {
	Resolve(itemID string) (string, error)
}

// OverlayRequest asks the UI boundary to present the block overlay.
// LockUntilMillis is zero when no activation lock is in effect.
type OverlayRequest struct {
	ItemID          string
	Label           string
	LockUntilMillis int64
}

// OverlayPresenter is the one-way handler -> UI boundary.
type OverlayPresenter interface {
	Present(ctx context.Context, req OverlayRequest)
}

// EventKind classifies foreground feed events. Only KindForeground is
// acted on; other kinds are delivered but ignored.
type EventKind string

const (
	KindForeground     EventKind = "foreground_changed"
	KindContentChanged EventKind = "content_changed"
)

// ForegroundEvent reports that an item moved to the foreground.
type ForegroundEvent struct {
	ItemID string
	Kind   EventKind
}

// ForegroundFeed is the external event source delivering foreground
// switches. The channel closes when the feed stops.
type ForegroundFeed interface {
	Events() <-chan ForegroundEvent
}

// KeyProvider abstracts the source of encryption keys for the
// encrypted preference store.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}
