package domain

import "time"

// MaxCreditsSeconds caps the spendable balance at 180 minutes.
const MaxCreditsSeconds int64 = 180 * 60

// CreditTransactionType classifies ledger transactions.
type CreditTransactionType string

const (
	TxnEarn  CreditTransactionType = "earn"
	TxnSpend CreditTransactionType = "spend"
	TxnDecay CreditTransactionType = "decay"
)

// CreditTransaction is one append-only ledger entry.
type CreditTransaction struct {
	ID        string
	Type      CreditTransactionType
	Seconds   int64
	Timestamp time.Time
	Metadata  map[string]string
}

// CreditLedger tracks the user's earned and spent focus credits.
// TotalSeconds reflects the cumulative application of all transactions,
// clamped to [0, MaxCreditsSeconds] after each application.
type CreditLedger struct {
	TotalSeconds int64
	Transactions []CreditTransaction
}

// ClampedTotal returns the balance coerced into [0, MaxCreditsSeconds].
func (l CreditLedger) ClampedTotal() int64 {
	if l.TotalSeconds < 0 {
		return 0
	}
	if l.TotalSeconds > MaxCreditsSeconds {
		return MaxCreditsSeconds
	}
	return l.TotalSeconds
}

// CanSpend reports whether the clamped balance covers the given seconds.
func (l CreditLedger) CanSpend(seconds int64) bool {
	return l.ClampedTotal() >= seconds
}

// Apply appends a transaction and returns the updated ledger.
// Earns cap at MaxCreditsSeconds with the excess discarded; spends and
// decays floor at zero.
func (l CreditLedger) Apply(txn CreditTransaction) CreditLedger {
	total := l.ClampedTotal()
	switch txn.Type {
	case TxnEarn:
		total += txn.Seconds
		if total > MaxCreditsSeconds {
			total = MaxCreditsSeconds
		}
	case TxnSpend, TxnDecay:
		total -= txn.Seconds
		if total < 0 {
			total = 0
		}
	}
	txns := make([]CreditTransaction, len(l.Transactions), len(l.Transactions)+1)
	copy(txns, l.Transactions)
	return CreditLedger{
		TotalSeconds: total,
		Transactions: append(txns, txn),
	}
}
