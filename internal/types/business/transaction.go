package business

import "fmt"

// TransactionStatus is the lifecycle state of a tax transaction.
// Transitions are one-directional: calculated -> committed -> voided|refunded.
type TransactionStatus string

const (
	TransactionStatusCalculated TransactionStatus = "calculated"
	TransactionStatusCommitted  TransactionStatus = "committed"
	TransactionStatusVoided     TransactionStatus = "voided"
	TransactionStatusRefunded   TransactionStatus = "refunded"
)

// CanTransitionTo reports whether moving to the target status is legal.
// A committed transaction's financial facts never mutate; voids and
// refunds only append compensating entries.
func (s TransactionStatus) CanTransitionTo(target TransactionStatus) bool {
	switch s {
	case TransactionStatusCalculated:
		return target == TransactionStatusCommitted
	case TransactionStatusCommitted:
		return target == TransactionStatusVoided || target == TransactionStatusRefunded
	}
	return false
}

// EntryDirection is the debit/credit flag on a ledger entry.
type EntryDirection string

const (
	DirectionDebit  EntryDirection = "debit"
	DirectionCredit EntryDirection = "credit"
)

// Opposite returns the reversing direction, used when building
// compensating entries.
func (d EntryDirection) Opposite() EntryDirection {
	if d == DirectionDebit {
		return DirectionCredit
	}
	return DirectionDebit
}

// ParseEntryDirection rejects unknown directions at the boundary.
func ParseEntryDirection(s string) (EntryDirection, error) {
	switch EntryDirection(s) {
	case DirectionDebit, DirectionCredit:
		return EntryDirection(s), nil
	}
	return "", fmt.Errorf("unknown entry direction: %q", s)
}

// Chart-of-account codes used by the lifecycle manager when building
// ledger entries. The full account set lives in the ledger_accounts table.
const (
	AccountCash           = "1001" // platform cash clearing
	AccountCreatorPayable = "2200" // net proceeds owed to the creator
	AccountTaxLiability   = "2400" // tax collected, owed to jurisdictions
)
