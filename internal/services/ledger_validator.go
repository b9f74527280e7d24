package services

import (
	"fmt"

	"taxengine-api/internal/db"
	"taxengine-api/internal/types/business"
)

// ValidateLedger enforces double-entry integrity on a proposed set of
// entries before anything is written: the set must be non-empty, every
// entry must reference a known active account and carry a positive amount,
// and debits must equal credits within each currency. A violation returns
// a LEDGER_VALIDATION_ERROR; the caller must not persist the entries.
func ValidateLedger(entries []db.LedgerEntry, accounts map[string]db.LedgerAccount) error {
	if len(entries) == 0 {
		return NewTaxError(CodeLedgerValidationError, "entry set is empty", nil)
	}

	balances := make(map[string]int64)
	for _, e := range entries {
		if _, ok := accounts[e.AccountCode]; !ok {
			return NewTaxError(CodeLedgerValidationError,
				fmt.Sprintf("unknown account code %s", e.AccountCode), nil)
		}
		if e.AmountCents <= 0 {
			return NewTaxError(CodeLedgerValidationError,
				fmt.Sprintf("non-positive amount on account %s", e.AccountCode), nil)
		}
		switch business.EntryDirection(e.Direction) {
		case business.DirectionDebit:
			balances[e.Currency] += e.AmountCents
		case business.DirectionCredit:
			balances[e.Currency] -= e.AmountCents
		default:
			return NewTaxError(CodeLedgerValidationError,
				fmt.Sprintf("unknown entry direction %q", e.Direction), nil)
		}
	}

	for currency, balance := range balances {
		if balance != 0 {
			return NewTaxError(CodeLedgerValidationError,
				fmt.Sprintf("debits and credits differ by %d minor units in %s", balance, currency), nil)
		}
	}
	return nil
}
