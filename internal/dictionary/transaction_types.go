package dictionary

import "github.com/tinoosan/microfin/internal/ledger"

// TypeDef describes how a transaction type moves the books and which command records it.
type TypeDef struct {
	Code            ledger.TransactionType `json:"code"`
	Label           string                 `json:"label"`
	CashEffect      int                    `json:"cash_effect"`
	LiabilityEffect int                    `json:"liability_effect"`
	// Operation names the command that records the type. Reserved types cannot be
	// posted through the generic transaction command.
	Operation string `json:"operation"`
	Reserved  bool   `json:"reserved"`
}

var curated = []struct {
	code      ledger.TransactionType
	label     string
	operation string
	reserved  bool
}{
	{ledger.TxDisbursement, "Loan Disbursement", "disburse_loan", true},
	{ledger.TxCollection, "Loan Collection", "record_transaction", false},
	{ledger.TxSavings, "Savings Deposit", "record_transaction", false},
	{ledger.TxWithdrawal, "Savings Withdrawal", "record_transaction", false},
	{ledger.TxOpex, "Operating Expense", "record_transaction", false},
	{ledger.TxBankDeposit, "Bank Deposit", "record_bank_transaction", true},
	{ledger.TxBankWithdrawal, "Bank Withdrawal", "record_bank_transaction", true},
}

// TransactionTypes returns the catalogue in ledger display order.
func TransactionTypes() []TypeDef {
	out := make([]TypeDef, 0, len(curated))
	for _, c := range curated {
		cash, liab := c.code.Effect()
		out = append(out, TypeDef{
			Code:            c.code,
			Label:           c.label,
			CashEffect:      cash,
			LiabilityEffect: liab,
			Operation:       c.operation,
			Reserved:        c.reserved,
		})
	}
	return out
}

// IsReserved reports whether t must go through a dedicated command.
func IsReserved(t ledger.TransactionType) bool {
	for _, c := range curated {
		if c.code == t {
			return c.reserved
		}
	}
	return false
}

// Label returns the display label for t, or the raw code when unknown.
func Label(t ledger.TransactionType) string {
	for _, c := range curated {
		if c.code == t {
			return c.label
		}
	}
	return string(t)
}
