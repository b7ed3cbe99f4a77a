package ledger

import "github.com/shopspring/decimal"

// InScope reports whether a record stamped with branchID belongs to scope.
func InScope(scope, branchID string) bool {
	return scope == ScopeAll || scope == branchID
}

// CapitalFor sums the initial capital of the branches in scope. An unknown branch
// contributes zero.
func CapitalFor(scope string, branches []Branch) decimal.Decimal {
	capital := decimal.Zero
	for _, b := range branches {
		if InScope(scope, b.ID) {
			capital = capital.Add(b.InitialCapital)
		}
	}
	return capital
}

// ComputeFundState folds the transaction log and the loan book into the financial
// position of scope. Records outside scope are skipped, so passing a pre-filtered
// view gives the same result as passing everything.
//
// Savings liability comes only from SAVINGS and WITHDRAWAL transactions, never from
// DPS/FDR records.
func ComputeFundState(scope string, txs []Transaction, loans []Loan, branches []Branch) FundState {
	capital := CapitalFor(scope, branches)
	cash := capital
	savings := decimal.Zero
	for _, tx := range txs {
		if !InScope(scope, tx.BranchID) {
			continue
		}
		cashSign, liabilitySign := tx.Type.Effect()
		switch cashSign {
		case 1:
			cash = cash.Add(tx.Amount)
		case -1:
			cash = cash.Sub(tx.Amount)
		}
		switch liabilitySign {
		case 1:
			savings = savings.Add(tx.Amount)
		case -1:
			savings = savings.Sub(tx.Amount)
		}
	}

	loansOut := decimal.Zero
	for _, l := range loans {
		if l.Disbursed && InScope(scope, l.BranchID) {
			loansOut = loansOut.Add(l.RemainingPrincipal)
		}
	}
	return FundState{
		TotalCapital:          capital,
		AvailableCash:         cash,
		TotalLoansOut:         loansOut,
		TotalSavingsLiability: savings,
	}
}

// BankBalance recomputes an account balance from the log; the cached
// BankAccount.Balance must always equal it.
func BankBalance(accountID string, txs []Transaction) decimal.Decimal {
	bal := decimal.Zero
	for _, tx := range txs {
		if tx.BankAccountID != accountID {
			continue
		}
		switch tx.Type {
		case TxBankDeposit:
			bal = bal.Add(tx.Amount)
		case TxBankWithdrawal:
			bal = bal.Sub(tx.Amount)
		}
	}
	return bal
}
