package ledger

import "time"

// ScopedView is the record store narrowed to one branch, or everything for ScopeAll.
// Branches and Users are never filtered.
type ScopedView struct {
	BranchID     string        `json:"branch_id"`
	Branches     []Branch      `json:"branches"`
	BankAccounts []BankAccount `json:"bank_accounts"`
	Clients      []Client      `json:"clients"`
	Loans        []Loan        `json:"loans"`
	DPS          []DPS         `json:"dps"`
	FDR          []FDR         `json:"fdr"`
	Transactions []Transaction `json:"transactions"`
	Users        []UserAccount `json:"users"`
}

// Scope derives a fresh view of s for branchID. The returned slices never alias s.
func Scope(s State, branchID string) ScopedView {
	c := s.Clone()
	c.Normalize()
	if branchID == "" {
		branchID = ScopeAll
	}
	v := ScopedView{BranchID: branchID, Branches: c.Branches, Users: c.Users}
	if branchID == ScopeAll {
		v.BankAccounts = c.BankAccounts
		v.Clients = c.Clients
		v.Loans = c.Loans
		v.DPS = c.DPS
		v.FDR = c.FDR
		v.Transactions = c.Transactions
		return v
	}
	v.BankAccounts = filter(c.BankAccounts, func(b BankAccount) bool { return b.BranchID == branchID })
	v.Clients = filter(c.Clients, func(x Client) bool { return x.BranchID == branchID })
	v.Loans = filter(c.Loans, func(l Loan) bool { return l.BranchID == branchID })
	v.DPS = filter(c.DPS, func(d DPS) bool { return d.BranchID == branchID })
	v.FDR = filter(c.FDR, func(f FDR) bool { return f.BranchID == branchID })
	v.Transactions = filter(c.Transactions, func(t Transaction) bool { return t.BranchID == branchID })
	return v
}

// FundState runs the ledger engine over the view.
func (v ScopedView) FundState() FundState {
	return ComputeFundState(v.BranchID, v.Transactions, v.Loans, v.Branches)
}

// ResolveScope applies the access policy: admins may select any branch or ScopeAll
// (empty means ScopeAll); everyone else is pinned to their home branch no matter
// what they ask for.
func ResolveScope(user UserAccount, requested string) string {
	if !user.IsAdmin() {
		return user.BranchID
	}
	if requested == "" {
		return ScopeAll
	}
	return requested
}

// MaturityDate adds months to start using calendar normalisation, so Jan 31 plus one
// month rolls into March.
func MaturityDate(start time.Time, months int) time.Time {
	return start.AddDate(0, months, 0)
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
