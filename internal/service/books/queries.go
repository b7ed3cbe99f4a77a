package books

import (
	"context"
	"fmt"

	"github.com/tinoosan/microfin/internal/errs"
	"github.com/tinoosan/microfin/internal/ledger"
)

// FundReport is the fund state of one resolved scope.
type FundReport struct {
	Scope      string           `json:"scope"`
	BranchName string           `json:"branch_name"`
	Fund       ledger.FundState `json:"fund"`
}

// FundState derives the financial position visible to actor. Admins get the branch
// they ask for (empty means all branches); everyone else always gets their own.
func (b *Books) FundState(ctx context.Context, actor *ledger.UserAccount, branchID string) (FundReport, error) {
	if err := ctx.Err(); err != nil {
		return FundReport{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	scope, err := b.scopeFor(actor, branchID)
	if err != nil {
		return FundReport{}, err
	}
	return FundReport{Scope: scope, BranchName: b.scopeName(scope), Fund: b.fundLocked(scope)}, nil
}

// ScopedRecords returns the record collections visible to actor for branchID, under
// the same scope rule as FundState.
func (b *Books) ScopedRecords(ctx context.Context, actor *ledger.UserAccount, branchID string) (ledger.ScopedView, error) {
	if err := ctx.Err(); err != nil {
		return ledger.ScopedView{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	scope, err := b.scopeFor(actor, branchID)
	if err != nil {
		return ledger.ScopedView{}, err
	}
	return ledger.Scope(b.state, scope), nil
}

// BranchReports lists the fund state of every branch visible to actor followed by
// the consolidated total for admins.
func (b *Books) BranchReports(ctx context.Context, actor *ledger.UserAccount) ([]FundReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u, err := b.resolveActor(actor)
	if err != nil {
		return nil, err
	}
	var out []FundReport
	for _, br := range b.state.Branches {
		if !u.IsAdmin() && br.ID != u.BranchID {
			continue
		}
		out = append(out, FundReport{Scope: br.ID, BranchName: br.Name, Fund: b.fundLocked(br.ID)})
	}
	if u.IsAdmin() {
		out = append(out, FundReport{Scope: ledger.ScopeAll, BranchName: b.scopeName(ledger.ScopeAll), Fund: b.fundLocked(ledger.ScopeAll)})
	}
	return out, nil
}

// scopeFor applies ledger.ResolveScope and rejects unknown branches. Caller holds mu.
func (b *Books) scopeFor(actor *ledger.UserAccount, requested string) (string, error) {
	u, err := b.resolveActor(actor)
	if err != nil {
		return "", err
	}
	scope := ledger.ResolveScope(u, requested)
	if scope == ledger.ScopeAll {
		return scope, nil
	}
	if _, ok := b.state.Branch(scope); !ok {
		return "", fmt.Errorf("branch %q: %w", scope, errs.ErrNotFound)
	}
	return scope, nil
}

func (b *Books) scopeName(scope string) string {
	if scope == ledger.ScopeAll {
		return "Consolidated (All Branches)"
	}
	if br, ok := b.state.Branch(scope); ok {
		return br.Name
	}
	return "Unknown"
}

// fundLocked memoises ComputeFundState per (version, scope). Caller holds mu.
func (b *Books) fundLocked(scope string) ledger.FundState {
	if b.cacheVersion != b.version {
		b.cache = map[string]ledger.FundState{}
		b.cacheVersion = b.version
	}
	if fs, ok := b.cache[scope]; ok {
		return fs
	}
	fs := ledger.ComputeFundState(scope, b.state.Transactions, b.state.Loans, b.state.Branches)
	b.cache[scope] = fs
	b.derivations++
	fundDerivations.Inc()
	return fs
}
