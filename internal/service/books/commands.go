package books

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tinoosan/microfin/internal/dictionary"
	"github.com/tinoosan/microfin/internal/errs"
	"github.com/tinoosan/microfin/internal/ident"
	"github.com/tinoosan/microfin/internal/ledger"
)

// BankAccountInput opens an institutional bank account. An empty BranchID means the
// actor's own branch.
type BankAccountInput struct {
	BranchID      string
	BankName      string
	AccountNumber string
	AccountType   ledger.BankAccountType
}

// BankTransactionInput moves money between cash on hand and a bank account.
type BankTransactionInput struct {
	AccountID   string
	Type        ledger.TransactionType
	Amount      decimal.Decimal
	Date        *time.Time
	Description string
}

type ClientInput struct {
	Name    string
	KYCID   string
	Phone   string
	Address string
}

// LoanInput disburses a loan. A nil InterestRate takes the branch default; an empty
// Method means FLAT.
type LoanInput struct {
	ClientID     string
	Principal    decimal.Decimal
	InterestRate *decimal.Decimal
	TermMonths   int
	Method       ledger.InterestMethod
}

type DPSInput struct {
	ClientID      string
	MonthlyAmount decimal.Decimal
	InterestRate  *decimal.Decimal
	TermYears     int
}

type FDRInput struct {
	ClientID      string
	DepositAmount decimal.Decimal
	InterestRate  *decimal.Decimal
	TermMonths    int
}

// TransactionInput records a cash movement that is not tied to opening a product.
type TransactionInput struct {
	Type        ledger.TransactionType
	Amount      decimal.Decimal
	Description string
	ClientID    string
	ProductID   string
}

// CloseInput closes a DPS or FDR, paying back Principal plus Interest.
type CloseInput struct {
	Kind      ledger.ProductKind
	ProductID string
	Principal decimal.Decimal
	Interest  decimal.Decimal
}

// AddBankAccount registers a bank account with a zero balance.
func (b *Books) AddBankAccount(ctx context.Context, actor *ledger.UserAccount, in BankAccountInput) (Result, error) {
	return b.apply(ctx, "add_bank_account", actor, func(st *ledger.State, u ledger.UserAccount, _ time.Time) (Result, error) {
		branchID := strings.TrimSpace(in.BranchID)
		if branchID == "" {
			branchID = u.BranchID
		}
		if _, ok := st.Branch(branchID); !ok {
			return Result{}, fmt.Errorf("branch %q: %w", branchID, errs.ErrNotFound)
		}
		if err := sameBranch(u, branchID); err != nil {
			return Result{}, err
		}
		if strings.TrimSpace(in.BankName) == "" || strings.TrimSpace(in.AccountNumber) == "" {
			return Result{}, fmt.Errorf("bank name and account number are required: %w", errs.ErrInvalid)
		}
		if !in.AccountType.Valid() {
			return Result{}, fmt.Errorf("account type %q: %w", in.AccountType, errs.ErrInvalid)
		}
		acct := ledger.BankAccount{
			ID:            b.ids.New(ident.BankAccount),
			BankName:      strings.TrimSpace(in.BankName),
			AccountNumber: strings.TrimSpace(in.AccountNumber),
			AccountType:   in.AccountType,
			BranchID:      branchID,
			Balance:       decimal.Zero,
		}
		st.BankAccounts = append(st.BankAccounts, acct)
		return Result{ID: acct.ID, Message: "Bank Account Added"}, nil
	})
}

// RecordBankTransaction appends a BANK_DEPOSIT or BANK_WITHDRAWAL and moves the
// account's cached balance by the same amount. The transaction belongs to the
// account's branch.
func (b *Books) RecordBankTransaction(ctx context.Context, actor *ledger.UserAccount, in BankTransactionInput) (Result, error) {
	return b.apply(ctx, "record_bank_transaction", actor, func(st *ledger.State, u ledger.UserAccount, now time.Time) (Result, error) {
		i := st.BankAccountIndex(in.AccountID)
		if i < 0 {
			return Result{}, fmt.Errorf("bank account %q: %w", in.AccountID, errs.ErrNotFound)
		}
		acct := st.BankAccounts[i]
		if err := sameBranch(u, acct.BranchID); err != nil {
			return Result{}, err
		}
		if in.Type != ledger.TxBankDeposit && in.Type != ledger.TxBankWithdrawal {
			return Result{}, fmt.Errorf("type %q is not a bank transaction: %w", in.Type, errs.ErrInvalid)
		}
		if err := positive("amount", in.Amount); err != nil {
			return Result{}, err
		}
		date := now
		if in.Date != nil && !in.Date.IsZero() {
			date = in.Date.UTC()
		}
		tx := ledger.Transaction{
			ID:            b.ids.New(ident.Transaction),
			Date:          date,
			Type:          in.Type,
			Amount:        in.Amount,
			BankAccountID: acct.ID,
			Description:   describe(in.Description, dictionary.Label(in.Type)),
			PerformedBy:   u.Name,
			BranchID:      acct.BranchID,
		}

		accounts := append([]ledger.BankAccount(nil), st.BankAccounts...)
		if in.Type == ledger.TxBankDeposit {
			accounts[i].Balance = acct.Balance.Add(in.Amount)
		} else {
			accounts[i].Balance = acct.Balance.Sub(in.Amount)
		}
		st.BankAccounts = accounts
		st.Transactions = append(st.Transactions, tx)
		return Result{ID: acct.ID, TransactionID: tx.ID, Message: "Bank Transaction Recorded"}, nil
	})
}

// RegisterClient adds an ACTIVE client to the actor's branch.
func (b *Books) RegisterClient(ctx context.Context, actor *ledger.UserAccount, in ClientInput) (Result, error) {
	return b.apply(ctx, "register_client", actor, func(st *ledger.State, u ledger.UserAccount, now time.Time) (Result, error) {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return Result{}, fmt.Errorf("client name is required: %w", errs.ErrInvalid)
		}
		c := ledger.Client{
			ID:        b.ids.New(ident.Client),
			Name:      name,
			KYCID:     strings.TrimSpace(in.KYCID),
			Phone:     strings.TrimSpace(in.Phone),
			Address:   strings.TrimSpace(in.Address),
			JoinDate:  now,
			Status:    ledger.ClientActive,
			BranchID:  u.BranchID,
			CreatedBy: u.Name,
		}
		st.Clients = append(st.Clients, c)
		return Result{ID: c.ID, Message: "Client registered"}, nil
	})
}

// DisburseLoan creates a disbursed loan and the DISBURSEMENT paying it out. No
// credit or cash-sufficiency check is made.
func (b *Books) DisburseLoan(ctx context.Context, actor *ledger.UserAccount, in LoanInput) (Result, error) {
	return b.apply(ctx, "disburse_loan", actor, func(st *ledger.State, u ledger.UserAccount, now time.Time) (Result, error) {
		client, branch, err := clientFor(st, u, in.ClientID)
		if err != nil {
			return Result{}, err
		}
		if err := positive("principal", in.Principal); err != nil {
			return Result{}, err
		}
		if in.TermMonths <= 0 {
			return Result{}, fmt.Errorf("term_months must be positive: %w", errs.ErrInvalid)
		}
		method := in.Method
		if method == "" {
			method = ledger.MethodFlat
		}
		if !method.Valid() {
			return Result{}, fmt.Errorf("interest method %q: %w", in.Method, errs.ErrInvalid)
		}
		rate, err := rateOrDefault(in.InterestRate, branch.DefaultLoanRate)
		if err != nil {
			return Result{}, err
		}

		loan := ledger.Loan{
			ID:                 b.ids.New(ident.Loan),
			ClientID:           client.ID,
			Principal:          in.Principal,
			InterestRate:       rate,
			TermMonths:         in.TermMonths,
			Method:             method,
			StartDate:          now,
			Disbursed:          true,
			RemainingPrincipal: in.Principal,
			BranchID:           client.BranchID,
			CreatedBy:          u.Name,
		}
		tx := ledger.Transaction{
			ID:          b.ids.New(ident.Transaction),
			Date:        now,
			Type:        ledger.TxDisbursement,
			Amount:      in.Principal,
			ClientID:    client.ID,
			ProductID:   loan.ID,
			Description: "Loan Disbursement",
			PerformedBy: u.Name,
			BranchID:    client.BranchID,
		}
		st.Loans = append(st.Loans, loan)
		st.Transactions = append(st.Transactions, tx)
		return Result{ID: loan.ID, TransactionID: tx.ID, Message: "Loan disbursed: " + ledger.FormatAmount(b.currency, in.Principal)}, nil
	})
}

// OpenDPS opens a recurring deposit and records its first installment as SAVINGS.
func (b *Books) OpenDPS(ctx context.Context, actor *ledger.UserAccount, in DPSInput) (Result, error) {
	return b.apply(ctx, "open_dps", actor, func(st *ledger.State, u ledger.UserAccount, now time.Time) (Result, error) {
		client, branch, err := clientFor(st, u, in.ClientID)
		if err != nil {
			return Result{}, err
		}
		if err := positive("monthly_amount", in.MonthlyAmount); err != nil {
			return Result{}, err
		}
		if in.TermYears <= 0 {
			return Result{}, fmt.Errorf("term_years must be positive: %w", errs.ErrInvalid)
		}
		rate, err := rateOrDefault(in.InterestRate, branch.DefaultDPSRate)
		if err != nil {
			return Result{}, err
		}
		dps := ledger.DPS{
			ID:            b.ids.New(ident.DPS),
			ClientID:      client.ID,
			MonthlyAmount: in.MonthlyAmount,
			InterestRate:  rate,
			TermYears:     in.TermYears,
			StartDate:     now,
			Status:        ledger.ProductActive,
			BranchID:      client.BranchID,
			CreatedBy:     u.Name,
		}
		tx := ledger.Transaction{
			ID:          b.ids.New(ident.Transaction),
			Date:        now,
			Type:        ledger.TxSavings,
			Amount:      in.MonthlyAmount,
			ClientID:    client.ID,
			ProductID:   dps.ID,
			Description: "Initial DPS Installment",
			PerformedBy: u.Name,
			BranchID:    client.BranchID,
		}
		st.DPS = append(st.DPS, dps)
		st.Transactions = append(st.Transactions, tx)
		return Result{ID: dps.ID, TransactionID: tx.ID, Message: "DPS opened"}, nil
	})
}

// OpenFDR opens a fixed deposit and records the deposit as SAVINGS.
func (b *Books) OpenFDR(ctx context.Context, actor *ledger.UserAccount, in FDRInput) (Result, error) {
	return b.apply(ctx, "open_fdr", actor, func(st *ledger.State, u ledger.UserAccount, now time.Time) (Result, error) {
		client, branch, err := clientFor(st, u, in.ClientID)
		if err != nil {
			return Result{}, err
		}
		if err := positive("deposit_amount", in.DepositAmount); err != nil {
			return Result{}, err
		}
		if in.TermMonths <= 0 {
			return Result{}, fmt.Errorf("term_months must be positive: %w", errs.ErrInvalid)
		}
		rate, err := rateOrDefault(in.InterestRate, branch.DefaultFDRRate)
		if err != nil {
			return Result{}, err
		}
		fdr := ledger.FDR{
			ID:            b.ids.New(ident.FDR),
			ClientID:      client.ID,
			DepositAmount: in.DepositAmount,
			InterestRate:  rate,
			TermMonths:    in.TermMonths,
			StartDate:     now,
			Status:        ledger.ProductActive,
			BranchID:      client.BranchID,
			CreatedBy:     u.Name,
		}
		tx := ledger.Transaction{
			ID:          b.ids.New(ident.Transaction),
			Date:        now,
			Type:        ledger.TxSavings,
			Amount:      in.DepositAmount,
			ClientID:    client.ID,
			ProductID:   fdr.ID,
			Description: "FDR Initial Deposit",
			PerformedBy: u.Name,
			BranchID:    client.BranchID,
		}
		st.FDR = append(st.FDR, fdr)
		st.Transactions = append(st.Transactions, tx)
		return Result{ID: fdr.ID, TransactionID: tx.ID, Message: "FDR opened"}, nil
	})
}

// RecordTransaction appends a COLLECTION, SAVINGS, WITHDRAWAL or OPEX stamped with the
// actor's branch and name. Disbursements and bank movements have dedicated commands.
func (b *Books) RecordTransaction(ctx context.Context, actor *ledger.UserAccount, in TransactionInput) (Result, error) {
	return b.apply(ctx, "record_transaction", actor, func(st *ledger.State, u ledger.UserAccount, now time.Time) (Result, error) {
		if !in.Type.Valid() {
			return Result{}, fmt.Errorf("transaction type %q: %w", in.Type, errs.ErrInvalid)
		}
		if dictionary.IsReserved(in.Type) {
			return Result{}, fmt.Errorf("transaction type %q needs its dedicated command: %w", in.Type, errs.ErrInvalid)
		}
		if err := positive("amount", in.Amount); err != nil {
			return Result{}, err
		}
		if in.ClientID != "" {
			c, ok := st.Client(in.ClientID)
			if !ok {
				return Result{}, fmt.Errorf("client %q: %w", in.ClientID, errs.ErrNotFound)
			}
			if err := sameBranch(u, c.BranchID); err != nil {
				return Result{}, err
			}
		}
		if in.ProductID != "" {
			branchID, ok := st.ProductBranch(in.ProductID)
			if !ok {
				return Result{}, fmt.Errorf("product %q: %w", in.ProductID, errs.ErrNotFound)
			}
			if err := sameBranch(u, branchID); err != nil {
				return Result{}, err
			}
		}
		tx := ledger.Transaction{
			ID:          b.ids.New(ident.Transaction),
			Date:        now,
			Type:        in.Type,
			Amount:      in.Amount,
			ClientID:    in.ClientID,
			ProductID:   in.ProductID,
			Description: describe(in.Description, dictionary.Label(in.Type)),
			PerformedBy: u.Name,
			BranchID:    u.BranchID,
		}
		st.Transactions = append(st.Transactions, tx)
		return Result{TransactionID: tx.ID, Message: "Transaction recorded"}, nil
	})
}

// CloseSavings pays out an ACTIVE DPS or FDR as one WITHDRAWAL of principal plus
// interest and marks the product CLOSED.
func (b *Books) CloseSavings(ctx context.Context, actor *ledger.UserAccount, in CloseInput) (Result, error) {
	return b.apply(ctx, "close_savings", actor, func(st *ledger.State, u ledger.UserAccount, now time.Time) (Result, error) {
		var (
			clientID, branchID string
			status             ledger.ProductStatus
			idx                int
		)
		switch in.Kind {
		case ledger.KindDPS:
			idx = st.DPSIndex(in.ProductID)
			if idx < 0 {
				return Result{}, fmt.Errorf("dps %q: %w", in.ProductID, errs.ErrNotFound)
			}
			p := st.DPS[idx]
			clientID, branchID, status = p.ClientID, p.BranchID, p.Status
		case ledger.KindFDR:
			idx = st.FDRIndex(in.ProductID)
			if idx < 0 {
				return Result{}, fmt.Errorf("fdr %q: %w", in.ProductID, errs.ErrNotFound)
			}
			p := st.FDR[idx]
			clientID, branchID, status = p.ClientID, p.BranchID, p.Status
		default:
			return Result{}, fmt.Errorf("product kind %q: %w", in.Kind, errs.ErrInvalid)
		}
		if err := sameBranch(u, branchID); err != nil {
			return Result{}, err
		}
		if status != ledger.ProductActive {
			return Result{}, fmt.Errorf("%s %q is %s: %w", in.Kind, in.ProductID, status, errs.ErrProductClosed)
		}
		if in.Principal.IsNegative() || in.Interest.IsNegative() {
			return Result{}, fmt.Errorf("principal and interest must not be negative: %w", errs.ErrInvalid)
		}
		total := in.Principal.Add(in.Interest)
		if err := positive("payout", total); err != nil {
			return Result{}, err
		}

		tx := ledger.Transaction{
			ID:            b.ids.New(ident.Transaction),
			Date:          now,
			Type:          ledger.TxWithdrawal,
			Amount:        total,
			InterestPart:  in.Interest,
			PrincipalPart: in.Principal,
			ClientID:      clientID,
			ProductID:     in.ProductID,
			Description:   fmt.Sprintf("Closing %s Product", in.Kind),
			PerformedBy:   u.Name,
			BranchID:      branchID,
		}
		if in.Kind == ledger.KindDPS {
			products := append([]ledger.DPS(nil), st.DPS...)
			products[idx].Status = ledger.ProductClosed
			st.DPS = products
		} else {
			products := append([]ledger.FDR(nil), st.FDR...)
			products[idx].Status = ledger.ProductClosed
			st.FDR = products
		}
		st.Transactions = append(st.Transactions, tx)
		return Result{ID: in.ProductID, TransactionID: tx.ID, Message: fmt.Sprintf("%s Closed Successfully", in.Kind)}, nil
	})
}

// sameBranch enforces that non-admins only touch records of their home branch.
func sameBranch(u ledger.UserAccount, branchID string) error {
	if u.IsAdmin() || u.BranchID == branchID {
		return nil
	}
	return fmt.Errorf("user %q may not act on branch %q: %w", u.ID, branchID, errs.ErrForbidden)
}

// clientFor resolves the client a product is opened for together with its branch,
// whose default rates apply.
func clientFor(st *ledger.State, u ledger.UserAccount, clientID string) (ledger.Client, ledger.Branch, error) {
	c, ok := st.Client(clientID)
	if !ok {
		return ledger.Client{}, ledger.Branch{}, fmt.Errorf("client %q: %w", clientID, errs.ErrNotFound)
	}
	if err := sameBranch(u, c.BranchID); err != nil {
		return ledger.Client{}, ledger.Branch{}, err
	}
	br, _ := st.Branch(c.BranchID)
	return c, br, nil
}

func positive(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%s must be greater than zero: %w", field, errs.ErrInvalid)
	}
	return nil
}

func rateOrDefault(rate *decimal.Decimal, def decimal.Decimal) (decimal.Decimal, error) {
	if rate == nil {
		return def, nil
	}
	if rate.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("interest_rate must not be negative: %w", errs.ErrInvalid)
	}
	return *rate, nil
}

func describe(desc, fallback string) string {
	if d := strings.TrimSpace(desc); d != "" {
		return d
	}
	return fallback
}
