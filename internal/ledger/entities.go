package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScopeAll is the branch scope sentinel for the consolidated view across branches.
const ScopeAll = "ALL"

// TransactionType enumerates the cash movements recorded in the transaction log.
type TransactionType string

const (
	// TxDisbursement pays cash out to fund a loan.
	TxDisbursement TransactionType = "DISBURSEMENT"
	// TxCollection receives cash as loan repayment.
	TxCollection TransactionType = "COLLECTION"
	// TxSavings receives a client deposit and raises the savings liability.
	TxSavings TransactionType = "SAVINGS"
	// TxWithdrawal returns savings to a client and lowers the savings liability.
	TxWithdrawal TransactionType = "WITHDRAWAL"
	// TxOpex pays an operating expense.
	TxOpex TransactionType = "OPEX"
	// TxBankDeposit moves cash on hand into a bank account.
	TxBankDeposit TransactionType = "BANK_DEPOSIT"
	// TxBankWithdrawal moves money from a bank account back to cash on hand.
	TxBankWithdrawal TransactionType = "BANK_WITHDRAWAL"
)

// TransactionTypes lists every known type in display order.
var TransactionTypes = []TransactionType{
	TxDisbursement, TxCollection, TxSavings, TxWithdrawal, TxOpex, TxBankDeposit, TxBankWithdrawal,
}

// Effect returns the sign applied to a transaction amount for available cash and for
// the savings liability. Unknown types have no effect.
func (t TransactionType) Effect() (cash, liability int) {
	switch t {
	case TxDisbursement, TxOpex, TxBankDeposit:
		return -1, 0
	case TxCollection, TxBankWithdrawal:
		return 1, 0
	case TxSavings:
		return 1, 1
	case TxWithdrawal:
		return -1, -1
	}
	return 0, 0
}

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	for _, known := range TransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// UserRole controls how far a user may widen the branch scope.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleManager UserRole = "MANAGER"
)

func (r UserRole) Valid() bool { return r == RoleAdmin || r == RoleManager }

// InterestMethod is stored on loans for record fidelity; it does not change accounting.
type InterestMethod string

const (
	MethodFlat     InterestMethod = "FLAT"
	MethodReducing InterestMethod = "REDUCING"
)

func (m InterestMethod) Valid() bool { return m == MethodFlat || m == MethodReducing }

// BankAccountType classifies an institutional bank account held by a branch.
type BankAccountType string

const (
	BankAccountSavings BankAccountType = "SAVINGS"
	BankAccountCurrent BankAccountType = "CURRENT"
	BankAccountFixed   BankAccountType = "FIXED"
)

func (t BankAccountType) Valid() bool {
	return t == BankAccountSavings || t == BankAccountCurrent || t == BankAccountFixed
}

// ClientStatus is the membership state of a client.
type ClientStatus string

const (
	ClientActive  ClientStatus = "ACTIVE"
	ClientPending ClientStatus = "PENDING"
	ClientClosed  ClientStatus = "CLOSED"
)

func (s ClientStatus) Valid() bool {
	return s == ClientActive || s == ClientPending || s == ClientClosed
}

// ProductStatus is the lifecycle state of a DPS or FDR.
type ProductStatus string

const (
	ProductActive  ProductStatus = "ACTIVE"
	ProductMatured ProductStatus = "MATURED"
	ProductClosed  ProductStatus = "CLOSED"
)

// ProductKind distinguishes the two savings products.
type ProductKind string

const (
	KindDPS ProductKind = "DPS"
	KindFDR ProductKind = "FDR"
)

// Branch is an organisational unit with its own capital and default product rates.
type Branch struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Address         string          `json:"address"`
	InitialCapital  decimal.Decimal `json:"initial_capital"`
	DefaultLoanRate decimal.Decimal `json:"default_loan_rate"`
	DefaultDPSRate  decimal.Decimal `json:"default_dps_rate"`
	DefaultFDRRate  decimal.Decimal `json:"default_fdr_rate"`
}

// BankAccount is a branch's account at a bank. Balance is a cache kept in step with
// the BANK_DEPOSIT and BANK_WITHDRAWAL transactions recorded against it.
type BankAccount struct {
	ID            string          `json:"id"`
	BankName      string          `json:"bank_name"`
	AccountNumber string          `json:"account_number"`
	AccountType   BankAccountType `json:"account_type"`
	BranchID      string          `json:"branch_id"`
	Balance       decimal.Decimal `json:"balance"`
}

// Client is a member served by a branch.
type Client struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	KYCID     string       `json:"kyc_id"`
	Phone     string       `json:"phone"`
	Address   string       `json:"address"`
	JoinDate  time.Time    `json:"join_date"`
	Status    ClientStatus `json:"status"`
	BranchID  string       `json:"branch_id"`
	CreatedBy string       `json:"created_by"`
}

// Loan is a disbursed credit product. RemainingPrincipal starts at Principal and no
// operation decrements it.
type Loan struct {
	ID                 string          `json:"id"`
	ClientID           string          `json:"client_id"`
	Principal          decimal.Decimal `json:"principal"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	TermMonths         int             `json:"term_months"`
	Method             InterestMethod  `json:"method"`
	StartDate          time.Time       `json:"start_date"`
	Disbursed          bool            `json:"disbursed"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal"`
	BranchID           string          `json:"branch_id"`
	CreatedBy          string          `json:"created_by"`
}

// MaturityDate is the start date plus the loan term.
func (l Loan) MaturityDate() time.Time { return MaturityDate(l.StartDate, l.TermMonths) }

// DPS is a recurring monthly deposit scheme.
type DPS struct {
	ID            string          `json:"id"`
	ClientID      string          `json:"client_id"`
	MonthlyAmount decimal.Decimal `json:"monthly_amount"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	TermYears     int             `json:"term_years"`
	StartDate     time.Time       `json:"start_date"`
	Status        ProductStatus   `json:"status"`
	BranchID      string          `json:"branch_id"`
	CreatedBy     string          `json:"created_by"`
}

func (d DPS) MaturityDate() time.Time { return MaturityDate(d.StartDate, d.TermYears*12) }

// FDR is a fixed deposit.
type FDR struct {
	ID            string          `json:"id"`
	ClientID      string          `json:"client_id"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	TermMonths    int             `json:"term_months"`
	StartDate     time.Time       `json:"start_date"`
	Status        ProductStatus   `json:"status"`
	BranchID      string          `json:"branch_id"`
	CreatedBy     string          `json:"created_by"`
}

func (f FDR) MaturityDate() time.Time { return MaturityDate(f.StartDate, f.TermMonths) }

// Transaction is one entry of the append-only cash log. InterestPart and PrincipalPart
// are only filled by savings closures.
type Transaction struct {
	ID            string          `json:"id"`
	Date          time.Time       `json:"date"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	InterestPart  decimal.Decimal `json:"interest_part"`
	PrincipalPart decimal.Decimal `json:"principal_part"`
	ClientID      string          `json:"client_id,omitempty"`
	ProductID     string          `json:"product_id,omitempty"`
	BankAccountID string          `json:"bank_account_id,omitempty"`
	Description   string          `json:"description"`
	PerformedBy   string          `json:"performed_by"`
	BranchID      string          `json:"branch_id"`
}

// UserAccount is an operator of the system bound to a home branch.
type UserAccount struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"password_hash"`
	Name         string   `json:"name"`
	Role         UserRole `json:"role"`
	BranchID     string   `json:"branch_id"`
}

func (u UserAccount) IsAdmin() bool { return u.Role == RoleAdmin }

// FundState is the derived financial position of a scope. It is never stored.
type FundState struct {
	TotalCapital          decimal.Decimal `json:"total_capital"`
	AvailableCash         decimal.Decimal `json:"available_cash"`
	TotalLoansOut         decimal.Decimal `json:"total_loans_out"`
	TotalSavingsLiability decimal.Decimal `json:"total_savings_liability"`
}

// Add returns the component-wise sum of two fund states.
func (f FundState) Add(o FundState) FundState {
	return FundState{
		TotalCapital:          f.TotalCapital.Add(o.TotalCapital),
		AvailableCash:         f.AvailableCash.Add(o.AvailableCash),
		TotalLoansOut:         f.TotalLoansOut.Add(o.TotalLoansOut),
		TotalSavingsLiability: f.TotalSavingsLiability.Add(o.TotalSavingsLiability),
	}
}

// Equal compares fund states numerically.
func (f FundState) Equal(o FundState) bool {
	return f.TotalCapital.Equal(o.TotalCapital) &&
		f.AvailableCash.Equal(o.AvailableCash) &&
		f.TotalLoansOut.Equal(o.TotalLoansOut) &&
		f.TotalSavingsLiability.Equal(o.TotalSavingsLiability)
}
