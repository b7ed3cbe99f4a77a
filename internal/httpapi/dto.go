package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tinoosan/microfin/internal/ledger"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

// userResponse is a UserAccount without its password hash.
type userResponse struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Name     string          `json:"name"`
	Role     ledger.UserRole `json:"role"`
	BranchID string          `json:"branch_id"`
}

func toUserResponse(u ledger.UserAccount) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role, BranchID: u.BranchID}
}

type fundStateResponse struct {
	Scope      string                    `json:"scope"`
	BranchName string                    `json:"branch_name"`
	Currency   string                    `json:"currency"`
	Fund       ledger.FundState          `json:"fund"`
	Formatted  ledger.FormattedFundState `json:"formatted"`
}

type loanResponse struct {
	ledger.Loan
	MaturityDate time.Time `json:"maturity_date"`
}

type dpsResponse struct {
	ledger.DPS
	MaturityDate time.Time `json:"maturity_date"`
}

type fdrResponse struct {
	ledger.FDR
	MaturityDate time.Time `json:"maturity_date"`
}

// recordsResponse mirrors ledger.ScopedView with maturity dates filled in and
// credentials stripped.
type recordsResponse struct {
	BranchID     string               `json:"branch_id"`
	Branches     []ledger.Branch      `json:"branches"`
	BankAccounts []ledger.BankAccount `json:"bank_accounts"`
	Clients      []ledger.Client      `json:"clients"`
	Loans        []loanResponse       `json:"loans"`
	DPS          []dpsResponse        `json:"dps"`
	FDR          []fdrResponse        `json:"fdr"`
	Transactions []ledger.Transaction `json:"transactions"`
	Users        []userResponse       `json:"users"`
}

func toRecordsResponse(v ledger.ScopedView) recordsResponse {
	out := recordsResponse{
		BranchID:     v.BranchID,
		Branches:     v.Branches,
		BankAccounts: v.BankAccounts,
		Clients:      v.Clients,
		Loans:        make([]loanResponse, 0, len(v.Loans)),
		DPS:          make([]dpsResponse, 0, len(v.DPS)),
		FDR:          make([]fdrResponse, 0, len(v.FDR)),
		Transactions: v.Transactions,
		Users:        make([]userResponse, 0, len(v.Users)),
	}
	for _, l := range v.Loans {
		out.Loans = append(out.Loans, loanResponse{Loan: l, MaturityDate: l.MaturityDate()})
	}
	for _, d := range v.DPS {
		out.DPS = append(out.DPS, dpsResponse{DPS: d, MaturityDate: d.MaturityDate()})
	}
	for _, f := range v.FDR {
		out.FDR = append(out.FDR, fdrResponse{FDR: f, MaturityDate: f.MaturityDate()})
	}
	for _, u := range v.Users {
		out.Users = append(out.Users, toUserResponse(u))
	}
	return out
}

type bankAccountRequest struct {
	BranchID      string                 `json:"branch_id"`
	BankName      string                 `json:"bank_name"`
	AccountNumber string                 `json:"account_number"`
	AccountType   ledger.BankAccountType `json:"account_type"`
}

type bankTransactionRequest struct {
	Type        ledger.TransactionType `json:"type"`
	Amount      decimal.Decimal        `json:"amount"`
	Date        *time.Time             `json:"date,omitempty"`
	Description string                 `json:"description"`
}

type clientRequest struct {
	Name    string `json:"name"`
	KYCID   string `json:"kyc_id"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type clientStatusRequest struct {
	Status ledger.ClientStatus `json:"status"`
}

type loanRequest struct {
	ClientID     string                `json:"client_id"`
	Principal    decimal.Decimal       `json:"principal"`
	InterestRate *decimal.Decimal      `json:"interest_rate,omitempty"`
	TermMonths   int                   `json:"term_months"`
	Method       ledger.InterestMethod `json:"method"`
}

type dpsRequest struct {
	ClientID      string           `json:"client_id"`
	MonthlyAmount decimal.Decimal  `json:"monthly_amount"`
	InterestRate  *decimal.Decimal `json:"interest_rate,omitempty"`
	TermYears     int              `json:"term_years"`
}

type fdrRequest struct {
	ClientID      string           `json:"client_id"`
	DepositAmount decimal.Decimal  `json:"deposit_amount"`
	InterestRate  *decimal.Decimal `json:"interest_rate,omitempty"`
	TermMonths    int              `json:"term_months"`
}

type transactionRequest struct {
	Type        ledger.TransactionType `json:"type"`
	Amount      decimal.Decimal        `json:"amount"`
	Description string                 `json:"description"`
	ClientID    string                 `json:"client_id"`
	ProductID   string                 `json:"product_id"`
}

type closeRequest struct {
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
}

type branchRequest struct {
	Name            string          `json:"name"`
	Address         string          `json:"address"`
	InitialCapital  decimal.Decimal `json:"initial_capital"`
	DefaultLoanRate decimal.Decimal `json:"default_loan_rate"`
	DefaultDPSRate  decimal.Decimal `json:"default_dps_rate"`
	DefaultFDRRate  decimal.Decimal `json:"default_fdr_rate"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type userRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Name     string          `json:"name"`
	Role     ledger.UserRole `json:"role"`
	BranchID string          `json:"branch_id"`
}
