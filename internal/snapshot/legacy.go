package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tinoosan/microfin/internal/auth"
	"github.com/tinoosan/microfin/internal/ledger"
)

// The browser-era layout: camelCase keys, numeric amounts, date strings and
// plaintext passwords. currentUser is session state and is dropped.
type legacyState struct {
	Branches []struct {
		ID              string          `json:"id"`
		Name            string          `json:"name"`
		Address         string          `json:"address"`
		InitialCapital  decimal.Decimal `json:"initialCapital"`
		DefaultLoanRate decimal.Decimal `json:"defaultLoanRate"`
		DefaultDPSRate  decimal.Decimal `json:"defaultDPSRate"`
		DefaultFDRRate  decimal.Decimal `json:"defaultFDRRate"`
	} `json:"branches"`
	BankAccounts []struct {
		ID            string          `json:"id"`
		BankName      string          `json:"bankName"`
		AccountNumber string          `json:"accountNumber"`
		AccountType   string          `json:"accountType"`
		BranchID      string          `json:"branchId"`
		Balance       decimal.Decimal `json:"balance"`
	} `json:"bankAccounts"`
	Clients []struct {
		ID        string     `json:"id"`
		Name      string     `json:"name"`
		KYCID     string     `json:"kycId"`
		Phone     string     `json:"phone"`
		Address   string     `json:"address"`
		JoinDate  legacyTime `json:"joinDate"`
		Status    string     `json:"status"`
		BranchID  string     `json:"branchId"`
		CreatedBy string     `json:"createdBy"`
	} `json:"clients"`
	Loans []struct {
		ID                 string          `json:"id"`
		ClientID           string          `json:"clientId"`
		Principal          decimal.Decimal `json:"principal"`
		InterestRate       decimal.Decimal `json:"interestRate"`
		TermMonths         int             `json:"termMonths"`
		Method             string          `json:"method"`
		StartDate          legacyTime      `json:"startDate"`
		Disbursed          bool            `json:"disbursed"`
		RemainingPrincipal decimal.Decimal `json:"remainingPrincipal"`
		BranchID           string          `json:"branchId"`
		CreatedBy          string          `json:"createdBy"`
	} `json:"loans"`
	DPS []struct {
		ID            string          `json:"id"`
		ClientID      string          `json:"clientId"`
		MonthlyAmount decimal.Decimal `json:"monthlyAmount"`
		InterestRate  decimal.Decimal `json:"interestRate"`
		TermYears     int             `json:"termYears"`
		StartDate     legacyTime      `json:"startDate"`
		Status        string          `json:"status"`
		BranchID      string          `json:"branchId"`
		CreatedBy     string          `json:"createdBy"`
	} `json:"dps"`
	FDR []struct {
		ID            string          `json:"id"`
		ClientID      string          `json:"clientId"`
		DepositAmount decimal.Decimal `json:"depositAmount"`
		InterestRate  decimal.Decimal `json:"interestRate"`
		TermMonths    int             `json:"termMonths"`
		StartDate     legacyTime      `json:"startDate"`
		Status        string          `json:"status"`
		BranchID      string          `json:"branchId"`
		CreatedBy     string          `json:"createdBy"`
	} `json:"fdr"`
	Transactions []struct {
		ID            string          `json:"id"`
		Date          legacyTime      `json:"date"`
		Type          string          `json:"type"`
		Amount        decimal.Decimal `json:"amount"`
		InterestPart  decimal.Decimal `json:"interestPart"`
		PrincipalPart decimal.Decimal `json:"principalPart"`
		ClientID      string          `json:"clientId"`
		ProductID     string          `json:"productId"`
		BankAccountID string          `json:"bankAccountId"`
		Description   string          `json:"description"`
		PerformedBy   string          `json:"performedBy"`
		BranchID      string          `json:"branchId"`
	} `json:"transactions"`
	Users []struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Role     string `json:"role"`
		BranchID string `json:"branchId"`
	} `json:"users"`
}

// legacyTime accepts RFC 3339 timestamps and bare YYYY-MM-DD dates.
type legacyTime struct{ time.Time }

func (t *legacyTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised date %q", s)
}

var errEmptyLegacy = errors.New("legacy snapshot has no branches and no users")

func decodeLegacy(payload []byte) (ledger.State, error) {
	var in legacyState
	if err := json.Unmarshal(payload, &in); err != nil {
		return ledger.State{}, fmt.Errorf("decode legacy snapshot: %w", err)
	}
	if len(in.Branches) == 0 && len(in.Users) == 0 {
		return ledger.State{}, errEmptyLegacy
	}

	var out ledger.State
	for _, b := range in.Branches {
		out.Branches = append(out.Branches, ledger.Branch{
			ID: b.ID, Name: b.Name, Address: b.Address,
			InitialCapital:  b.InitialCapital,
			DefaultLoanRate: b.DefaultLoanRate,
			DefaultDPSRate:  b.DefaultDPSRate,
			DefaultFDRRate:  b.DefaultFDRRate,
		})
	}
	for _, a := range in.BankAccounts {
		out.BankAccounts = append(out.BankAccounts, ledger.BankAccount{
			ID: a.ID, BankName: a.BankName, AccountNumber: a.AccountNumber,
			AccountType: ledger.BankAccountType(a.AccountType),
			BranchID:    a.BranchID,
			Balance:     a.Balance,
		})
	}
	for _, c := range in.Clients {
		out.Clients = append(out.Clients, ledger.Client{
			ID: c.ID, Name: c.Name, KYCID: c.KYCID, Phone: c.Phone, Address: c.Address,
			JoinDate:  c.JoinDate.Time,
			Status:    ledger.ClientStatus(c.Status),
			BranchID:  c.BranchID,
			CreatedBy: c.CreatedBy,
		})
	}
	for _, l := range in.Loans {
		method := ledger.InterestMethod(l.Method)
		if !method.Valid() {
			method = ledger.MethodFlat
		}
		out.Loans = append(out.Loans, ledger.Loan{
			ID: l.ID, ClientID: l.ClientID,
			Principal:          l.Principal,
			InterestRate:       l.InterestRate,
			TermMonths:         l.TermMonths,
			Method:             method,
			StartDate:          l.StartDate.Time,
			Disbursed:          l.Disbursed,
			RemainingPrincipal: l.RemainingPrincipal,
			BranchID:           l.BranchID,
			CreatedBy:          l.CreatedBy,
		})
	}
	for _, p := range in.DPS {
		out.DPS = append(out.DPS, ledger.DPS{
			ID: p.ID, ClientID: p.ClientID,
			MonthlyAmount: p.MonthlyAmount,
			InterestRate:  p.InterestRate,
			TermYears:     p.TermYears,
			StartDate:     p.StartDate.Time,
			Status:        ledger.ProductStatus(p.Status),
			BranchID:      p.BranchID,
			CreatedBy:     p.CreatedBy,
		})
	}
	for _, p := range in.FDR {
		out.FDR = append(out.FDR, ledger.FDR{
			ID: p.ID, ClientID: p.ClientID,
			DepositAmount: p.DepositAmount,
			InterestRate:  p.InterestRate,
			TermMonths:    p.TermMonths,
			StartDate:     p.StartDate.Time,
			Status:        ledger.ProductStatus(p.Status),
			BranchID:      p.BranchID,
			CreatedBy:     p.CreatedBy,
		})
	}
	for _, t := range in.Transactions {
		out.Transactions = append(out.Transactions, ledger.Transaction{
			ID: t.ID, Date: t.Date.Time,
			Type:          ledger.TransactionType(t.Type),
			Amount:        t.Amount,
			InterestPart:  t.InterestPart,
			PrincipalPart: t.PrincipalPart,
			ClientID:      t.ClientID,
			ProductID:     t.ProductID,
			BankAccountID: t.BankAccountID,
			Description:   t.Description,
			PerformedBy:   t.PerformedBy,
			BranchID:      t.BranchID,
		})
	}
	for _, u := range in.Users {
		// Empty or overlong legacy passwords leave the account without a hash; it cannot
		// log in until an admin resets the password. See LockedUsers.
		var hash string
		if u.Password != "" && len(u.Password) <= auth.MaxPasswordLen {
			h, err := auth.HashPassword(u.Password)
			if err != nil {
				return ledger.State{}, fmt.Errorf("user %q: %w", u.Username, err)
			}
			hash = h
		}
		out.Users = append(out.Users, ledger.UserAccount{
			ID: u.ID, Username: u.Username, PasswordHash: hash, Name: u.Name,
			Role:     ledger.UserRole(u.Role),
			BranchID: u.BranchID,
		})
	}
	out.Normalize()
	return out, nil
}
