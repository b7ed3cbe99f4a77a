package httpapi

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"

	"github.com/tinoosan/microfin/internal/ledger"
	"github.com/tinoosan/microfin/internal/service/books"
)

func (s *Server) reply(w http.ResponseWriter, r *http.Request, status int, res books.Result, err error) {
	if err != nil {
		s.writeBooksErr(w, r, err)
		return
	}
	toJSON(w, status, res)
}

// POST /v1/bank-accounts
func (s *Server) postBankAccount(w http.ResponseWriter, r *http.Request) {
	var req bankAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.books.AddBankAccount(r.Context(), actorFrom(r.Context()), books.BankAccountInput{
		BranchID:      req.BranchID,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountType:   req.AccountType,
	})
	s.reply(w, r, http.StatusCreated, res, err)
}

// POST /v1/bank-accounts/{id}/transactions
func (s *Server) postBankTransaction(w http.ResponseWriter, r *http.Request) {
	var req bankTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.books.RecordBankTransaction(r.Context(), actorFrom(r.Context()), books.BankTransactionInput{
		AccountID:   chi.URLParam(r, "id"),
		Type:        req.Type,
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
	})
	s.reply(w, r, http.StatusCreated, res, err)
}

// POST /v1/clients
func (s *Server) postClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.books.RegisterClient(r.Context(), actorFrom(r.Context()), books.ClientInput{
		Name:    req.Name,
		KYCID:   req.KYCID,
		Phone:   req.Phone,
		Address: req.Address,
	})
	s.reply(w, r, http.StatusCreated, res, err)
}

// PATCH /v1/clients/{id}/status
func (s *Server) patchClientStatus(w http.ResponseWriter, r *http.Request) {
	var req clientStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.books.SetClientStatus(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"), req.Status)
	s.reply(w, r, http.StatusOK, res, err)
}

// POST /v1/loans
func (s *Server) postLoan(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.books.DisburseLoan(r.Context(), actorFrom(r.Context()), books.LoanInput{
		ClientID:     req.ClientID,
		Principal:    req.Principal,
		InterestRate: req.InterestRate,
		TermMonths:   req.TermMonths,
		Method:       req.Method,
	})
	s.reply(w, r, http.StatusCreated, res, err)
}

// POST /v1/dps
func (s *Server) postDPS(w http.ResponseWriter, r *http.Request) {
	var req dpsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.books.OpenDPS(r.Context(), actorFrom(r.Context()), books.DPSInput{
		ClientID:      req.ClientID,
		MonthlyAmount: req.MonthlyAmount,
		InterestRate:  req.InterestRate,
		TermYears:     req.TermYears,
	})
	s.reply(w, r, http.StatusCreated, res, err)
}

// POST /v1/fdr
func (s *Server) postFDR(w http.ResponseWriter, r *http.Request) {
	var req fdrRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.books.OpenFDR(r.Context(), actorFrom(r.Context()), books.FDRInput{
		ClientID:      req.ClientID,
		DepositAmount: req.DepositAmount,
		InterestRate:  req.InterestRate,
		TermMonths:    req.TermMonths,
	})
	s.reply(w, r, http.StatusCreated, res, err)
}

// POST /v1/dps/{id}/close and /v1/fdr/{id}/close
func (s *Server) closeSavings(kind ledger.ProductKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req closeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := s.books.CloseSavings(r.Context(), actorFrom(r.Context()), books.CloseInput{
			Kind:      kind,
			ProductID: chi.URLParam(r, "id"),
			Principal: req.Principal,
			Interest:  req.Interest,
		})
		s.reply(w, r, http.StatusOK, res, err)
	}
}

// POST /v1/transactions
func (s *Server) postTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.books.RecordTransaction(r.Context(), actorFrom(r.Context()), books.TransactionInput{
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		ClientID:    req.ClientID,
		ProductID:   req.ProductID,
	})
	s.reply(w, r, http.StatusCreated, res, err)
}

// POST /v1/branches
func (s *Server) postBranch(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.books.AddBranch(r.Context(), actorFrom(r.Context()), books.BranchInput{
		Name:            req.Name,
		Address:         req.Address,
		InitialCapital:  req.InitialCapital,
		DefaultLoanRate: req.DefaultLoanRate,
		DefaultDPSRate:  req.DefaultDPSRate,
		DefaultFDRRate:  req.DefaultFDRRate,
	})
	s.reply(w, r, http.StatusCreated, res, err)
}

// POST /v1/users
func (s *Server) postUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.books.AddUser(r.Context(), actorFrom(r.Context()), books.UserInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
		BranchID: req.BranchID,
	})
	s.reply(w, r, http.StatusCreated, res, err)
}

// PUT /v1/users/{id}/password
func (s *Server) putPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.books.ResetPassword(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"), req.Password)
	s.reply(w, r, http.StatusOK, res, err)
}
