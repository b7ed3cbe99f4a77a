package httpapi

import (
	"context"

	"github.com/tinoosan/microfin/internal/ledger"
	"github.com/tinoosan/microfin/internal/service/books"
)

// Sessions resolves operators for login and token authentication.
type Sessions interface {
	Login(ctx context.Context, username, password string) (ledger.UserAccount, error)
	User(ctx context.Context, id string) (ledger.UserAccount, error)
}

// Queries are the read side: derived fund state and the scoped record collections.
type Queries interface {
	FundState(ctx context.Context, actor *ledger.UserAccount, branchID string) (books.FundReport, error)
	ScopedRecords(ctx context.Context, actor *ledger.UserAccount, branchID string) (ledger.ScopedView, error)
	Currency() string
}

// Commands are the mutation operations. Each returns the created ids and a
// confirmation message.
type Commands interface {
	AddBankAccount(ctx context.Context, actor *ledger.UserAccount, in books.BankAccountInput) (books.Result, error)
	RecordBankTransaction(ctx context.Context, actor *ledger.UserAccount, in books.BankTransactionInput) (books.Result, error)
	RegisterClient(ctx context.Context, actor *ledger.UserAccount, in books.ClientInput) (books.Result, error)
	SetClientStatus(ctx context.Context, actor *ledger.UserAccount, clientID string, status ledger.ClientStatus) (books.Result, error)
	DisburseLoan(ctx context.Context, actor *ledger.UserAccount, in books.LoanInput) (books.Result, error)
	OpenDPS(ctx context.Context, actor *ledger.UserAccount, in books.DPSInput) (books.Result, error)
	OpenFDR(ctx context.Context, actor *ledger.UserAccount, in books.FDRInput) (books.Result, error)
	RecordTransaction(ctx context.Context, actor *ledger.UserAccount, in books.TransactionInput) (books.Result, error)
	CloseSavings(ctx context.Context, actor *ledger.UserAccount, in books.CloseInput) (books.Result, error)
	AddBranch(ctx context.Context, actor *ledger.UserAccount, in books.BranchInput) (books.Result, error)
	AddUser(ctx context.Context, actor *ledger.UserAccount, in books.UserInput) (books.Result, error)
	ResetPassword(ctx context.Context, actor *ledger.UserAccount, userID, password string) (books.Result, error)
}

// Books is everything the API needs from the application context.
type Books interface {
	Sessions
	Queries
	Commands
}
