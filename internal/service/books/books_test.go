package books

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/microfin/internal/auth"
	"github.com/tinoosan/microfin/internal/errs"
	"github.com/tinoosan/microfin/internal/ident"
	"github.com/tinoosan/microfin/internal/ledger"
	"github.com/tinoosan/microfin/internal/snapshot"
	"github.com/tinoosan/microfin/internal/storage/memory"
)

var fixedNow = time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decPtr(v int64) *decimal.Decimal { d := decimal.NewFromInt(v); return &d }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type fixture struct {
	books   *Books
	store   *memory.Store
	admin   *ledger.UserAccount
	manager *ledger.UserAccount
}

// setup builds Books over the seed plus a second branch "br_north" with its own manager.
func setup(t *testing.T) fixture {
	t.Helper()
	st, err := snapshot.Seed()
	require.NoError(t, err)
	st.Branches = append(st.Branches, ledger.Branch{
		ID: "br_north", Name: "North", InitialCapital: dec(200_000),
		DefaultLoanRate: dec(14), DefaultDPSRate: dec(7), DefaultFDRRate: dec(9),
	})
	st.Users = append(st.Users, ledger.UserAccount{
		ID: "u_north", Username: "north", Name: "North Manager", Role: ledger.RoleManager, BranchID: "br_north",
	})
	store := memory.New()
	b := New(st, Options{
		Store:  store,
		Key:    "test",
		Logger: testLogger(),
		IDs:    ident.NewSequence(),
		Clock:  func() time.Time { return fixedNow },
	})
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	admin := st.Users[0]
	manager := st.Users[1]
	return fixture{books: b, store: store, admin: &admin, manager: &manager}
}

func mustClient(t *testing.T, b *Books, actor *ledger.UserAccount, name string) string {
	t.Helper()
	res, err := b.RegisterClient(context.Background(), actor, ClientInput{Name: name})
	require.NoError(t, err)
	return res.ID
}

func fund(t *testing.T, b *Books, actor *ledger.UserAccount, scope string) ledger.FundState {
	t.Helper()
	rep, err := b.FundState(context.Background(), actor, scope)
	require.NoError(t, err)
	return rep.Fund
}

func TestScenario_DisburseThenCollect(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	clientID := mustClient(t, f.books, f.admin, "Rahima")

	res, err := f.books.DisburseLoan(ctx, f.admin, LoanInput{ClientID: clientID, Principal: dec(50_000), TermMonths: 12})
	require.NoError(t, err)
	assert.Equal(t, "l_1", res.ID)
	assert.Equal(t, "tx_1", res.TransactionID)
	assert.Contains(t, res.Message, "Loan disbursed")

	fs := fund(t, f.books, f.admin, "br_main")
	assert.True(t, fs.AvailableCash.Equal(dec(950_000)), "cash %s", fs.AvailableCash)
	assert.True(t, fs.TotalLoansOut.Equal(dec(50_000)))

	_, err = f.books.RecordTransaction(ctx, f.admin, TransactionInput{Type: ledger.TxCollection, Amount: dec(10_000), ClientID: clientID, ProductID: res.ID})
	require.NoError(t, err)
	fs = fund(t, f.books, f.admin, "br_main")
	assert.True(t, fs.AvailableCash.Equal(dec(960_000)))
	assert.True(t, fs.TotalLoansOut.Equal(dec(50_000)))

	st := f.books.Snapshot()
	require.Len(t, st.Loans, 1)
	loan := st.Loans[0]
	assert.True(t, loan.Disbursed)
	assert.True(t, loan.RemainingPrincipal.Equal(dec(50_000)))
	assert.True(t, loan.InterestRate.Equal(dec(12)), "branch default rate applies")
	assert.Equal(t, ledger.MethodFlat, loan.Method)
	assert.Equal(t, "Administrator", loan.CreatedBy)
	assert.Equal(t, "Loan Disbursement", st.Transactions[0].Description)
	assert.Equal(t, loan.ID, st.Transactions[0].ProductID)
}

func TestScenario_OpenAndCloseDPS(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	clientID := mustClient(t, f.books, f.admin, "Karim")

	res, err := f.books.OpenDPS(ctx, f.admin, DPSInput{ClientID: clientID, MonthlyAmount: dec(2_000), TermYears: 5})
	require.NoError(t, err)
	st := f.books.Snapshot()
	require.Len(t, st.Transactions, 1)
	assert.Equal(t, ledger.TxSavings, st.Transactions[0].Type)
	assert.True(t, st.Transactions[0].Amount.Equal(dec(2_000)))
	assert.Equal(t, "Initial DPS Installment", st.Transactions[0].Description)
	assert.True(t, st.DPS[0].InterestRate.Equal(dec(8)))
	assert.True(t, fund(t, f.books, f.admin, "br_main").TotalSavingsLiability.Equal(dec(2_000)))

	closed, err := f.books.CloseSavings(ctx, f.admin, CloseInput{Kind: ledger.KindDPS, ProductID: res.ID, Principal: dec(2_000), Interest: dec(160)})
	require.NoError(t, err)
	assert.Equal(t, "DPS Closed Successfully", closed.Message)

	st = f.books.Snapshot()
	assert.Equal(t, ledger.ProductClosed, st.DPS[0].Status)
	w := st.Transactions[1]
	assert.Equal(t, ledger.TxWithdrawal, w.Type)
	assert.True(t, w.Amount.Equal(dec(2_160)))
	assert.True(t, w.InterestPart.Equal(dec(160)))
	assert.True(t, w.PrincipalPart.Equal(dec(2_000)))
	assert.Equal(t, clientID, w.ClientID)
	assert.Equal(t, "Closing DPS Product", w.Description)

	// the withdrawal removes the full payout from the liability
	assert.True(t, fund(t, f.books, f.admin, "br_main").TotalSavingsLiability.Equal(dec(-160)))

	_, err = f.books.CloseSavings(ctx, f.admin, CloseInput{Kind: ledger.KindDPS, ProductID: res.ID, Principal: dec(1)})
	assert.ErrorIs(t, err, errs.ErrProductClosed)
	assert.Len(t, f.books.Snapshot().Transactions, 2)
}

func TestOpenFDR_AndClose(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	clientID := mustClient(t, f.books, f.manager, "Nasrin")

	res, err := f.books.OpenFDR(ctx, f.manager, FDRInput{ClientID: clientID, DepositAmount: dec(10_000), InterestRate: decPtr(11), TermMonths: 6})
	require.NoError(t, err)
	assert.Equal(t, "FDR opened", res.Message)

	st := f.books.Snapshot()
	assert.Equal(t, "br_north", st.FDR[0].BranchID)
	assert.True(t, st.FDR[0].InterestRate.Equal(dec(11)))
	assert.Equal(t, time.Date(2024, time.November, 1, 10, 0, 0, 0, time.UTC), st.FDR[0].MaturityDate())
	assert.Equal(t, "FDR Initial Deposit", st.Transactions[0].Description)

	_, err = f.books.CloseSavings(ctx, f.manager, CloseInput{Kind: ledger.KindDPS, ProductID: res.ID, Principal: dec(10_000)})
	assert.ErrorIs(t, err, errs.ErrNotFound, "an FDR id is not a DPS")

	_, err = f.books.CloseSavings(ctx, f.manager, CloseInput{Kind: ledger.KindFDR, ProductID: res.ID, Principal: dec(10_000), Interest: dec(450)})
	require.NoError(t, err)
	fs := fund(t, f.books, f.manager, "")
	assert.True(t, fs.TotalSavingsLiability.Equal(dec(-450)))
	assert.True(t, fs.AvailableCash.Equal(dec(200_000-450)))
}

func TestScopeIsNarrowedForNonAdmins(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mustClient(t, f.books, f.admin, "Main Client")
	mustClient(t, f.books, f.manager, "North Client")

	rep, err := f.books.FundState(ctx, f.manager, ledger.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, "br_north", rep.Scope)
	assert.Equal(t, "North", rep.BranchName)
	assert.True(t, rep.Fund.TotalCapital.Equal(dec(200_000)))

	view, err := f.books.ScopedRecords(ctx, f.manager, ledger.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, "br_north", view.BranchID)
	require.Len(t, view.Clients, 1)
	assert.Equal(t, "North Client", view.Clients[0].Name)

	rep, err = f.books.FundState(ctx, f.admin, "")
	require.NoError(t, err)
	assert.Equal(t, ledger.ScopeAll, rep.Scope)
	assert.True(t, rep.Fund.TotalCapital.Equal(dec(1_200_000)))

	_, err = f.books.FundState(ctx, f.admin, "br_nowhere")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestFundState_AdditiveAcrossBranches(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	main := mustClient(t, f.books, f.admin, "A")
	north := mustClient(t, f.books, f.manager, "B")
	_, err := f.books.DisburseLoan(ctx, f.admin, LoanInput{ClientID: main, Principal: dec(30_000), TermMonths: 6})
	require.NoError(t, err)
	_, err = f.books.OpenDPS(ctx, f.manager, DPSInput{ClientID: north, MonthlyAmount: dec(500), TermYears: 2})
	require.NoError(t, err)
	_, err = f.books.RecordTransaction(ctx, f.manager, TransactionInput{Type: ledger.TxOpex, Amount: dec(1_200), Description: "Rent"})
	require.NoError(t, err)

	reports, err := f.books.BranchReports(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	sum := ledger.FundState{}
	for _, r := range reports[:2] {
		sum = sum.Add(r.Fund)
	}
	assert.Equal(t, ledger.ScopeAll, reports[2].Scope)
	assert.True(t, reports[2].Fund.Equal(sum), "all %+v sum %+v", reports[2].Fund, sum)

	own, err := f.books.BranchReports(ctx, f.manager)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "br_north", own[0].Scope)
}

func TestUnauthenticatedActorsInsertNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	before := f.books.Version()

	_, err := f.books.RegisterClient(ctx, nil, ClientInput{Name: "Ghost"})
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)

	stranger := &ledger.UserAccount{ID: "u_stranger", Role: ledger.RoleAdmin, BranchID: "br_main"}
	_, err = f.books.RecordTransaction(ctx, stranger, TransactionInput{Type: ledger.TxOpex, Amount: dec(5)})
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)

	_, err = f.books.FundState(ctx, nil, "")
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)

	assert.Equal(t, before, f.books.Version())
	st := f.books.Snapshot()
	assert.Empty(t, st.Clients)
	assert.Empty(t, st.Transactions)
}

func TestActorRoleComesFromStore(t *testing.T) {
	f := setup(t)
	forged := *f.manager
	forged.Role = ledger.RoleAdmin
	forged.BranchID = "br_main"

	rep, err := f.books.FundState(context.Background(), &forged, ledger.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, "br_north", rep.Scope)
}

func TestFailedPreconditionsAreAtomic(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	clientID := mustClient(t, f.books, f.admin, "Salma")
	before := f.books.Snapshot()
	version := f.books.Version()

	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"unknown client", func() error {
			_, err := f.books.DisburseLoan(ctx, f.admin, LoanInput{ClientID: "c_404", Principal: dec(10), TermMonths: 1})
			return err
		}, errs.ErrNotFound},
		{"zero principal", func() error {
			_, err := f.books.DisburseLoan(ctx, f.admin, LoanInput{ClientID: clientID, Principal: decimal.Zero, TermMonths: 1})
			return err
		}, errs.ErrInvalid},
		{"bad method", func() error {
			_, err := f.books.DisburseLoan(ctx, f.admin, LoanInput{ClientID: clientID, Principal: dec(1), TermMonths: 1, Method: "BALLOON"})
			return err
		}, errs.ErrInvalid},
		{"negative rate", func() error {
			_, err := f.books.OpenDPS(ctx, f.admin, DPSInput{ClientID: clientID, MonthlyAmount: dec(1), TermYears: 1, InterestRate: decPtr(-1)})
			return err
		}, errs.ErrInvalid},
		{"fdr without term", func() error {
			_, err := f.books.OpenFDR(ctx, f.admin, FDRInput{ClientID: clientID, DepositAmount: dec(1)})
			return err
		}, errs.ErrInvalid},
		{"manager on other branch client", func() error {
			_, err := f.books.OpenDPS(ctx, f.manager, DPSInput{ClientID: clientID, MonthlyAmount: dec(1), TermYears: 1})
			return err
		}, errs.ErrForbidden},
		{"generic disbursement", func() error {
			_, err := f.books.RecordTransaction(ctx, f.admin, TransactionInput{Type: ledger.TxDisbursement, Amount: dec(1)})
			return err
		}, errs.ErrInvalid},
		{"generic bank deposit", func() error {
			_, err := f.books.RecordTransaction(ctx, f.admin, TransactionInput{Type: ledger.TxBankDeposit, Amount: dec(1)})
			return err
		}, errs.ErrInvalid},
		{"unknown type", func() error {
			_, err := f.books.RecordTransaction(ctx, f.admin, TransactionInput{Type: "REFUND", Amount: dec(1)})
			return err
		}, errs.ErrInvalid},
		{"negative amount", func() error {
			_, err := f.books.RecordTransaction(ctx, f.admin, TransactionInput{Type: ledger.TxOpex, Amount: dec(-5)})
			return err
		}, errs.ErrInvalid},
		{"unknown product", func() error {
			_, err := f.books.RecordTransaction(ctx, f.admin, TransactionInput{Type: ledger.TxCollection, Amount: dec(5), ProductID: "l_404"})
			return err
		}, errs.ErrNotFound},
		{"close unknown fdr", func() error {
			_, err := f.books.CloseSavings(ctx, f.admin, CloseInput{Kind: ledger.KindFDR, ProductID: "fdr_404", Principal: dec(1)})
			return err
		}, errs.ErrNotFound},
		{"close unknown kind", func() error {
			_, err := f.books.CloseSavings(ctx, f.admin, CloseInput{Kind: "LOAN", ProductID: "x", Principal: dec(1)})
			return err
		}, errs.ErrInvalid},
		{"client without name", func() error {
			_, err := f.books.RegisterClient(ctx, f.admin, ClientInput{Name: "  "})
			return err
		}, errs.ErrInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.run(), tc.want)
		})
	}

	assert.Equal(t, version, f.books.Version())
	after := f.books.Snapshot()
	assert.Equal(t, len(before.Transactions), len(after.Transactions))
	assert.Equal(t, len(before.Loans), len(after.Loans))
	assert.Equal(t, len(before.DPS), len(after.DPS))
	assert.Equal(t, len(before.FDR), len(after.FDR))
}

func TestBankBalanceTracksTransactions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, err := f.books.AddBankAccount(ctx, f.admin, BankAccountInput{BankName: "Sonali", AccountNumber: "001", AccountType: ledger.BankAccountCurrent})
	require.NoError(t, err)
	assert.Equal(t, "Bank Account Added", a.Message)
	b, err := f.books.AddBankAccount(ctx, f.admin, BankAccountInput{BranchID: "br_north", BankName: "BRAC", AccountNumber: "002", AccountType: ledger.BankAccountSavings})
	require.NoError(t, err)

	ops := []struct {
		id  string
		typ ledger.TransactionType
		amt int64
	}{
		{a.ID, ledger.TxBankDeposit, 100_000},
		{b.ID, ledger.TxBankDeposit, 5_000},
		{a.ID, ledger.TxBankWithdrawal, 30_000},
		{b.ID, ledger.TxBankWithdrawal, 1_000},
		{a.ID, ledger.TxBankDeposit, 2_500},
	}
	for _, op := range ops {
		res, err := f.books.RecordBankTransaction(ctx, f.admin, BankTransactionInput{AccountID: op.id, Type: op.typ, Amount: dec(op.amt)})
		require.NoError(t, err)
		assert.Equal(t, "Bank Transaction Recorded", res.Message)
	}

	st := f.books.Snapshot()
	for _, acct := range st.BankAccounts {
		assert.True(t, acct.Balance.Equal(ledger.BankBalance(acct.ID, st.Transactions)), acct.ID)
	}
	assert.True(t, st.BankAccounts[0].Balance.Equal(dec(72_500)))
	assert.True(t, st.BankAccounts[1].Balance.Equal(dec(4_000)))
	assert.Equal(t, "br_north", st.Transactions[1].BranchID, "bank transactions belong to the account's branch")
	assert.Equal(t, "Bank Deposit", st.Transactions[0].Description)

	fs := fund(t, f.books, f.admin, "br_main")
	assert.True(t, fs.AvailableCash.Equal(dec(1_000_000-72_500)))
}

func TestBankRules(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	main, err := f.books.AddBankAccount(ctx, f.admin, BankAccountInput{BankName: "Sonali", AccountNumber: "001", AccountType: ledger.BankAccountFixed})
	require.NoError(t, err)

	_, err = f.books.AddBankAccount(ctx, f.manager, BankAccountInput{BranchID: "br_main", BankName: "X", AccountNumber: "1", AccountType: ledger.BankAccountCurrent})
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = f.books.AddBankAccount(ctx, f.admin, BankAccountInput{BranchID: "br_void", BankName: "X", AccountNumber: "1", AccountType: ledger.BankAccountCurrent})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = f.books.AddBankAccount(ctx, f.admin, BankAccountInput{BankName: "X", AccountNumber: "1", AccountType: "CHECKING"})
	assert.ErrorIs(t, err, errs.ErrInvalid)
	_, err = f.books.AddBankAccount(ctx, f.admin, BankAccountInput{BankName: "", AccountNumber: "1", AccountType: ledger.BankAccountCurrent})
	assert.ErrorIs(t, err, errs.ErrInvalid)

	_, err = f.books.RecordBankTransaction(ctx, f.manager, BankTransactionInput{AccountID: main.ID, Type: ledger.TxBankDeposit, Amount: dec(1)})
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = f.books.RecordBankTransaction(ctx, f.admin, BankTransactionInput{AccountID: "bnk_404", Type: ledger.TxBankDeposit, Amount: dec(1)})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = f.books.RecordBankTransaction(ctx, f.admin, BankTransactionInput{AccountID: main.ID, Type: ledger.TxCollection, Amount: dec(1)})
	assert.ErrorIs(t, err, errs.ErrInvalid)

	when := time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC)
	_, err = f.books.RecordBankTransaction(ctx, f.admin, BankTransactionInput{AccountID: main.ID, Type: ledger.TxBankWithdrawal, Amount: dec(700), Date: &when, Description: "petty cash"})
	require.NoError(t, err)
	st := f.books.Snapshot()
	assert.True(t, st.BankAccounts[0].Balance.Equal(dec(-700)), "no sufficiency check on bank withdrawals")
	assert.Equal(t, when, st.Transactions[0].Date)
	assert.Equal(t, "petty cash", st.Transactions[0].Description)
}

func TestRecordTransaction_StampsActor(t *testing.T) {
	f := setup(t)
	res, err := f.books.RecordTransaction(context.Background(), f.manager, TransactionInput{Type: ledger.TxSavings, Amount: dec(300)})
	require.NoError(t, err)
	assert.Empty(t, res.ID)
	assert.Equal(t, "Transaction recorded", res.Message)

	tx := f.books.Snapshot().Transactions[0]
	assert.Equal(t, "br_north", tx.BranchID)
	assert.Equal(t, "North Manager", tx.PerformedBy)
	assert.Equal(t, fixedNow, tx.Date)
	assert.Equal(t, "Savings Deposit", tx.Description)
}

func TestRegisterClient(t *testing.T) {
	f := setup(t)
	res, err := f.books.RegisterClient(context.Background(), f.manager, ClientInput{Name: " Jamal ", KYCID: "NID-9", Phone: "0171"})
	require.NoError(t, err)
	assert.Equal(t, "Client registered", res.Message)
	c := f.books.Snapshot().Clients[0]
	assert.Equal(t, "Jamal", c.Name)
	assert.Equal(t, ledger.ClientActive, c.Status)
	assert.Equal(t, "br_north", c.BranchID)
	assert.Equal(t, fixedNow, c.JoinDate)
	assert.Equal(t, "North Manager", c.CreatedBy)
}

func TestFundStateMemo(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	fund(t, f.books, f.admin, "br_main")
	fund(t, f.books, f.admin, "br_main")
	fund(t, f.books, f.admin, "")
	assert.Equal(t, 2, f.books.derivations)

	_, err := f.books.RecordTransaction(ctx, f.admin, TransactionInput{Type: ledger.TxOpex, Amount: dec(10)})
	require.NoError(t, err)
	fs := fund(t, f.books, f.admin, "br_main")
	assert.Equal(t, 3, f.books.derivations)
	assert.True(t, fs.AvailableCash.Equal(dec(999_990)))

	// a rejected mutation leaves the memo valid
	_, err = f.books.RecordTransaction(ctx, f.admin, TransactionInput{Type: ledger.TxOpex, Amount: dec(0)})
	require.Error(t, err)
	fund(t, f.books, f.admin, "br_main")
	assert.Equal(t, 3, f.books.derivations)
}

func TestPersistence(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mustClient(t, f.books, f.admin, "Persisted")
	require.NoError(t, f.books.Flush(ctx))

	payload, err := f.store.Load(ctx, "test")
	require.NoError(t, err)
	st, err := snapshot.Decode(payload)
	require.NoError(t, err)
	require.Len(t, st.Clients, 1)
	assert.Equal(t, "Persisted", st.Clients[0].Name)

	reopened, err := Open(ctx, Options{Store: f.store, Key: "test", Logger: testLogger()})
	require.NoError(t, err)
	defer reopened.Close(ctx)
	assert.Len(t, reopened.Snapshot().Clients, 1)
	assert.Len(t, reopened.Snapshot().Branches, 2)
}

func TestPersistenceFailureKeepsMemory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	boom := errors.New("disk full")
	f.store.FailSaves(boom)

	_, err := f.books.RecordTransaction(ctx, f.admin, TransactionInput{Type: ledger.TxCollection, Amount: dec(500)})
	require.NoError(t, err, "persistence never fails the command")
	assert.ErrorIs(t, f.books.Flush(ctx), boom)
	assert.Len(t, f.books.Snapshot().Transactions, 1)
	assert.True(t, fund(t, f.books, f.admin, "br_main").AvailableCash.Equal(dec(1_000_500)))

	f.store.FailSaves(nil)
	_, err = f.books.RecordTransaction(ctx, f.admin, TransactionInput{Type: ledger.TxCollection, Amount: dec(500)})
	require.NoError(t, err)
	require.NoError(t, f.books.Flush(ctx))

	payload, err := f.store.Load(ctx, "test")
	require.NoError(t, err)
	st, err := snapshot.Decode(payload)
	require.NoError(t, err)
	assert.Len(t, st.Transactions, 2)
}

func TestOpen_SeedsEmptyStore(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, Options{Store: memory.New(), Logger: testLogger()})
	require.NoError(t, err)
	defer b.Close(ctx)
	st := b.Snapshot()
	require.Len(t, st.Branches, 1)
	assert.Equal(t, "Head Office", st.Branches[0].Name)

	_, err = Open(ctx, Options{})
	assert.ErrorIs(t, err, errs.ErrInvalid)
}

func TestConcurrentMutationsSerialise(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	acct, err := f.books.AddBankAccount(ctx, f.admin, BankAccountInput{BankName: "City", AccountNumber: "9", AccountType: ledger.BankAccountCurrent})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.books.RecordBankTransaction(ctx, f.admin, BankTransactionInput{AccountID: acct.ID, Type: ledger.TxBankDeposit, Amount: dec(10)})
			assert.NoError(t, err)
			_, err = f.books.FundState(ctx, f.admin, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	st := f.books.Snapshot()
	assert.Len(t, st.Transactions, 50)
	assert.True(t, st.BankAccounts[0].Balance.Equal(dec(500)))
	assert.True(t, fund(t, f.books, f.admin, "").AvailableCash.Equal(dec(1_200_000-500)))
}

func TestAdminCommands(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.books.AddBranch(ctx, f.admin, BranchInput{Name: "Mirpur Branch", InitialCapital: dec(300_000), DefaultLoanRate: dec(13)})
	require.NoError(t, err)
	assert.Equal(t, "br_mirpur_branch", res.ID)

	_, err = f.books.AddBranch(ctx, f.admin, BranchInput{Name: "mirpur branch"})
	assert.ErrorIs(t, err, errs.ErrConflict)
	_, err = f.books.AddBranch(ctx, f.manager, BranchInput{Name: "Rogue"})
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = f.books.AddBranch(ctx, f.admin, BranchInput{Name: "Neg", InitialCapital: dec(-1)})
	assert.ErrorIs(t, err, errs.ErrInvalid)

	// names that slug to nothing fall back to generated ids
	res, err = f.books.AddBranch(ctx, f.admin, BranchInput{Name: "!!!"})
	require.NoError(t, err)
	assert.Equal(t, "br_1", res.ID)

	userRes, err := f.books.AddUser(ctx, f.admin, UserInput{Username: "Mirpur", Password: "secret", Name: "Mirpur Manager", Role: ledger.RoleManager, BranchID: "br_mirpur_branch"})
	require.NoError(t, err)
	_, err = f.books.AddUser(ctx, f.admin, UserInput{Username: "mirpur", Password: "secret", Role: ledger.RoleManager, BranchID: "br_main"})
	assert.ErrorIs(t, err, errs.ErrConflict)
	_, err = f.books.AddUser(ctx, f.admin, UserInput{Username: "x2", Password: "secret", Role: "OWNER", BranchID: "br_main"})
	assert.ErrorIs(t, err, errs.ErrInvalid)
	_, err = f.books.AddUser(ctx, f.admin, UserInput{Username: "x3", Password: "secret", Role: ledger.RoleManager, BranchID: "br_gone"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = f.books.AddUser(ctx, f.admin, UserInput{Username: "x4", Password: "123", Role: ledger.RoleManager, BranchID: "br_main"})
	assert.ErrorIs(t, err, errs.ErrInvalid)
	_, err = f.books.AddUser(ctx, f.manager, UserInput{Username: "x5", Password: "secret", Role: ledger.RoleAdmin, BranchID: "br_main"})
	assert.ErrorIs(t, err, errs.ErrForbidden)

	u, err := f.books.Login(ctx, "MIRPUR", "secret")
	require.NoError(t, err)
	assert.Equal(t, userRes.ID, u.ID)
	require.NoError(t, auth.VerifyPassword(u.PasswordHash, "secret"))

	_, err = f.books.Login(ctx, "mirpur", "wrong")
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
	_, err = f.books.Login(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
	_, err = f.books.Login(ctx, "north", "anything")
	assert.ErrorIs(t, err, errs.ErrUnauthenticated, "accounts without a password cannot log in")

	got, err := f.books.User(ctx, userRes.ID)
	require.NoError(t, err)
	assert.Equal(t, "br_mirpur_branch", got.BranchID)
	_, err = f.books.User(ctx, "u_404")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAddUser_PasswordLength(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.books.AddUser(ctx, f.admin, UserInput{Username: "long", Password: strings.Repeat("p", 80), Role: ledger.RoleManager, BranchID: "br_main"})
	assert.ErrorIs(t, err, errs.ErrInvalid)
	_, ok := f.books.Snapshot().UserByUsername("long")
	assert.False(t, ok)

	_, err = f.books.AddUser(ctx, f.admin, UserInput{Username: "edge", Password: strings.Repeat("p", auth.MaxPasswordLen), Role: ledger.RoleManager, BranchID: "br_main"})
	require.NoError(t, err)
}

func TestResetPassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// u_north has no password hash and cannot log in until reset
	_, err := f.books.ResetPassword(ctx, f.manager, "u_north", "newpass")
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = f.books.ResetPassword(ctx, f.admin, "u_404", "newpass")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = f.books.ResetPassword(ctx, f.admin, "u_north", strings.Repeat("p", 73))
	assert.ErrorIs(t, err, errs.ErrInvalid)
	_, err = f.books.ResetPassword(ctx, f.admin, "u_north", "abc")
	assert.ErrorIs(t, err, errs.ErrInvalid)

	res, err := f.books.ResetPassword(ctx, f.admin, "u_north", "newpass")
	require.NoError(t, err)
	assert.Equal(t, "u_north", res.ID)

	u, err := f.books.Login(ctx, "north", "newpass")
	require.NoError(t, err)
	assert.Equal(t, "u_north", u.ID)
	assert.Equal(t, ledger.RoleManager, u.Role)
}

func TestRecordTransaction_ForeignReferences(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	clientID := mustClient(t, f.books, f.admin, "Karim")
	loan, err := f.books.DisburseLoan(ctx, f.admin, LoanInput{ClientID: clientID, Principal: dec(10_000), TermMonths: 12})
	require.NoError(t, err)
	before := len(f.books.Snapshot().Transactions)

	_, err = f.books.RecordTransaction(ctx, f.manager, TransactionInput{Type: ledger.TxCollection, Amount: dec(500), ClientID: clientID})
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = f.books.RecordTransaction(ctx, f.manager, TransactionInput{Type: ledger.TxCollection, Amount: dec(500), ProductID: loan.ID})
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = f.books.RecordTransaction(ctx, f.manager, TransactionInput{Type: ledger.TxCollection, Amount: dec(500), ProductID: "l_404"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Len(t, f.books.Snapshot().Transactions, before)

	_, err = f.books.RecordTransaction(ctx, f.admin, TransactionInput{Type: ledger.TxCollection, Amount: dec(500), ClientID: clientID, ProductID: loan.ID})
	require.NoError(t, err)
	assert.Len(t, f.books.Snapshot().Transactions, before+1)
}

func TestSetClientStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := mustClient(t, f.books, f.admin, "Status")

	_, err := f.books.SetClientStatus(ctx, f.admin, id, ledger.ClientPending)
	require.NoError(t, err)
	assert.Equal(t, ledger.ClientPending, f.books.Snapshot().Clients[0].Status)

	_, err = f.books.SetClientStatus(ctx, f.manager, id, ledger.ClientClosed)
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = f.books.SetClientStatus(ctx, f.admin, id, "GONE")
	assert.ErrorIs(t, err, errs.ErrInvalid)
	_, err = f.books.SetClientStatus(ctx, f.admin, "c_404", ledger.ClientClosed)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCancelledContext(t *testing.T) {
	f := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.books.RegisterClient(ctx, f.admin, ClientInput{Name: "Late"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.books.Snapshot().Clients)
}
