package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/tinoosan/microfin/internal/errs"
	"github.com/tinoosan/microfin/internal/ledger"
	"github.com/tinoosan/microfin/internal/logging"
	"github.com/tinoosan/microfin/internal/snapshot"
	"github.com/tinoosan/microfin/internal/storage"
)

func newFundCmd(f *rootFlags) *cobra.Command {
	var branchID string
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Print the fund state of each branch and the consolidated total",
		Long: `Load the record store from the configured backend and print the derived
fund state: capital, available cash, loans outstanding and savings liability.

Examples:
  microfin fund
  microfin fund --branch br_main`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := storage.Open(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			st, err := snapshot.Load(ctx, store, cfg.Storage.Key, logging.Discard())
			if err != nil {
				return err
			}
			rows, err := fundRows(st, branchID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			plain := f.plain(out)
			fmt.Fprintln(out, paint(styleTitle, plain, "Fund state ("+cfg.Ledger.Currency+")"))
			fmt.Fprintln(out, renderFund(rows, cfg.Ledger.Currency, plain))
			return nil
		},
	}
	cmd.Flags().StringVar(&branchID, "branch", "", "only report this branch id")
	return cmd
}

type fundRow struct {
	Scope string
	Name  string
	Fund  ledger.FundState
}

// fundRows lists every branch followed by the consolidated total, or just branchID
// when set.
func fundRows(st ledger.State, branchID string) ([]fundRow, error) {
	if branchID != "" {
		br, ok := st.Branch(branchID)
		if !ok {
			return nil, fmt.Errorf("branch %q: %w", branchID, errs.ErrNotFound)
		}
		return []fundRow{{Scope: br.ID, Name: br.Name, Fund: ledger.Scope(st, br.ID).FundState()}}, nil
	}
	rows := make([]fundRow, 0, len(st.Branches)+1)
	for _, br := range st.Branches {
		rows = append(rows, fundRow{
			Scope: br.ID,
			Name:  br.Name,
			Fund:  ledger.ComputeFundState(br.ID, st.Transactions, st.Loans, st.Branches),
		})
	}
	rows = append(rows, fundRow{
		Scope: ledger.ScopeAll,
		Name:  "Consolidated (All Branches)",
		Fund:  ledger.ComputeFundState(ledger.ScopeAll, st.Transactions, st.Loans, st.Branches),
	})
	return rows, nil
}

func renderFund(rows []fundRow, currency string, plain bool) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SCOPE", "BRANCH", "CAPITAL", "AVAILABLE CASH", "LOANS OUT", "SAVINGS LIABILITY")
	for _, r := range rows {
		fs := r.Fund.Format(currency)
		t.Row(r.Scope, r.Name, fs.TotalCapital, fs.AvailableCash, fs.TotalLoansOut, fs.TotalSavingsLiability)
	}
	if plain {
		t.StyleFunc(func(_, _ int) lipgloss.Style { return styleCell })
		return t.Render()
	}
	t.BorderStyle(styleMuted).StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return styleHeader
		case col < 2:
			return styleCell
		case row >= 0 && row < len(rows) && rows[row].Scope == ledger.ScopeAll:
			return styleTotal
		default:
			return styleNumber
		}
	})
	return t.Render()
}
