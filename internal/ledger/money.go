package ledger

import (
	"github.com/govalues/money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used for display when no currency is configured.
const DefaultCurrency = "BDT"

// FormatAmount renders d in currency minor units, e.g. "BDT 1000000.00".
// Unknown currencies fall back to a plain two-decimal string.
func FormatAmount(currency string, d decimal.Decimal) string {
	units := d.Shift(2).Round(0).IntPart()
	amt, err := money.NewAmountFromMinorUnits(currency, units)
	if err != nil {
		return d.StringFixed(2)
	}
	return amt.String()
}

// FormattedFundState is FundState with every figure rendered for display.
type FormattedFundState struct {
	TotalCapital          string `json:"total_capital"`
	AvailableCash         string `json:"available_cash"`
	TotalLoansOut         string `json:"total_loans_out"`
	TotalSavingsLiability string `json:"total_savings_liability"`
}

func (f FundState) Format(currency string) FormattedFundState {
	return FormattedFundState{
		TotalCapital:          FormatAmount(currency, f.TotalCapital),
		AvailableCash:         FormatAmount(currency, f.AvailableCash),
		TotalLoansOut:         FormatAmount(currency, f.TotalLoansOut),
		TotalSavingsLiability: FormatAmount(currency, f.TotalSavingsLiability),
	}
}
