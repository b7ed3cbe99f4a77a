package snapshot

import (
	"github.com/shopspring/decimal"

	"github.com/tinoosan/microfin/internal/auth"
	"github.com/tinoosan/microfin/internal/ledger"
)

const (
	SeedBranchID = "br_main"
	SeedAdminID  = "u_admin"
)

// Seed is the record store of a fresh installation: the Head Office branch and an
// admin/admin administrator.
func Seed() (ledger.State, error) {
	hash, err := auth.HashPassword("admin")
	if err != nil {
		return ledger.State{}, err
	}
	st := ledger.State{
		Branches: []ledger.Branch{{
			ID:              SeedBranchID,
			Name:            "Head Office",
			Address:         "123 Finance Plaza, Dhaka",
			InitialCapital:  decimal.NewFromInt(1_000_000),
			DefaultLoanRate: decimal.NewFromInt(12),
			DefaultDPSRate:  decimal.NewFromInt(8),
			DefaultFDRRate:  decimal.NewFromInt(10),
		}},
		Users: []ledger.UserAccount{{
			ID:           SeedAdminID,
			Username:     "admin",
			PasswordHash: hash,
			Name:         "Administrator",
			Role:         ledger.RoleAdmin,
			BranchID:     SeedBranchID,
		}},
	}
	st.Normalize()
	return st, nil
}
