package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/microfin/internal/ledger"
)

func TestTransactionTypes_CoversEveryType(t *testing.T) {
	defs := TransactionTypes()
	require.Len(t, defs, len(ledger.TransactionTypes))
	for i, def := range defs {
		assert.Equal(t, ledger.TransactionTypes[i], def.Code)
		cash, liab := def.Code.Effect()
		assert.Equal(t, cash, def.CashEffect)
		assert.Equal(t, liab, def.LiabilityEffect)
		assert.NotEmpty(t, def.Label)
	}
}

func TestIsReserved(t *testing.T) {
	assert.True(t, IsReserved(ledger.TxDisbursement))
	assert.True(t, IsReserved(ledger.TxBankDeposit))
	assert.True(t, IsReserved(ledger.TxBankWithdrawal))
	assert.False(t, IsReserved(ledger.TxCollection))
	assert.False(t, IsReserved(ledger.TxOpex))
	assert.Equal(t, "Operating Expense", Label(ledger.TxOpex))
	assert.Equal(t, "FOO", Label("FOO"))
}
