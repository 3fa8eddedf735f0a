package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Mousaahmad63636/POS-sub001/internal/model"
)

func summaryEntry(at time.Time, txType model.TransactionType, kind model.ActionKind, amount float64, description string) model.DrawerTransaction {
	return model.DrawerTransaction{
		Type:        txType,
		Kind:        kind,
		Amount:      decimal.NewFromFloat(amount),
		Description: description,
		OccurredAt:  at,
	}
}

func TestSummarizeTotalsAndIdentities(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []model.DrawerTransaction{
		summaryEntry(base, model.TxOpen, model.ActionNormal, 100, "opened"),
		summaryEntry(base.Add(1*time.Minute), model.TxCashSale, model.ActionNormal, 200, "sale"),
		summaryEntry(base.Add(2*time.Minute), model.TxReturn, model.ActionNormal, 30, "refund"),
		summaryEntry(base.Add(3*time.Minute), model.TxExpense, model.ActionNormal, 40, "cleaning"),
		summaryEntry(base.Add(4*time.Minute), model.TxSupplierPayment, model.ActionNormal, 50, "delivery"),
		summaryEntry(base.Add(5*time.Minute), model.TxCashReceipt, model.ActionNormal, 25, "installment"),
	}

	s := Summarize(entries, time.Time{}, time.Time{})

	// Debt payments count toward sales; supplier payments count inside expenses.
	assert.Equal(t, "225", s.Sales.String())
	assert.Equal(t, "30", s.Returns.String())
	assert.Equal(t, "90", s.Expenses.String())
	assert.Equal(t, "50", s.SupplierPayments.String())
	assert.Equal(t, "25", s.DebtPayments.String())

	assert.True(t, s.NetSales.Equal(s.Sales.Sub(s.Returns)))
	assert.True(t, s.NetCashflow.Equal(s.Sales.Sub(s.Expenses).Sub(s.Returns)))
	assert.True(t, s.NetEarnings.Equal(s.NetSales.Sub(s.Expenses)))
}

func TestSummarizeModificationMovesTotalBySignedDelta(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []model.DrawerTransaction{
		summaryEntry(base, model.TxCashSale, model.ActionNormal, 100, "sale"),
		summaryEntry(base.Add(time.Minute), model.TxCashSale, model.ActionModification, -15, "price correction"),
	}

	s := Summarize(entries, time.Time{}, time.Time{})
	assert.Equal(t, "85", s.Sales.String())
}

func TestSummarizeEmptySetHoldsIdentities(t *testing.T) {
	s := Summarize(nil, time.Time{}, time.Time{})
	assert.True(t, s.Sales.IsZero())
	assert.True(t, s.NetSales.IsZero())
	assert.True(t, s.NetCashflow.IsZero())
	assert.True(t, s.NetEarnings.IsZero())
}

func TestSummarizeDateRangeIsInclusive(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []model.DrawerTransaction{
		summaryEntry(base, model.TxCashSale, model.ActionNormal, 10, "before"),
		summaryEntry(base.Add(time.Hour), model.TxCashSale, model.ActionNormal, 20, "inside"),
		summaryEntry(base.Add(2*time.Hour), model.TxCashSale, model.ActionNormal, 40, "boundary"),
		summaryEntry(base.Add(3*time.Hour), model.TxCashSale, model.ActionNormal, 80, "after"),
	}

	s := Summarize(entries, base.Add(time.Hour), base.Add(2*time.Hour))
	assert.Equal(t, "60", s.Sales.String())
}

func TestSummarizeOpeningStaysOutOfTotals(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []model.DrawerTransaction{
		summaryEntry(base, model.TxOpen, model.ActionNormal, 500, "opened"),
	}
	s := Summarize(entries, time.Time{}, time.Time{})
	assert.True(t, s.Sales.IsZero())
	assert.True(t, s.Expenses.IsZero())
}
