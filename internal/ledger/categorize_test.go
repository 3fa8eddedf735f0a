package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Mousaahmad63636/POS-sub001/internal/model"
)

func catEntry(txType model.TransactionType, kind model.ActionKind, description string) model.DrawerTransaction {
	return model.DrawerTransaction{Type: txType, Kind: kind, Description: description}
}

func TestCategorizeByType(t *testing.T) {
	assert.Equal(t, CategorySale, Categorize(catEntry(model.TxCashSale, model.ActionNormal, "counter sale")))
	assert.Equal(t, CategoryReturn, Categorize(catEntry(model.TxReturn, model.ActionNormal, "damaged item")))
	assert.Equal(t, CategoryExpense, Categorize(catEntry(model.TxExpense, model.ActionNormal, "window cleaning")))
	assert.Equal(t, CategoryExpense, Categorize(catEntry(model.TxSalaryWithdrawal, model.ActionNormal, "advance")))
	assert.Equal(t, CategorySupplierPayment, Categorize(catEntry(model.TxSupplierPayment, model.ActionNormal, "weekly delivery")))
	assert.Equal(t, CategoryOther, Categorize(catEntry(model.TxOpen, model.ActionNormal, "session opened")))
	assert.Equal(t, CategoryOther, Categorize(catEntry(model.TransactionType("gift_card"), model.ActionNormal, "")))
}

func TestCategorizeCashReceiptIsDebtPayment(t *testing.T) {
	// cash_receipt maps to debt payment regardless of description.
	assert.Equal(t, CategoryDebtPayment, Categorize(catEntry(model.TxCashReceipt, model.ActionNormal, "whatever")))
}

func TestCategorizeDescriptionSniffBeatsType(t *testing.T) {
	// Historical rows record debt payments under other type labels; the
	// description check must win over the type dispatch.
	assert.Equal(t, CategoryDebtPayment, Categorize(catEntry(model.TxCashSale, model.ActionNormal, "Debt Payment - customer #12")))
	assert.Equal(t, CategoryDebtPayment, Categorize(catEntry(model.TxExpense, model.ActionNormal, "reversal of DEBT PAYMENT")))
}

func TestCategorizeSniffSkipsModifications(t *testing.T) {
	// Only normal entries are sniffed; a modification keeps its type category.
	assert.Equal(t, CategorySale, Categorize(catEntry(model.TxCashSale, model.ActionModification, "debt payment correction")))
}
