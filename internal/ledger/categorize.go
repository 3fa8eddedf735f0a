package ledger

import (
	"strings"

	"github.com/Mousaahmad63636/POS-sub001/internal/model"
)

// Category is the reporting bucket a transaction falls into.
type Category string

const (
	CategorySale            Category = "sale"
	CategoryReturn          Category = "return"
	CategoryExpense         Category = "expense"
	CategorySupplierPayment Category = "supplier_payment"
	// CategoryDebtPayment is a cash receipt settling a customer's balance.
	// It is reported separately but counted toward sales totals.
	CategoryDebtPayment Category = "debt_payment"
	CategoryOther       Category = "other"
)

// debtPaymentMarker is matched case-insensitively against descriptions.
// Historical data records debt payments under more than one type label, so
// the description sniff must run before type dispatch. Fragile: renaming the
// description text silently breaks categorization. A dedicated category
// column is the long-term fix.
const debtPaymentMarker = "debt payment"

// Categorize classifies one transaction for reporting. Rules apply in
// priority order; the debt-payment check deliberately precedes the generic
// type switch (see debtPaymentMarker).
func Categorize(e model.DrawerTransaction) Category {
	if e.Type == model.TxCashReceipt {
		return CategoryDebtPayment
	}
	if e.Kind == model.ActionNormal && strings.Contains(strings.ToLower(e.Description), debtPaymentMarker) {
		return CategoryDebtPayment
	}

	switch e.Type {
	case model.TxCashSale:
		return CategorySale
	case model.TxReturn:
		return CategoryReturn
	case model.TxExpense, model.TxSalaryWithdrawal:
		return CategoryExpense
	case model.TxSupplierPayment:
		return CategorySupplierPayment
	default:
		return CategoryOther
	}
}
