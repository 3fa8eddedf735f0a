package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus is the lifecycle state of a drawer session.
type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// TransactionType is the closed set of cash movement kinds.
// The string values are part of the persisted schema — do not rename.
type TransactionType string

const (
	TxOpen             TransactionType = "open"
	TxCashSale         TransactionType = "cash_sale"
	TxCashIn           TransactionType = "cash_in"
	TxCashOut          TransactionType = "cash_out"
	TxCashReceipt      TransactionType = "cash_receipt"
	TxExpense          TransactionType = "expense"
	TxSupplierPayment  TransactionType = "supplier_payment"
	TxReturn           TransactionType = "return"
	TxSalaryWithdrawal TransactionType = "salary_withdrawal"
)

// ActionKind distinguishes independent movements from correction deltas.
// A modification entry carries a signed delta against a prior entry of the
// same type — history is never edited in place.
type ActionKind string

const (
	ActionNormal       ActionKind = "normal"
	ActionModification ActionKind = "modification"
)

// DrawerSession is one cashier's open-to-close working period.
// Exactly one session may be open per register at a time.
// Integer ids are assigned by the store on creation.
type DrawerSession struct {
	ID          uint   `gorm:"primaryKey"`
	RegisterID  int    `gorm:"index;not null"`
	CashierID   string `gorm:"type:uuid;not null"`
	CashierName string `gorm:"not null"`
	// OpeningBalance is the seed amount counted into the drawer at open.
	OpeningBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// CurrentBalance is the persisted running balance, updated on every
	// accepted transaction. The ledger replay is the source of truth;
	// drift between the two is what DetectDrift reports.
	CurrentBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status         SessionStatus   `gorm:"type:varchar(20);not null;default:'open';index"`
	// CountedAmount / Difference are set on close: the cashier's physical
	// count and counted − current at the moment of closing.
	CountedAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Difference    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ClosingNotes  *string
	OpenedAt      time.Time
	ClosedAt      *time.Time

	Transactions []DrawerTransaction `gorm:"foreignKey:SessionID"`
}

// DrawerTransaction is an immutable entry in a session's ledger.
// Entries are totally ordered by (OccurredAt, ID); the autoincrement id is
// the insertion-sequence tie-break for equal timestamps.
type DrawerTransaction struct {
	ID        uint            `gorm:"primaryKey"`
	SessionID uint            `gorm:"index;not null"`
	Type      TransactionType `gorm:"type:varchar(30);not null"`
	Kind      ActionKind      `gorm:"type:varchar(20);not null;default:'normal'"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Description is free text; categorization still sniffs it for debt
	// payments (see ledger.Categorize).
	Description string `gorm:"not null"`
	// BalanceAfter is the running balance snapshot taken at insertion.
	BalanceAfter decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	OccurredAt   time.Time       `gorm:"index;not null"`
	CreatedAt    time.Time
}
