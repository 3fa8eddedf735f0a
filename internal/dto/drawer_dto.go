package dto

import (
	"github.com/shopspring/decimal"

	"github.com/Mousaahmad63636/POS-sub001/internal/ledger"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenDrawerRequest struct {
	RegisterID     int             `json:"register_id"     validate:"required,min=1"`
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"min=0"`
}

type CashMovementRequest struct {
	RegisterID  int             `json:"register_id" validate:"required,min=1"`
	Amount      decimal.Decimal `json:"amount"      validate:"required,gt=0"`
	Description string          `json:"description" validate:"required,min=3"`
}

type RecordTransactionRequest struct {
	RegisterID  int             `json:"register_id" validate:"required,min=1"`
	Type        string          `json:"type"        validate:"required,oneof=cash_sale cash_receipt expense supplier_payment return salary_withdrawal"`
	Kind        string          `json:"kind"        validate:"omitempty,oneof=normal modification"`
	Amount      decimal.Decimal `json:"amount"      validate:"required"`
	Description string          `json:"description" validate:"required,min=3"`
}

type CloseDrawerRequest struct {
	RegisterID    int             `json:"register_id"    validate:"required,min=1"`
	CountedAmount decimal.Decimal `json:"counted_amount" validate:"min=0"`
	Notes         *string         `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DrawerSessionResponse struct {
	SessionID      uint            `json:"session_id"`
	RegisterID     int             `json:"register_id"`
	CashierID      string          `json:"cashier_id"`
	CashierName    string          `json:"cashier_name"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Status         string          `json:"status"`
	OpenedAt       string          `json:"opened_at"`
	ClosedAt       *string         `json:"closed_at"`
	// Drift is advisory; a mutation that detects drift still succeeds.
	Drift *ledger.DriftReport `json:"drift,omitempty"`
}

type CloseDrawerResponse struct {
	Session DrawerSessionResponse `json:"session"`
	// CountedAmount and Difference record the physical count and
	// counted − balance-before-close.
	CountedAmount decimal.Decimal         `json:"counted_amount"`
	Difference    decimal.Decimal         `json:"difference"`
	DurationMins  int64                   `json:"duration_minutes"`
	Summary       ledger.FinancialSummary `json:"summary"`
}

type SessionReportResponse struct {
	Session DrawerSessionResponse   `json:"session"`
	Summary ledger.FinancialSummary `json:"summary"`
	Drift   ledger.DriftReport      `json:"drift"`
	Entries []TransactionResponse   `json:"entries"`
}

type TransactionResponse struct {
	ID           uint            `json:"id"`
	Type         string          `json:"type"`
	Kind         string          `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	OccurredAt   string          `json:"occurred_at"`
}
