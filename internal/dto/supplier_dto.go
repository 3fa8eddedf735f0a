package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SupplierContactInput struct {
	Name  string  `json:"name"  validate:"required,min=1"`
	Phone *string `json:"phone"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type CreateSupplierRequest struct {
	Name         string                 `json:"name"          validate:"required,min=2"`
	TaxID        string                 `json:"tax_id"        validate:"required"`
	Phone        *string                `json:"phone"`
	Email        *string                `json:"email"         validate:"omitempty,email"`
	Address      *string                `json:"address"`
	PaymentTerms *string                `json:"payment_terms"`
	Contacts     []SupplierContactInput `json:"contacts"`
}

type UpdateSupplierRequest struct {
	Name         *string `json:"name"          validate:"omitempty,min=2"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"         validate:"omitempty,email"`
	Address      *string `json:"address"`
	PaymentTerms *string `json:"payment_terms"`
	Active       *bool   `json:"active"`
}

// PaySupplierRequest records a cash payment to a supplier. The payment is
// appended to the open drawer session of the given register as a
// supplier_payment ledger entry.
type PaySupplierRequest struct {
	RegisterID int             `json:"register_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount"      validate:"required"`
	Reference  *string         `json:"reference"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SupplierContactResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
}

type SupplierResponse struct {
	ID           string                    `json:"id"`
	Name         string                    `json:"name"`
	TaxID        string                    `json:"tax_id"`
	Phone        *string                   `json:"phone"`
	Email        *string                   `json:"email"`
	Address      *string                   `json:"address"`
	PaymentTerms *string                   `json:"payment_terms"`
	Active       bool                      `json:"active"`
	Contacts     []SupplierContactResponse `json:"contacts"`
}

type SupplierPaymentResponse struct {
	SupplierID    string          `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name"`
	SessionID     uint            `json:"session_id"`
	TransactionID uint            `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}
