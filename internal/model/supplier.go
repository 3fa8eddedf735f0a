package model

import (
	"time"

	"github.com/google/uuid"
)

// Supplier holds a vendor's commercial data. Payments to suppliers go
// through the drawer ledger as supplier_payment entries.
type Supplier struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"not null"`
	TaxID        string    `gorm:"column:tax_id;uniqueIndex;not null"`
	Phone        *string
	Email        *string
	Address      *string
	PaymentTerms *string
	Active       bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Products []Product         `gorm:"foreignKey:SupplierID"`
	Contacts []SupplierContact `gorm:"foreignKey:SupplierID"`
}

// SupplierContact is a person reachable at a supplier.
type SupplierContact struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SupplierID uuid.UUID `gorm:"type:uuid;index;not null"`
	Name       string    `gorm:"not null"`
	Phone      *string
	Email      *string
	CreatedAt  time.Time
}
