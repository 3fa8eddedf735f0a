package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog item sold at the registers.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Barcode     string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"index;not null"`
	Description *string
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SalePrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	// MarginPct is derived from (SalePrice - CostPrice) / CostPrice * 100
	MarginPct decimal.Decimal `gorm:"type:decimal(5,2)"`
	Stock     int             `gorm:"not null;default:0"`
	// MinStock of 0 means explicitly zero, not "unset".
	MinStock   int        `gorm:"not null;default:5"`
	Unit       string     `gorm:"not null;default:'unit'"`
	SupplierID *uuid.UUID `gorm:"type:uuid;index"`
	Active     bool       `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
	Supplier *Supplier `gorm:"foreignKey:SupplierID"`
}
