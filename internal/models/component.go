package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LowStockThreshold: остаток, ниже которого компонент считается заканчивающимся
const LowStockThreshold = 5

// Component: компонент/материал на складе
type Component struct {
	ID         uint            `gorm:"primaryKey"`
	Name       string          `gorm:"size:200;not null"`
	PartNumber string          `gorm:"size:100"`
	Quantity   int             `gorm:"not null;default:0"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Supplier   string          `gorm:"size:200"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsAvailable: хватает ли на складе n единиц
func (c Component) IsAvailable(n int) bool {
	return c.Quantity >= n
}

func (c Component) InStock() bool  { return c.Quantity > 0 }
func (c Component) LowStock() bool { return c.Quantity < LowStockThreshold }
