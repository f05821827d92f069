package models

import "github.com/shopspring/decimal"

// RepairWork: выполненная работа в ремонте
type RepairWork struct {
	ID         uint     `gorm:"primaryKey"`
	RepairID   uint     `gorm:"not null;index"`
	WorkTypeID uint     `gorm:"not null;index"`
	WorkType   WorkType `gorm:"constraint:OnDelete:RESTRICT"`

	Quantity  int             `gorm:"not null;default:1"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Cost      decimal.Decimal `gorm:"type:decimal(10,2);not null"` // UnitPrice × Quantity
	Notes     string          `gorm:"type:text"`
}

// RepairComponent: компонент, использованный в ремонте.
// WasPurchased: закуплен специально под этот ремонт и склад не трогает.
type RepairComponent struct {
	ID          uint      `gorm:"primaryKey"`
	RepairID    uint      `gorm:"not null;index"`
	ComponentID uint      `gorm:"not null;index"`
	Component   Component `gorm:"constraint:OnDelete:RESTRICT"`

	Quantity     int             `gorm:"not null;default:1"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(10,2);not null"` // UnitPrice × Quantity
	WasPurchased bool            `gorm:"not null;default:false"`
	Notes        string          `gorm:"type:text"`

	// сколько единиц реально списано со склада под эту строку
	StockDrawn int `gorm:"not null;default:0"`
}

// LineCost возвращает цену × количество
func LineCost(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
