// Package ledger держит в согласованном состоянии стоимость ремонтов и остатки склада.
//
// Каждое изменение строк ремонта, явный вызов ledger: запись строки, пересчёт
// Repair.TotalCost и движение склада выполняются в одной транзакции.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"repair-shop/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxMoney: предел колонок decimal(10,2)
var maxMoney = decimal.New(1, 8)

type Ledger struct {
	db  *gorm.DB
	now func() time.Time
}

type Option func(*Ledger)

// WithClock подменяет часы (номер акта, дата приёма)
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(db *gorm.DB, opts ...Option) *Ledger {
	l := &Ledger{db: db, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// UpdatedTotals: результат записи или удаления строки ремонта
type UpdatedTotals struct {
	RepairID  uint
	LineID    uint
	LineCost  decimal.Decimal
	TotalCost decimal.Decimal

	// заполняются только для строк компонентов
	ComponentID    uint
	StockQuantity  int
	StockDelta     int  // <0: списано со склада, >0 — возвращено
	StockShortfall bool // на складе не хватило, списание пропущено
}

// forUpdate блокирует строку до конца транзакции; sqlite блокировок строк не умеет
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func lockRepair(tx *gorm.DB, id uint) (*models.Repair, error) {
	var r models.Repair
	if err := forUpdate(tx).First(&r, id).Error; err != nil {
		return nil, notFound(err, "repair", id)
	}
	return &r, nil
}

func lockComponent(tx *gorm.DB, id uint) (*models.Component, error) {
	var c models.Component
	if err := forUpdate(tx).First(&c, id).Error; err != nil {
		return nil, notFound(err, "component", id)
	}
	return &c, nil
}

func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, models.ErrNotFound)
	}
	return err
}

func validateLine(quantity int, unitPrice decimal.Decimal) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", models.ErrValidation)
	}
	if unitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price must not be negative", models.ErrValidation)
	}
	if models.LineCost(unitPrice, quantity).GreaterThanOrEqual(maxMoney) {
		return fmt.Errorf("%w: line cost is too large", models.ErrValidation)
	}
	return nil
}
