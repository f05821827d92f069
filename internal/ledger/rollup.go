package ledger

import (
	"context"
	"fmt"
	"strings"

	"repair-shop/internal/logger"
	"repair-shop/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecomputeTotal суммирует стоимость всех работ и компонентов ремонта.
// Только чтение; у несохранённого ремонта (id 0) стоимость нулевая.
func (l *Ledger) RecomputeTotal(ctx context.Context, repairID uint) (decimal.Decimal, error) {
	const op = "ledger.RecomputeTotal"

	if repairID == 0 {
		return decimal.Zero, nil
	}
	total, err := sumLines(l.db.WithContext(ctx), repairID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

func sumLines(tx *gorm.DB, repairID uint) (decimal.Decimal, error) {
	var works []decimal.Decimal
	if err := tx.Model(&models.RepairWork{}).
		Where("repair_id = ?", repairID).
		Pluck("cost", &works).Error; err != nil {
		return decimal.Zero, err
	}

	var components []decimal.Decimal
	if err := tx.Model(&models.RepairComponent{}).
		Where("repair_id = ?", repairID).
		Pluck("total_cost", &components).Error; err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, c := range works {
		total = total.Add(c)
	}
	for _, c := range components {
		total = total.Add(c)
	}
	return total, nil
}

// rollup пересчитывает итог и пишет только колонку total_cost
func rollup(tx *gorm.DB, repairID uint) (decimal.Decimal, error) {
	total, err := sumLines(tx, repairID)
	if err != nil {
		return decimal.Zero, err
	}
	if err := tx.Model(&models.Repair{}).
		Where("id = ?", repairID).
		Update("total_cost", total).Error; err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// SaveRepair создаёт ремонт или сохраняет изменения уже существующего.
// TotalCost от вызывающего игнорируется: у нового ремонта он нулевой,
// у существующего пересчитывается по строкам.
func (l *Ledger) SaveRepair(ctx context.Context, r *models.Repair) error {
	const op = "ledger.SaveRepair"

	r.ProblemDescription = strings.TrimSpace(r.ProblemDescription)
	if r.Status == "" {
		r.Status = models.StatusAccepted
	}
	switch {
	case r.DeviceID == 0:
		return fmt.Errorf("%s: %w: device is required", op, models.ErrValidation)
	case r.ProblemDescription == "":
		return fmt.Errorf("%s: %w: problem description is required", op, models.ErrValidation)
	case !r.Status.Valid():
		return fmt.Errorf("%s: %w: unknown status %q", op, models.ErrValidation, r.Status)
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var devices int64
		if err := tx.Model(&models.Device{}).Where("id = ?", r.DeviceID).Count(&devices).Error; err != nil {
			return err
		}
		if devices == 0 {
			return fmt.Errorf("device %d: %w", r.DeviceID, models.ErrNotFound)
		}

		if r.ID == 0 {
			r.TotalCost = decimal.Zero
			if r.AcceptedAt.IsZero() {
				r.AcceptedAt = l.now()
			}
			return tx.Omit(clause.Associations).Create(r).Error
		}

		existing, err := lockRepair(tx, r.ID)
		if err != nil {
			return err
		}
		// дата приёма и автор фиксируются при создании
		r.AcceptedAt = existing.AcceptedAt
		if r.CreatedByID == nil {
			r.CreatedByID = existing.CreatedByID
		}

		total, err := sumLines(tx, r.ID)
		if err != nil {
			return err
		}
		r.TotalCost = total
		return tx.Omit(clause.Associations).Save(r).Error
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Debug(ctx, "repair saved",
		logger.Uint("repair_id", r.ID),
		logger.String("status", string(r.Status)),
		logger.Stringer("total_cost", r.TotalCost),
	)
	return nil
}
