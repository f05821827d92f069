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

// WorkLineInput: строка работ; ID 0 означает новую строку
type WorkLineInput struct {
	ID         uint
	RepairID   uint
	WorkTypeID uint
	Quantity   int
	UnitPrice  decimal.Decimal
	Notes      string
}

// ComponentLineInput: строка компонентов; ID 0 означает новую строку
type ComponentLineInput struct {
	ID           uint
	RepairID     uint
	ComponentID  uint
	Quantity     int
	UnitPrice    decimal.Decimal
	WasPurchased bool
	Notes        string
}

// RecordWorkLine сохраняет строку работ (cost = цена × количество) и пересчитывает итог ремонта
func (l *Ledger) RecordWorkLine(ctx context.Context, in WorkLineInput) (*UpdatedTotals, error) {
	const op = "ledger.RecordWorkLine"

	if err := validateLine(in.Quantity, in.UnitPrice); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var res UpdatedTotals
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockRepair(tx, in.RepairID); err != nil {
			return err
		}

		var wt models.WorkType
		if err := tx.First(&wt, in.WorkTypeID).Error; err != nil {
			return notFound(err, "work type", in.WorkTypeID)
		}

		var line models.RepairWork
		if in.ID != 0 {
			if err := tx.Where("repair_id = ?", in.RepairID).First(&line, in.ID).Error; err != nil {
				return notFound(err, "work line", in.ID)
			}
		}

		line.RepairID = in.RepairID
		line.WorkTypeID = wt.ID
		line.Quantity = in.Quantity
		line.UnitPrice = in.UnitPrice.Round(2)
		line.Cost = models.LineCost(line.UnitPrice, line.Quantity)
		line.Notes = strings.TrimSpace(in.Notes)

		if err := tx.Omit(clause.Associations).Save(&line).Error; err != nil {
			return err
		}

		total, err := rollup(tx, in.RepairID)
		if err != nil {
			return err
		}

		res = UpdatedTotals{
			RepairID:  in.RepairID,
			LineID:    line.ID,
			LineCost:  line.Cost,
			TotalCost: total,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Debug(ctx, "work line recorded",
		logger.Uint("repair_id", res.RepairID),
		logger.Uint("line_id", res.LineID),
		logger.Stringer("total_cost", res.TotalCost),
	)
	return &res, nil
}

// RecordComponentLine сохраняет строку компонентов, пересчитывает итог ремонта и двигает склад.
//
// Если компонент взят со склада (WasPurchased=false), списывается недостающая до Quantity
// часть. Когда на складе меньше, чем нужно, списание пропускается целиком: ошибки нет,
// в результате выставляется StockShortfall.
func (l *Ledger) RecordComponentLine(ctx context.Context, in ComponentLineInput) (*UpdatedTotals, error) {
	const op = "ledger.RecordComponentLine"

	if err := validateLine(in.Quantity, in.UnitPrice); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var res UpdatedTotals
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockRepair(tx, in.RepairID); err != nil {
			return err
		}

		var line models.RepairComponent
		if in.ID != 0 {
			if err := tx.Where("repair_id = ?", in.RepairID).First(&line, in.ID).Error; err != nil {
				return notFound(err, "component line", in.ID)
			}
		}

		// компонент в строке заменили — списанное возвращаем на старую позицию
		if line.ID != 0 && line.ComponentID != in.ComponentID && line.StockDrawn > 0 {
			if _, err := moveStock(tx, line.ComponentID, line.StockDrawn); err != nil {
				return err
			}
			line.StockDrawn = 0
		}

		comp, err := lockComponent(tx, in.ComponentID)
		if err != nil {
			return err
		}

		delta, shortfall := stockChange(in.WasPurchased, in.Quantity, line.StockDrawn, comp)
		if delta != 0 {
			ok, err := moveStock(tx, comp.ID, delta)
			if err != nil {
				return err
			}
			if ok {
				comp.Quantity += delta
				line.StockDrawn -= delta
			} else {
				// остаток успели забрать параллельно
				delta, shortfall = 0, true
			}
		}

		line.RepairID = in.RepairID
		line.ComponentID = comp.ID
		line.Quantity = in.Quantity
		line.UnitPrice = in.UnitPrice.Round(2)
		line.TotalCost = models.LineCost(line.UnitPrice, line.Quantity)
		line.WasPurchased = in.WasPurchased
		line.Notes = strings.TrimSpace(in.Notes)

		if err := tx.Omit(clause.Associations).Save(&line).Error; err != nil {
			return err
		}

		total, err := rollup(tx, in.RepairID)
		if err != nil {
			return err
		}

		res = UpdatedTotals{
			RepairID:       in.RepairID,
			LineID:         line.ID,
			LineCost:       line.TotalCost,
			TotalCost:      total,
			ComponentID:    comp.ID,
			StockQuantity:  comp.Quantity,
			StockDelta:     delta,
			StockShortfall: shortfall,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log := logger.With(
		logger.Uint("repair_id", res.RepairID),
		logger.Uint("line_id", res.LineID),
		logger.Uint("component_id", res.ComponentID),
	)
	if res.StockShortfall {
		log.Warn(ctx, "not enough stock, decrement skipped",
			logger.Int("requested", in.Quantity),
			logger.Int("on_hand", res.StockQuantity),
		)
	}
	log.Debug(ctx, "component line recorded",
		logger.Int("stock_delta", res.StockDelta),
		logger.Stringer("total_cost", res.TotalCost),
	)
	return &res, nil
}

// RemoveWorkLine удаляет строку работ и пересчитывает итог
func (l *Ledger) RemoveWorkLine(ctx context.Context, repairID, lineID uint) (*UpdatedTotals, error) {
	const op = "ledger.RemoveWorkLine"

	var res UpdatedTotals
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockRepair(tx, repairID); err != nil {
			return err
		}

		del := tx.Where("id = ? AND repair_id = ?", lineID, repairID).Delete(&models.RepairWork{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected == 0 {
			return fmt.Errorf("work line %d: %w", lineID, models.ErrNotFound)
		}

		total, err := rollup(tx, repairID)
		if err != nil {
			return err
		}
		res = UpdatedTotals{RepairID: repairID, LineID: lineID, TotalCost: total}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &res, nil
}

// RemoveComponentLine удаляет строку компонентов, возвращает списанное на склад и пересчитывает итог
func (l *Ledger) RemoveComponentLine(ctx context.Context, repairID, lineID uint) (*UpdatedTotals, error) {
	const op = "ledger.RemoveComponentLine"

	var res UpdatedTotals
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockRepair(tx, repairID); err != nil {
			return err
		}

		var line models.RepairComponent
		if err := tx.Where("repair_id = ?", repairID).First(&line, lineID).Error; err != nil {
			return notFound(err, "component line", lineID)
		}

		if line.StockDrawn > 0 {
			if _, err := moveStock(tx, line.ComponentID, line.StockDrawn); err != nil {
				return err
			}
		}

		if err := tx.Delete(&line).Error; err != nil {
			return err
		}

		total, err := rollup(tx, repairID)
		if err != nil {
			return err
		}

		var comp models.Component
		if err := tx.First(&comp, line.ComponentID).Error; err != nil {
			return notFound(err, "component", line.ComponentID)
		}

		res = UpdatedTotals{
			RepairID:      repairID,
			LineID:        lineID,
			TotalCost:     total,
			ComponentID:   comp.ID,
			StockQuantity: comp.Quantity,
			StockDelta:    line.StockDrawn,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &res, nil
}

// stockChange: сколько единиц вернуть (>0) или списать (<0) со склада.
// drawn: уже списано под строку, comp несёт текущий остаток.
func stockChange(wasPurchased bool, quantity, drawn int, comp *models.Component) (delta int, shortfall bool) {
	if wasPurchased {
		// закуплено под заказ, склад не расходуется, ранее списанное возвращаем
		return drawn, false
	}

	need := quantity - drawn
	switch {
	case need <= 0:
		return -need, false
	case comp.IsAvailable(need):
		return -need, false
	default:
		return 0, true
	}
}

// moveStock меняет остаток на delta; списание не уводит остаток ниже нуля.
// false: остатка для списания не хватило, ничего не изменено.
func moveStock(tx *gorm.DB, componentID uint, delta int) (bool, error) {
	q := tx.Model(&models.Component{}).Where("id = ?", componentID)
	if delta < 0 {
		q = q.Where("quantity >= ?", -delta)
	}
	res := q.Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
