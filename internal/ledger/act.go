package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"repair-shop/internal/logger"
	"repair-shop/internal/models"

	"gorm.io/gorm"
)

const actPrefix = "ACT"

// ActNumber: номер акта вида ACT-20240115-42
func ActNumber(repairID uint, at time.Time) string {
	return fmt.Sprintf("%s-%s-%d", actPrefix, at.Format("20060102"), repairID)
}

// EnsureAct возвращает акт ремонта, создавая его при первом обращении.
// Существующий акт возвращается как есть, номер не перегенерируется.
func (l *Ledger) EnsureAct(ctx context.Context, repairID uint) (*models.RepairAct, bool, error) {
	const op = "ledger.EnsureAct"
	db := l.db.WithContext(ctx)

	act, err := actByRepair(db, repairID)
	if err == nil {
		return act, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	var repairs int64
	if err := db.Model(&models.Repair{}).Where("id = ?", repairID).Count(&repairs).Error; err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if repairs == 0 {
		return nil, false, fmt.Errorf("%s: repair %d: %w", op, repairID, models.ErrNotFound)
	}

	now := l.now()
	created := models.RepairAct{
		RepairID:  repairID,
		ActNumber: ActNumber(repairID, now),
		CreatedAt: now,
	}
	if err := db.Create(&created).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// параллельный запрос создал акт первым — отдаём его
			if act, rerr := actByRepair(db, repairID); rerr == nil {
				return act, false, nil
			}
			return nil, false, fmt.Errorf("%s: %w", op, models.ErrConflict)
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info(ctx, "repair act created",
		logger.Uint("repair_id", repairID),
		logger.String("act_number", created.ActNumber),
	)
	return &created, true, nil
}

func actByRepair(db *gorm.DB, repairID uint) (*models.RepairAct, error) {
	var act models.RepairAct
	if err := db.Where("repair_id = ?", repairID).First(&act).Error; err != nil {
		return nil, err
	}
	return &act, nil
}

// MarkActPrinted фиксирует дату первой печати; повторная печать дату не меняет
func (l *Ledger) MarkActPrinted(ctx context.Context, actID uint) (*models.RepairAct, error) {
	const op = "ledger.MarkActPrinted"
	db := l.db.WithContext(ctx)

	var act models.RepairAct
	if err := db.First(&act, actID).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err, "act", actID))
	}
	if act.PrintedAt != nil {
		return &act, nil
	}

	now := l.now()
	res := db.Model(&models.RepairAct{}).
		Where("id = ? AND printed_at IS NULL", act.ID).
		Update("printed_at", now)
	if res.Error != nil {
		return nil, fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		// другой запрос успел раньше, перечитываем
		if err := db.First(&act, actID).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &act, nil
	}
	act.PrintedAt = &now
	return &act, nil
}

// UpdateActNotes: примечания единственное свободно редактируемое поле акта
func (l *Ledger) UpdateActNotes(ctx context.Context, actID uint, notes string) error {
	const op = "ledger.UpdateActNotes"

	res := l.db.WithContext(ctx).Model(&models.RepairAct{}).
		Where("id = ?", actID).
		Update("notes", strings.TrimSpace(notes))
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: act %d: %w", op, actID, models.ErrNotFound)
	}
	return nil
}
