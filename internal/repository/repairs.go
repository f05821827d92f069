package repository

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"repair-shop/internal/models"

	"gorm.io/gorm"
)

// RepairFilter: фильтры списка ремонтов; пустые поля не ограничивают выборку
type RepairFilter struct {
	Status models.RepairStatus
	Search string
}

// ListRepairs: ремонты, новые сверху. Search ищет по марке и модели устройства,
// имени и фамилии клиента.
func (r *Repository) ListRepairs(ctx context.Context, f RepairFilter) ([]models.Repair, error) {
	const op = "repository.ListRepairs"

	q := r.db.WithContext(ctx).
		Joins("JOIN devices ON devices.id = repairs.device_id").
		Joins("JOIN clients ON clients.id = devices.client_id").
		Preload("Device.Client")

	if f.Status != "" {
		q = q.Where("repairs.status = ?", f.Status)
	}
	if strings.TrimSpace(f.Search) != "" {
		p := likePattern(f.Search)
		q = q.Where(
			"LOWER(devices.brand) LIKE ? OR LOWER(devices.model) LIKE ? OR LOWER(clients.first_name) LIKE ? OR LOWER(clients.last_name) LIKE ?",
			p, p, p, p,
		)
	}

	var repairs []models.Repair
	if err := q.Order("repairs.accepted_at desc, repairs.id desc").Find(&repairs).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return repairs, nil
}

// RepairDetail: ремонт со строками, актом, устройством и клиентом
func (r *Repository) RepairDetail(ctx context.Context, id uint) (*models.Repair, error) {
	const op = "repository.RepairDetail"

	var repair models.Repair
	err := r.db.WithContext(ctx).
		Preload("Device.Client").
		Preload("Works.WorkType").
		Preload("Components.Component").
		Preload("Act").
		Preload("CreatedBy").
		First(&repair, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: repair %d: %w", op, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slices.SortStableFunc(repair.Works, func(a, b models.RepairWork) int {
		return cmp.Compare(a.WorkType.Name, b.WorkType.Name)
	})
	slices.SortStableFunc(repair.Components, func(a, b models.RepairComponent) int {
		return cmp.Compare(a.Component.Name, b.Component.Name)
	})
	return &repair, nil
}

// DeleteRepair удаляет ремонт вместе со строками и актом.
// Списанное под строки на склад не возвращается: запчасти уже израсходованы.
func (r *Repository) DeleteRepair(ctx context.Context, id uint) error {
	const op = "repository.DeleteRepair"

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Repair{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("repair %d: %w", id, models.ErrNotFound)
		}
		return deleteRepairChildren(tx, []uint{id})
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func deleteRepairChildren(tx *gorm.DB, repairIDs []uint) error {
	if len(repairIDs) == 0 {
		return nil
	}
	if err := tx.Where("repair_id IN ?", repairIDs).Delete(&models.RepairWork{}).Error; err != nil {
		return err
	}
	if err := tx.Where("repair_id IN ?", repairIDs).Delete(&models.RepairComponent{}).Error; err != nil {
		return err
	}
	return tx.Where("repair_id IN ?", repairIDs).Delete(&models.RepairAct{}).Error
}

// ListActs: выданные акты, новые сверху
func (r *Repository) ListActs(ctx context.Context) ([]models.RepairAct, error) {
	var acts []models.RepairAct
	if err := r.db.WithContext(ctx).Order("created_at desc, id desc").Find(&acts).Error; err != nil {
		return nil, fmt.Errorf("repository.ListActs: %w", err)
	}
	return acts, nil
}
