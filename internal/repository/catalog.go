package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"repair-shop/internal/models"

	"gorm.io/gorm"
)

// ComponentFilter: фильтры склада
type ComponentFilter struct {
	Search   string
	LowStock bool
}

// ListComponents: склад по алфавиту; search по названию, артикулу и поставщику
func (r *Repository) ListComponents(ctx context.Context, f ComponentFilter) ([]models.Component, error) {
	q := r.db.WithContext(ctx)
	if strings.TrimSpace(f.Search) != "" {
		p := likePattern(f.Search)
		q = q.Where(
			"LOWER(name) LIKE ? OR LOWER(part_number) LIKE ? OR LOWER(supplier) LIKE ?",
			p, p, p,
		)
	}
	if f.LowStock {
		q = q.Where("quantity < ?", models.LowStockThreshold)
	}

	var components []models.Component
	if err := q.Order("name asc, id asc").Find(&components).Error; err != nil {
		return nil, fmt.Errorf("repository.ListComponents: %w", err)
	}
	return components, nil
}

func (r *Repository) ListWorkTypes(ctx context.Context) ([]models.WorkType, error) {
	var types []models.WorkType
	if err := r.db.WithContext(ctx).Order("name asc, id asc").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("repository.ListWorkTypes: %w", err)
	}
	return types, nil
}

// UpdateComponent сохраняет карточку склада. expectedQty: остаток, который видел пользователь,
// открывая форму. Если с тех пор склад сдвинулся (списание под ремонт), ErrConflict.
func (r *Repository) UpdateComponent(ctx context.Context, c *models.Component, expectedQty int) error {
	const op = "repository.UpdateComponent"

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Component{}).
			Where("id = ? AND quantity = ?", c.ID, expectedQty).
			Updates(map[string]any{
				"name":        c.Name,
				"part_number": c.PartNumber,
				"quantity":    c.Quantity,
				"unit_price":  c.UnitPrice,
				"supplier":    c.Supplier,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var current models.Component
		if err := tx.First(&current, c.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("component %d: %w", c.ID, models.ErrNotFound)
			}
			return err
		}
		return fmt.Errorf("component %d: stock is %d, form had %d: %w",
			c.ID, current.Quantity, expectedQty, models.ErrConflict)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteWorkType удаляет вид работы; если он есть в строках ремонтов, ErrProtected
func (r *Repository) DeleteWorkType(ctx context.Context, id uint) error {
	const op = "repository.DeleteWorkType"

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteUnreferenced(tx, &models.WorkType{}, id, &models.RepairWork{}, "work_type_id")
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteComponent удаляет позицию склада; если она есть в строках ремонтов, ErrProtected
func (r *Repository) DeleteComponent(ctx context.Context, id uint) error {
	const op = "repository.DeleteComponent"

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteUnreferenced(tx, &models.Component{}, id, &models.RepairComponent{}, "component_id")
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func deleteUnreferenced(tx *gorm.DB, target any, id uint, line any, column string) error {
	var refs int64
	if err := tx.Model(line).Where(column+" = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%d repair lines: %w", refs, models.ErrProtected)
	}

	res := tx.Delete(target, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
