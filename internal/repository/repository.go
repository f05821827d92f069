// Package repository собирает выборки для страниц: списки с фильтрами, карточки
// с подгруженными связями, счётчики главной и удаления с проверкой ссылок.
package repository

import (
	"context"
	"fmt"
	"strings"

	"repair-shop/internal/models"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DashboardStats: счётчики главной страницы
type DashboardStats struct {
	TotalRepairs  int64
	ActiveRepairs int64
	TotalClients  int64
	LowStock      int64
	Recent        []models.Repair
}

const recentRepairs = 5

func (r *Repository) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	const op = "repository.DashboardStats"
	db := r.db.WithContext(ctx)

	var s DashboardStats
	if err := db.Model(&models.Repair{}).Count(&s.TotalRepairs).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.Model(&models.Repair{}).
		Where("status NOT IN ?", closedStatuses()).
		Count(&s.ActiveRepairs).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.Model(&models.Client{}).Count(&s.TotalClients).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.Model(&models.Component{}).
		Where("quantity < ?", models.LowStockThreshold).
		Count(&s.LowStock).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.Preload("Device.Client").
		Order("accepted_at desc, id desc").
		Limit(recentRepairs).
		Find(&s.Recent).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &s, nil
}

func closedStatuses() []string {
	return lo.Map(models.ClosedStatuses, func(s models.RepairStatus, _ int) string {
		return string(s)
	})
}

// likePattern: шаблон для регистронезависимого поиска по подстроке
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// ListAuditLogs: последние записи журнала, новые сверху
func (r *Repository) ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	if err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("repository.ListAuditLogs: %w", err)
	}
	return logs, nil
}
