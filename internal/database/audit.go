package database

import (
	"context"

	"repair-shop/internal/logger"
	"repair-shop/internal/models"
)

// helper для записи в журнал аудита; ошибка записи не должна ломать основное действие
func CreateAuditLog(ctx context.Context, userID uint, entity string, entityID uint, action, details string) {
	if DB == nil || userID == 0 {
		return
	}
	record := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	if err := DB.WithContext(ctx).Create(&record).Error; err != nil {
		logger.Warn(ctx, "failed to write audit log",
			logger.String("entity", entity),
			logger.Uint("entity_id", entityID),
			logger.ErrorF(err),
		)
	}
}
