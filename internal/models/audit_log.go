package models

import "time"

type AuditLog struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	UserID uint
	User   User

	Entity   string `gorm:"size:50;not null"` // "client", "repair", "component" ...
	EntityID uint
	Action   string `gorm:"size:50;not null"` // "create", "update", "delete", "add_work" ...
	Details  string `gorm:"type:text"`
}
