package models

import "time"

// RepairAct: акт выполненных работ. Номер генерируется один раз и больше не меняется.
type RepairAct struct {
	ID        uint   `gorm:"primaryKey"`
	RepairID  uint   `gorm:"not null;uniqueIndex"`
	ActNumber string `gorm:"size:50;not null;uniqueIndex"`
	CreatedAt time.Time
	PrintedAt *time.Time
	Notes     string `gorm:"type:text"`
}
