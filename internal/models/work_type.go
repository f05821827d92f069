package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkType: вид работы из прайса мастерской
type WorkType struct {
	ID            uint            `gorm:"primaryKey"`
	Name          string          `gorm:"size:200;not null"`
	Description   string          `gorm:"type:text"`
	StandardPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt     time.Time
}
