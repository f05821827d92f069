package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RepairStatus string

const (
	StatusAccepted     RepairStatus = "accepted"
	StatusInProgress   RepairStatus = "in_progress"
	StatusWaitingParts RepairStatus = "waiting_parts"
	StatusReady        RepairStatus = "ready"
	StatusCompleted    RepairStatus = "completed"
	StatusCancelled    RepairStatus = "cancelled"
	StatusUnrepairable RepairStatus = "unrepairable"
)

// RepairStatuses: порядок вывода в фильтрах и формах
var RepairStatuses = []RepairStatus{
	StatusAccepted,
	StatusInProgress,
	StatusWaitingParts,
	StatusReady,
	StatusCompleted,
	StatusCancelled,
	StatusUnrepairable,
}

// ClosedStatuses: ремонт в этих статусах не считается активным
var ClosedStatuses = []RepairStatus{
	StatusCompleted,
	StatusCancelled,
	StatusUnrepairable,
}

var repairStatusLabels = map[RepairStatus]string{
	StatusAccepted:     "Принят",
	StatusInProgress:   "В работе",
	StatusWaitingParts: "Ожидание запчастей",
	StatusReady:        "Готов к выдаче",
	StatusCompleted:    "Выдан",
	StatusCancelled:    "Отменен",
	StatusUnrepairable: "Невозможно отремонтировать",
}

func (s RepairStatus) Valid() bool {
	_, ok := repairStatusLabels[s]
	return ok
}

func (s RepairStatus) Label() string {
	if l, ok := repairStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Repair: заказ на ремонт одного устройства.
// TotalCost: кэш суммы по строкам работ и компонентов, его пересчитывает только ledger.
type Repair struct {
	ID       uint `gorm:"primaryKey"`
	DeviceID uint `gorm:"not null;index"`
	Device   Device

	ProblemDescription string       `gorm:"type:text;not null"`
	Status             RepairStatus `gorm:"type:varchar(20);not null;default:accepted;index"`

	AcceptedAt  time.Time `gorm:"not null;index"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	IssuedAt    *time.Time

	MasterNotes string          `gorm:"type:text"`
	TotalCost   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`

	CreatedByID *uint
	CreatedBy   *User `gorm:"constraint:OnDelete:SET NULL"`

	Works      []RepairWork      `gorm:"constraint:OnDelete:CASCADE"`
	Components []RepairComponent `gorm:"constraint:OnDelete:CASCADE"`
	Act        *RepairAct        `gorm:"constraint:OnDelete:CASCADE"`
}

func (r Repair) Active() bool {
	for _, s := range ClosedStatuses {
		if r.Status == s {
			return false
		}
	}
	return true
}
