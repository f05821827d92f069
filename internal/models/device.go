package models

import (
	"strings"
	"time"
)

type DeviceType string

const (
	DeviceWashingMachine DeviceType = "washing_machine"
	DeviceRefrigerator   DeviceType = "refrigerator"
	DeviceMicrowave      DeviceType = "microwave"
	DeviceOven           DeviceType = "oven"
	DeviceDishwasher     DeviceType = "dishwasher"
	DeviceTV             DeviceType = "tv"
	DeviceVacuum         DeviceType = "vacuum"
	DeviceOther          DeviceType = "other"
)

// DeviceTypes: порядок вывода в формах
var DeviceTypes = []DeviceType{
	DeviceWashingMachine,
	DeviceRefrigerator,
	DeviceMicrowave,
	DeviceOven,
	DeviceDishwasher,
	DeviceTV,
	DeviceVacuum,
	DeviceOther,
}

var deviceTypeLabels = map[DeviceType]string{
	DeviceWashingMachine: "Стиральная машина",
	DeviceRefrigerator:   "Холодильник",
	DeviceMicrowave:      "Микроволновка",
	DeviceOven:           "Духовка",
	DeviceDishwasher:     "Посудомоечная машина",
	DeviceTV:             "Телевизор",
	DeviceVacuum:         "Пылесос",
	DeviceOther:          "Другое",
}

func (t DeviceType) Valid() bool {
	_, ok := deviceTypeLabels[t]
	return ok
}

func (t DeviceType) Label() string {
	if l, ok := deviceTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// Device: бытовая техника клиента
type Device struct {
	ID       uint `gorm:"primaryKey"`
	ClientID uint `gorm:"not null;index"`
	Client   Client

	DeviceType   DeviceType `gorm:"type:varchar(50);not null"`
	Brand        string     `gorm:"size:100;not null"`
	Model        string     `gorm:"size:100;not null"`
	SerialNumber string     `gorm:"size:100"`
	Description  string     `gorm:"type:text"`
	CreatedAt    time.Time

	Repairs []Repair `gorm:"constraint:OnDelete:CASCADE"`
}

func (d Device) Title() string {
	return strings.TrimSpace(d.DeviceType.Label() + " " + d.Brand + " " + d.Model)
}
