package models

import (
	"strings"
	"time"
)

// Client: частное лицо, сдающее технику в ремонт
type Client struct {
	ID         uint   `gorm:"primaryKey"`
	FirstName  string `gorm:"size:100;not null"`
	LastName   string `gorm:"size:100;not null"`
	MiddleName string `gorm:"size:100"`
	Phone      string `gorm:"size:20;not null"`
	Email      string `gorm:"size:254"`
	Address    string `gorm:"type:text"`
	CreatedAt  time.Time

	Devices []Device `gorm:"constraint:OnDelete:CASCADE"`
}

// FullName: "Фамилия Имя Отчество", без хвостовых пробелов, если отчества нет
func (c Client) FullName() string {
	return strings.TrimSpace(strings.Join([]string{c.LastName, c.FirstName, c.MiddleName}, " "))
}
