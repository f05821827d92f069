package models

import (
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMaster UserRole = "master"
	RoleViewer UserRole = "viewer"
)

// UserRoles: порядок вывода в форме смены роли
var UserRoles = []UserRole{RoleAdmin, RoleMaster, RoleViewer}

func (r UserRole) Valid() bool { return lo.Contains(UserRoles, r) }

// CanEdit: кто может вносить изменения в ремонты, склад и клиентов
func (r UserRole) CanEdit() bool {
	return r == RoleAdmin || r == RoleMaster
}

type User struct {
	gorm.Model
	Username     string   `gorm:"uniqueIndex;size:50;not null"`
	PasswordHash string   `gorm:"not null"`
	Role         UserRole `gorm:"type:varchar(20);not null"`
}
