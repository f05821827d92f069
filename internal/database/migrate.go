package database

import (
	"fmt"

	"repair-shop/internal/models"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Migrate применяет версионированные миграции схемы
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20250110_create_users_and_audit",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.User{}, &models.AuditLog{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("audit_logs", "users")
			},
		},
		{
			ID: "20250110_create_repair_tables",
			Migrate: func(tx *gorm.DB) error {
				// порядок важен: сначала справочники и владельцы, потом строки ремонта
				return tx.AutoMigrate(
					&models.Client{},
					&models.Device{},
					&models.Component{},
					&models.WorkType{},
					&models.Repair{},
					&models.RepairWork{},
					&models.RepairComponent{},
					&models.RepairAct{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					"repair_acts", "repair_components", "repair_works", "repairs",
					"work_types", "components", "devices", "clients",
				)
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("database.Migrate: %w", err)
	}
	return nil
}
