package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"repair-shop/internal/models"

	"gorm.io/gorm"
)

// ListClients отдаёт клиентов, новых сверху; search по имени, фамилии, телефону и e-mail
func (r *Repository) ListClients(ctx context.Context, search string) ([]models.Client, error) {
	q := r.db.WithContext(ctx)
	if strings.TrimSpace(search) != "" {
		p := likePattern(search)
		q = q.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(email) LIKE ?",
			p, p, p, p,
		)
	}

	var clients []models.Client
	if err := q.Order("created_at desc, id desc").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("repository.ListClients: %w", err)
	}
	return clients, nil
}

// ClientDetail загружает клиента с устройствами и их ремонтами
func (r *Repository) ClientDetail(ctx context.Context, id uint) (*models.Client, error) {
	const op = "repository.ClientDetail"

	var client models.Client
	err := r.db.WithContext(ctx).
		Preload("Devices", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at desc, id desc")
		}).
		Preload("Devices.Repairs", func(db *gorm.DB) *gorm.DB {
			return db.Order("accepted_at desc, id desc")
		}).
		First(&client, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: client %d: %w", op, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &client, nil
}

// ListDevices: все устройства с владельцами, для выбора в форме ремонта
func (r *Repository) ListDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Order("created_at desc, id desc").
		Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("repository.ListDevices: %w", err)
	}
	return devices, nil
}

// DeleteClient удаляет клиента и всё, что к нему относится:
// устройства, ремонты, строки ремонтов и акты.
func (r *Repository) DeleteClient(ctx context.Context, id uint) error {
	const op = "repository.DeleteClient"

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deviceIDs []uint
		if err := tx.Model(&models.Device{}).Where("client_id = ?", id).Pluck("id", &deviceIDs).Error; err != nil {
			return err
		}
		if err := deleteDevices(tx, deviceIDs); err != nil {
			return err
		}

		res := tx.Delete(&models.Client{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("client %d: %w", id, models.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteDevice удаляет устройство вместе с его ремонтами
func (r *Repository) DeleteDevice(ctx context.Context, id uint) error {
	const op = "repository.DeleteDevice"

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Device{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("device %d: %w", id, models.ErrNotFound)
		}
		return deleteDevices(tx, []uint{id})
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func deleteDevices(tx *gorm.DB, deviceIDs []uint) error {
	if len(deviceIDs) == 0 {
		return nil
	}

	var repairIDs []uint
	if err := tx.Model(&models.Repair{}).Where("device_id IN ?", deviceIDs).Pluck("id", &repairIDs).Error; err != nil {
		return err
	}
	if err := deleteRepairChildren(tx, repairIDs); err != nil {
		return err
	}
	if len(repairIDs) > 0 {
		if err := tx.Delete(&models.Repair{}, repairIDs).Error; err != nil {
			return err
		}
	}
	return tx.Delete(&models.Device{}, deviceIDs).Error
}
