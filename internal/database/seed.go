package database

import (
	"context"

	"repair-shop/internal/logger"
	"repair-shop/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// админ только из кода/конфига
func createDefaultAdmin(ctx context.Context, db *gorm.DB, username, password string) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		logger.Error(ctx, "failed to check admin user", logger.ErrorF(err))
		return
	}
	if count > 0 {
		// админ уже есть — ничего не делаем
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error(ctx, "failed to hash default admin password", logger.ErrorF(err))
		return
	}

	admin := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}

	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		logger.Error(ctx, "failed to create default admin", logger.ErrorF(err))
		return
	}

	logger.Info(ctx, "created default admin user", logger.String("username", username))
}

// пара тестовых аккаунтов для демо (мастер и наблюдатель)
func seedDefaultUsers(ctx context.Context, db *gorm.DB) {
	type seedUser struct {
		Username string
		Password string
		Role     models.UserRole
	}

	users := []seedUser{
		{
			Username: "master@repair.local",
			Password: "Master123!",
			Role:     models.RoleMaster,
		},
		{
			Username: "viewer@repair.local",
			Password: "Viewer123!",
			Role:     models.RoleViewer,
		},
	}

	for _, u := range users {
		var count int64
		if err := db.WithContext(ctx).Model(&models.User{}).
			Where("username = ?", u.Username).
			Count(&count).Error; err != nil {
			logger.Error(ctx, "failed to check seed user", logger.String("username", u.Username), logger.ErrorF(err))
			continue
		}
		if count > 0 {
			// уже есть — пропускаем
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error(ctx, "failed to hash seed user password", logger.String("username", u.Username), logger.ErrorF(err))
			continue
		}

		user := models.User{
			Username:     u.Username,
			PasswordHash: string(hash),
			Role:         u.Role,
		}

		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			logger.Error(ctx, "failed to create seed user", logger.String("username", u.Username), logger.ErrorF(err))
			continue
		}

		logger.Info(ctx, "created seed user",
			logger.String("username", u.Username),
			logger.String("role", string(u.Role)),
		)
	}
}
