package database

import (
	"context"
	"fmt"
	"time"

	"repair-shop/internal/config"
	"repair-shop/internal/logger"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init подключается к БД (с повторами), прогоняет миграции и заводит пользователей по умолчанию
func Init(ctx context.Context, cfg *config.Config) error {
	const op = "database.Init"

	var (
		db  *gorm.DB
		err error
	)

	for i := 1; i <= cfg.DBConnectAttempts; i++ {
		logger.Info(ctx, "trying to connect to DB",
			logger.Int("attempt", i),
			logger.Int("max_attempts", cfg.DBConnectAttempts),
		)

		db, err = Open(cfg.DBDriver, cfg.DBDSN)
		if err == nil {
			logger.Info(ctx, "connected to DB successfully", logger.String("driver", cfg.DBDriver))
			break
		}

		logger.Warn(ctx, "failed to connect to DB", logger.ErrorF(err))
		if i < cfg.DBConnectAttempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w", op, ctx.Err())
			case <-time.After(2 * time.Second):
			}
		}
	}
	if err != nil {
		return fmt.Errorf("%s: connect after %d attempts: %w", op, cfg.DBConnectAttempts, err)
	}

	if err := Migrate(db); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// создаём дефолтного админа и пару тестовых пользователей
	createDefaultAdmin(ctx, db, cfg.AdminUsername, cfg.AdminPassword)
	seedDefaultUsers(ctx, db)

	DB = db
	return nil
}

// Open выбирает драйвер: postgres в проде, sqlite для локального запуска и тестов
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("database.Open: unknown driver %q", driver)
	}

	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

// Close закрывает пул соединений
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
