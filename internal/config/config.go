package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	DBDriver          string `env:"DB_DRIVER" envDefault:"postgres"`
	DBDSN             string `env:"DB_DSN,notEmpty"`
	DBConnectAttempts int    `env:"DB_CONNECT_ATTEMPTS" envDefault:"10"`

	ServerPort      string        `env:"SERVER_PORT" envDefault:"8080"`
	SessionSecret   string        `env:"SESSION_SECRET,notEmpty"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	TemplatesGlob string `env:"TEMPLATES_GLOB" envDefault:"web/templates/*.html"`
	StaticDir     string `env:"STATIC_DIR" envDefault:"./web/static"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`

	// админ только из кода/конфига
	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin@repair.local"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"Admin123!"`
}

// Load читает .env (если есть) и переменные окружения
func Load(path ...string) (*Config, error) {
	const op = "config.Load"

	if err := godotenv.Load(path...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: load .env: %w", op, err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch cfg.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("%s: unknown DB_DRIVER %q", op, cfg.DBDriver)
	}
	if cfg.DBConnectAttempts < 1 {
		cfg.DBConnectAttempts = 1
	}

	return &cfg, nil
}

func (c *Config) Addr() string {
	return ":" + c.ServerPort
}
