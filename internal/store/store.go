package store

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Target selects which DSN environment variable is consulted.
type Target string

const (
	Development Target = "development"
	Production  Target = "production"
)

// Environment variables read by LoadConfig.
const (
	EnvTarget         = "GAEBLV_TARGET"
	EnvDSNDevelopment = "GAEBLV_DSN_DEVELOPMENT"
	EnvDSNProduction  = "GAEBLV_DSN_PRODUCTION"
)

// Config holds the resolved connection settings.
type Config struct {
	Target Target
	DSN    string
}

// NormalizeTarget maps the accepted spellings onto a Target.
func NormalizeTarget(raw string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "development", "dev":
		return Development, nil
	case "production", "prod":
		return Production, nil
	}
	return "", fmt.Errorf("unknown %s value %q", EnvTarget, raw)
}

// LoadConfig resolves the store configuration from the environment. A .env
// file in the working directory is loaded first when present, so local
// development does not need exported variables.
func LoadConfig() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, fmt.Errorf("loading .env: %w", err)
		}
		logrus.Debug("loaded environment from .env")
	}

	target, err := NormalizeTarget(os.Getenv(EnvTarget))
	if err != nil {
		return Config{}, err
	}

	key := EnvDSNDevelopment
	if target == Production {
		key = EnvDSNProduction
	}
	dsn := os.Getenv(key)
	if dsn == "" {
		return Config{}, fmt.Errorf("%s is not set but required for target %s", key, target)
	}

	return Config{Target: target, DSN: dsn}, nil
}

// Open connects to the configured database and migrates the import schema.
// Postgres DSNs get a short retry loop because the database may still be
// starting when this tool runs inside a compose stack.
func Open(cfg Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	var (
		db  *gorm.DB
		err error
	)
	if isPostgresDSN(cfg.DSN) {
		for i := 0; i < 5; i++ {
			db, err = gorm.Open(postgres.Open(cfg.DSN), gormCfg)
			if err == nil {
				break
			}
			logrus.WithError(err).Warn("database not reachable, retrying")
			time.Sleep(2 * time.Second)
		}
	} else {
		db, err = gorm.Open(sqlite.Open(sqliteDSN(cfg.DSN)), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := db.AutoMigrate(&LV{}, &Title{}, &Position{}); err != nil {
		return nil, fmt.Errorf("migrating import schema: %w", err)
	}
	return db, nil
}

// isPostgresDSN reports whether the DSN targets postgres. Anything else is
// treated as an SQLite path.
func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// sqliteDSN strips an optional sqlite:// scheme so plain file paths, file:
// URIs and scheme-prefixed DSNs all work.
func sqliteDSN(dsn string) string {
	return strings.TrimPrefix(dsn, "sqlite://")
}
