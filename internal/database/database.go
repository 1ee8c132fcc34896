package database

import (
	"fmt"
	"time"

	"github.com/zfogg/screams/backend/internal/config"
	"github.com/zfogg/screams/backend/internal/logger"
	"github.com/zfogg/screams/backend/internal/models"
	"github.com/zfogg/screams/backend/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// allModels is the migration set, in dependency order
var allModels = []any{
	&models.Identity{},
	&models.ActionToken{},
	&models.User{},
	&models.Scream{},
	&models.Comment{},
	&models.Like{},
	&models.Notification{},
}

// Initialize creates and configures the database connection
func Initialize(cfg *config.Config) error {
	gormLogger := gormlogger.Default.LogMode(gormlogger.Warn)
	if cfg.Environment == "development" {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := Open(cfg.DatabaseDriver, cfg.DatabaseURL, gormLogger)
	if err != nil {
		return err
	}

	if cfg.DatabaseDriver != "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if cfg.TracingEnabled {
		system := "postgresql"
		if cfg.DatabaseDriver == "sqlite" {
			system = "sqlite"
		}
		if err := db.Use(telemetry.GORMTracingPlugin(system)); err != nil {
			return fmt.Errorf("failed to install tracing plugin: %w", err)
		}
	}

	DB = db
	logger.Log.Info("Database connected", zap.String("driver", cfg.DatabaseDriver))

	return nil
}

// Open connects to postgres or sqlite without touching the global DB
func Open(driver, dsn string, gormLogger gormlogger.Interface) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres", "":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
		// Unique index violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a migrated sqlite database. ":memory:" gives every caller a private store.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := Open("sqlite", dsn, gormlogger.Default.LogMode(gormlogger.Silent))
	if err != nil {
		return nil, err
	}
	if dsn == ":memory:" {
		// Each pooled connection would otherwise get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := MigrateDB(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs auto-migration for all models on the global connection
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if err := MigrateDB(DB); err != nil {
		return err
	}
	logger.Log.Info("Database migrations completed")
	return nil
}

// MigrateDB runs auto-migration and read indexes on the given connection
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return createIndexes(db)
}

// createIndexes adds the composite indexes behind the newest-first queries
func createIndexes(db *gorm.DB) error {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_screams_handle_created ON screams (user_handle, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_comments_scream_created ON comments (scream_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_recipient_created ON notifications (recipient, created_at DESC)",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
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

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
