package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roro/internal/logger"
	"roro/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Config struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Dialector builds the gorm dialector for the configured driver.
func Dialector(config Config) (gorm.Dialector, error) {
	switch config.Driver {
	case "postgres", "":
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode,
		)
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			config.User, config.Password, config.Host, config.Port, config.DBName,
		)
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}
}

func Connect(config Config, debug bool) (*gorm.DB, error) {
	dialector, err := Dialector(config)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Настройка пула соединений
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.GetLogger("database").Infow("database connected", "driver", db.Dialector.Name())
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Facility{},
		&models.Advice{},
		&models.Event{},
		&models.Material{},
		&models.CategoryZipMapping{},
		&models.GachaLogEntry{},
		&models.GeocodeCache{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	logger.GetLogger("database").Info("database migration completed")
	return nil
}

// NativeDistanceAvailable reports whether the server offers a spherical distance
// function: PostGIS on postgres, MySQL 5.7+ or MariaDB 10.5+ on mysql.
func NativeDistanceAvailable(ctx context.Context, db *gorm.DB) bool {
	log := logger.GetLogger("database")

	switch db.Dialector.Name() {
	case "postgres":
		var count int64
		err := db.WithContext(ctx).
			Raw("SELECT COUNT(*) FROM pg_extension WHERE extname = 'postgis'").
			Scan(&count).Error
		if err != nil {
			log.Warnw("postgis check failed", "error", err)
			return false
		}
		return count > 0
	case "mysql":
		var version string
		if err := db.WithContext(ctx).Raw("SELECT VERSION()").Scan(&version).Error; err != nil {
			log.Warnw("mysql version check failed", "error", err)
			return false
		}
		return mysqlHasDistanceSphere(version)
	default:
		return false
	}
}

func mysqlHasDistanceSphere(version string) bool {
	var major, minor int
	if _, err := fmt.Sscanf(version, "%d.%d", &major, &minor); err != nil {
		return false
	}
	if strings.Contains(strings.ToLower(version), "mariadb") {
		return major > 10 || (major == 10 && minor >= 5)
	}
	return major > 5 || (major == 5 && minor >= 7)
}
