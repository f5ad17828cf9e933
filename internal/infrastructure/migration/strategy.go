package migration

import (
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/opensox/paygate/internal/infrastructure/migration/scripts"
	"github.com/opensox/paygate/internal/shared/logger"
)

// Strategy defines the interface for migration strategies
type Strategy interface {
	Migrate(db *gorm.DB, models ...interface{}) error
	GetName() string
}

// GormAutoMigrateStrategy creates or alters tables from the model structs.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy(log logger.Interface) *GormAutoMigrateStrategy {
	return &GormAutoMigrateStrategy{logger: log.With("component", "migration.automigrate")}
}

func (s *GormAutoMigrateStrategy) Migrate(db *gorm.DB, models ...interface{}) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	s.logger.Infow("auto migrate completed", "models_count", len(models))
	return nil
}

func (s *GormAutoMigrateStrategy) GetName() string {
	return "gorm_auto_migrate"
}

// GooseStrategy applies the embedded SQL scripts.
type GooseStrategy struct {
	logger logger.Interface
}

func NewGooseStrategy(log logger.Interface) *GooseStrategy {
	return &GooseStrategy{logger: log.With("component", "migration.goose")}
}

func (s *GooseStrategy) prepare(db *gorm.DB) error {
	goose.SetBaseFS(scripts.FS)
	goose.SetLogger(gooseLogger{log: s.logger})
	if err := goose.SetDialect(dialectOf(db)); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// Migrate ignores models; the scripts are the source of truth.
func (s *GooseStrategy) Migrate(db *gorm.DB, _ ...interface{}) error {
	if err := s.prepare(db); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	currentVersion, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	s.logger.Infow("starting goose migration", "current_version", currentVersion)

	if err := goose.Up(sqlDB, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	finalVersion, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to get final version: %w", err)
	}
	s.logger.Infow("goose migration completed", "from_version", currentVersion, "to_version", finalVersion)
	return nil
}

func (s *GooseStrategy) GetName() string {
	return "goose"
}

// MigrateDown rolls back steps migrations.
func (s *GooseStrategy) MigrateDown(db *gorm.DB, steps int) error {
	if err := s.prepare(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	for i := 0; i < steps; i++ {
		if err := goose.Down(sqlDB, "."); err != nil {
			return fmt.Errorf("goose down (step %d): %w", i+1, err)
		}
	}
	return nil
}

// GetVersion returns the applied schema version.
func (s *GooseStrategy) GetVersion(db *gorm.DB) (int64, error) {
	if err := s.prepare(db); err != nil {
		return 0, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	version, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return 0, fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

// Status prints applied and pending migrations through the logger.
func (s *GooseStrategy) Status(db *gorm.DB) error {
	if err := s.prepare(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := goose.Status(sqlDB, "."); err != nil {
		return fmt.Errorf("goose status: %w", err)
	}
	return nil
}

func dialectOf(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "sqlite":
		return "sqlite3"
	default:
		return db.Dialector.Name()
	}
}

type gooseLogger struct {
	log logger.Interface
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Errorw(fmt.Sprintf(format, v...))
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Infow(fmt.Sprintf(format, v...))
}
