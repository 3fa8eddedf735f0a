package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Mousaahmad63636/POS-sub001/internal/model"
)

// NewDatabase establishes a GORM connection backed by pgx and runs AutoMigrate
// to create / update all tables.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return db, nil
}

// RunMigrations applies the schema. Also used by integration tests against
// throwaway containers.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.Supplier{},
		&model.SupplierContact{},
		&model.DrawerSession{},
		&model.DrawerTransaction{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}

	// Partial index for the single-open-session-per-register rule. GORM cannot
	// express partial indexes through tags.
	patch := `DO $$ BEGIN
	  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_drawer_sessions_open_register') THEN
	    CREATE UNIQUE INDEX idx_drawer_sessions_open_register
	        ON drawer_sessions (register_id)
	        WHERE status = 'open';
	  END IF;
	END $$`
	if err := db.Exec(patch).Error; err != nil {
		return fmt.Errorf("open-session index: %w", err)
	}
	return nil
}
