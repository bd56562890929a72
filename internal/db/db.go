package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pulseline/internal/config"
)

// Connect opens the shared GORM database handle (PostgreSQL) and caps
// the underlying connection pool. The one pool serves both the
// ingestion pipeline and the query side; acquiring a connection blocks
// until one is released.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	// PrepareStmt: true prevents the GORM postgres migrator from forcing simple protocol
	// for "SELECT * FROM table LIMIT 1", which would otherwise trigger "insufficient arguments".
	gdb, err := gorm.Open(postgres.Open(cfg.DatabaseURL()), &gorm.Config{PrepareStmt: true})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBPoolSize)
	sqlDB.SetMaxIdleConns(cfg.DBPoolSize)

	return gdb, nil
}
