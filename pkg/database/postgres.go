package database

import (
	"fmt"

	"github.com/Eursukkul/restaurant-reservation/internal/logger"
	"github.com/Eursukkul/restaurant-reservation/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string, log *logger.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatal("failed to migrate database", "error", err)
	}

	return db
}

// Migrate creates the schema and the constraints that keep reservations
// consistent under concurrent writers.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.UserCapability{},
		&models.Restaurant{},
		&models.Table{},
		&models.Reservation{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	for _, stmt := range constraints {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply constraint: %w", err)
		}
	}
	return nil
}

var constraints = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,

	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservation_window_check') THEN
			ALTER TABLE reservation
				ADD CONSTRAINT reservation_window_check
				CHECK (reservation_date < reservation_end_time);
		END IF;
	END $$`,

	// No two live reservations of one table may share any instant of [start, end).
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservation_no_overlap') THEN
			ALTER TABLE reservation
				ADD CONSTRAINT reservation_no_overlap
				EXCLUDE USING gist (
					table_id WITH =,
					tstzrange(reservation_date, reservation_end_time, '[)') WITH &&
				)
				WHERE (NOT is_cancelled);
		END IF;
	END $$`,
}
