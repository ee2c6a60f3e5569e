package storage

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS vendors (
		id                  CHAR(36) PRIMARY KEY,
		name                VARCHAR(255) NOT NULL,
		description         TEXT NOT NULL,
		food_type           VARCHAR(32) NOT NULL,
		street              VARCHAR(255) NOT NULL DEFAULT '',
		city                VARCHAR(128) NOT NULL DEFAULT '',
		region              VARCHAR(128) NOT NULL DEFAULT '',
		longitude           DOUBLE NOT NULL DEFAULT 0,
		latitude            DOUBLE NOT NULL DEFAULT 0,
		pickup_start        VARCHAR(8) NOT NULL DEFAULT '',
		pickup_end          VARCHAR(8) NOT NULL DEFAULT '',
		pickup_instructions VARCHAR(512) NOT NULL DEFAULT '',
		logo_url            VARCHAR(512) NOT NULL DEFAULT '',
		banner_url          VARCHAR(512) NOT NULL DEFAULT '',
		is_active           TINYINT(1) NOT NULL DEFAULT 1,
		price               DOUBLE NOT NULL,
		original_price      DOUBLE NOT NULL,
		available_count     INT NOT NULL DEFAULT 0,
		created_at          DATETIME(3) NOT NULL,
		updated_at          DATETIME(3) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id                 CHAR(36) PRIMARY KEY,
		reservation_number VARCHAR(32) NOT NULL,
		vendor_id          CHAR(36) NOT NULL,
		customer_name      VARCHAR(255) NOT NULL,
		customer_phone     VARCHAR(64) NOT NULL,
		customer_email     VARCHAR(255) NOT NULL DEFAULT '',
		bag_count          INT NOT NULL,
		total_price        DOUBLE NOT NULL,
		status             VARCHAR(32) NOT NULL,
		payment_method     VARCHAR(32) NOT NULL,
		notes              VARCHAR(512) NOT NULL DEFAULT '',
		pickup_date        DATETIME(3) NOT NULL,
		created_at         DATETIME(3) NOT NULL,
		updated_at         DATETIME(3) NOT NULL,
		UNIQUE KEY uniq_reservation_number (reservation_number),
		KEY idx_reservations_phone (customer_phone),
		KEY idx_reservations_vendor (vendor_id)
	)`,
}

// EnsureSchema creates the two record collections if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
