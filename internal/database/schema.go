package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables used by the booking service.  Catalog tables
// (movies, theaters, shows) are owned by the catalog service in production
// and are created here so a fresh database is usable on its own.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		title      VARCHAR(255)    NOT NULL,
		poster_url VARCHAR(512)    NOT NULL DEFAULT '',
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS theaters (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		owner_id    BIGINT UNSIGNED NOT NULL,
		name        VARCHAR(255)    NOT NULL,
		location    VARCHAR(255)    NOT NULL DEFAULT '',
		total_seats INT UNSIGNED    NOT NULL DEFAULT 0,
		created_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_theaters_owner (owner_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS shows (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		movie_id    BIGINT UNSIGNED NOT NULL,
		theater_id  BIGINT UNSIGNED NOT NULL,
		show_date   DATE            NOT NULL,
		show_time   VARCHAR(5)      NOT NULL,
		price_cents INT UNSIGNED    NOT NULL,
		created_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_shows_movie FOREIGN KEY (movie_id) REFERENCES movies (id),
		CONSTRAINT fk_shows_theater FOREIGN KEY (theater_id) REFERENCES theaters (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id                BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id           BIGINT UNSIGNED NOT NULL,
		show_id           BIGINT UNSIGNED NOT NULL,
		seats             JSON            NOT NULL,
		total_price_cents INT UNSIGNED    NOT NULL,
		payment_status    ENUM('pending','paid','failed') NOT NULL DEFAULT 'pending',
		created_at        DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at        DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_bookings_user_show (user_id, show_id),
		KEY idx_bookings_show (show_id),
		CONSTRAINT fk_bookings_show FOREIGN KEY (show_id) REFERENCES shows (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS show_booked_seats (
		show_id    BIGINT UNSIGNED NOT NULL,
		seat_label VARCHAR(32)     COLLATE utf8mb4_bin NOT NULL,
		booking_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (show_id, seat_label),
		CONSTRAINT fk_booked_show FOREIGN KEY (show_id) REFERENCES shows (id),
		CONSTRAINT fk_booked_booking FOREIGN KEY (booking_id) REFERENCES bookings (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	// seat labels compare byte for byte, so "S1" and "s1" are different seats
	`ALTER TABLE show_booked_seats MODIFY seat_label VARCHAR(32) COLLATE utf8mb4_bin NOT NULL`,
}

// Migrate creates missing tables.  It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
