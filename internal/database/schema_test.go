package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchema_SeatLabelsUseBinaryCollation(t *testing.T) {
	var create, alter bool
	for _, stmt := range schema {
		switch {
		case strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS show_booked_seats"):
			create = true
			assert.Contains(t, stmt, "seat_label VARCHAR(32)     COLLATE utf8mb4_bin NOT NULL")
		case strings.HasPrefix(stmt, "ALTER TABLE show_booked_seats"):
			alter = true
			assert.Contains(t, stmt, "COLLATE utf8mb4_bin")
		}
	}
	assert.True(t, create, "show_booked_seats table missing")
	assert.True(t, alter, "existing seat ledgers are not migrated")
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "app:pw@tcp(db:3306)/tickets?charset=utf8mb4&parseTime=true&loc=UTC", DSN("app", "pw", "db", "3306", "tickets"))
	assert.Equal(t, "app@tcp(db:3306)/tickets?charset=utf8mb4&parseTime=true&loc=UTC", DSN("app", "", "db", "3306", "tickets"))
}
