// Package repository implements MySQL persistence for shows and bookings.
// Sentinel errors let the booking layer tell storage outcomes apart
// without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrShowNotFound indicates that a show was not located in the DB.
var ErrShowNotFound = errors.New("show not found")

// ErrBookingNotFound is returned when an update targets a missing booking.
var ErrBookingNotFound = errors.New("booking not found")

// ErrConflict is returned when a write would violate a unique key, such
// as a seat label already present in show_booked_seats.
var ErrConflict = errors.New("conflict")

const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
