package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound aliases gorm's sentinel so callers can match either.
	ErrNotFound = gorm.ErrRecordNotFound
	// ErrOverlap is returned when the reservation_no_overlap exclusion constraint rejects a write.
	ErrOverlap = errors.New("reservation overlaps an existing reservation")
	// ErrInvalidWindow is returned when the reservation_window_check constraint rejects a write.
	ErrInvalidWindow = errors.New("reservation start must be before end")
)

const (
	sqlStateExclusionViolation = "23P01"
	sqlStateCheckViolation     = "23514"
)

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateExclusionViolation:
			return ErrOverlap
		case sqlStateCheckViolation:
			return ErrInvalidWindow
		}
	}
	return err
}
