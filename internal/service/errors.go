package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Eursukkul/restaurant-reservation/internal/events"
)

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrTableNotFound       = errors.New("table not found")
	ErrRestaurantNotFound  = errors.New("restaurant not found")
	ErrForbidden           = errors.New("not allowed to perform this operation")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrNoCustomerProfile   = errors.New("only customers can make reservations")
	ErrInvalidInterval     = errors.New("reservation end time must be after start time")
	ErrRestaurantMismatch  = errors.New("table does not belong to the given restaurant")

	ErrConflict     = errors.New("table not available for requested time")
	ErrInvalidState = errors.New("invalid reservation state")
	ErrStorage      = errors.New("storage unavailable")
	ErrNotification = errors.New("notification failed")
)

// ConflictError reports that the requested interval overlaps a live
// reservation of the same table.
type ConflictError struct {
	TableID   uint
	StartTime time.Time
	EndTime   time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s (table %d, %s - %s)", ErrConflict,
		e.TableID, e.StartTime.Format(time.RFC3339), e.EndTime.Format(time.RFC3339))
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// InvalidStateError reports an illegal transition, e.g. cancelling a past reservation.
type InvalidStateError struct {
	ReservationID uint
	Reason        string
}

func (e *InvalidStateError) Error() string { return e.Reason }

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// StorageError wraps an infrastructure failure of the record store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// NotificationError is never returned as the error of an operation; it is
// logged and surfaced as a warning on the Result.
type NotificationError struct {
	Event events.Type
	Err   error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Event, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

func (e *NotificationError) Is(target error) bool { return target == ErrNotification }

// Warning is the user-facing text for the failed notification.
func (e *NotificationError) Warning() string {
	switch e.Event {
	case events.ReservationCreated:
		return "Reservation created, but there was a problem sending the confirmation email."
	case events.ReservationUpdated:
		return "Reservation updated, but there was a problem sending the update email."
	case events.ReservationCancelled:
		return "Reservation cancelled, but there was a problem sending the cancel email."
	default:
		return "There was a problem sending the notification email."
	}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrReservationNotFound, ErrTableNotFound, ErrRestaurantNotFound, ErrForbidden, ErrUnauthenticated,
		ErrNoCustomerProfile, ErrInvalidInterval, ErrRestaurantMismatch,
		ErrConflict, ErrInvalidState, ErrStorage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
