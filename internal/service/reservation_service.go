package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Eursukkul/restaurant-reservation/internal/auth"
	"github.com/Eursukkul/restaurant-reservation/internal/events"
	"github.com/Eursukkul/restaurant-reservation/internal/logger"
	"github.com/Eursukkul/restaurant-reservation/internal/models"
	"github.com/Eursukkul/restaurant-reservation/internal/repository"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	PageSize      = 10
	notifyTimeout = 5 * time.Second
)

type CreateReservationInput struct {
	TableID         uint
	RestaurantID    uint
	StartTime       time.Time
	EndTime         time.Time
	SpecialRequests *string
}

// ReservationChanges holds the fields of an edit; nil fields are left as they are.
type ReservationChanges struct {
	TableID         *uint
	RestaurantID    *uint
	StartTime       *time.Time
	EndTime         *time.Time
	SpecialRequests *string
}

// Result is returned by every mutating operation. Warnings carries soft
// failures that did not stop the operation.
type Result struct {
	Reservation *models.Reservation
	Warnings    []string
}

type ReservationService interface {
	CheckAvailability(ctx context.Context, candidate *models.Reservation) (bool, error)
	CreateReservation(ctx context.Context, actor auth.Actor, in CreateReservationInput) (*Result, error)
	UpdateReservation(ctx context.Context, actor auth.Actor, id uint, changes ReservationChanges) (*Result, error)
	CancelReservation(ctx context.Context, actor auth.Actor, id uint) (*Result, error)
	DeleteReservation(ctx context.Context, actor auth.Actor, id uint) error
	GetReservation(ctx context.Context, actor auth.Actor, id uint) (*models.Reservation, error)
	ListReservations(ctx context.Context, actor auth.Actor, page int) ([]models.Reservation, int64, error)
	ListTables(ctx context.Context, restaurantID uint) ([]models.Table, error)
}

type reservationService struct {
	reservations repository.ReservationRepository
	tables       repository.TableRepository
	users        repository.UserRepository
	publisher    events.Publisher
	log          *logger.Logger
	now          func() time.Time
}

// NewReservationService wires the scheduler. A nil publisher disables notifications.
func NewReservationService(
	reservations repository.ReservationRepository,
	tables repository.TableRepository,
	users repository.UserRepository,
	publisher events.Publisher,
	log *logger.Logger,
) ReservationService {
	return &reservationService{
		reservations: reservations,
		tables:       tables,
		users:        users,
		publisher:    publisher,
		log:          log,
		now:          time.Now,
	}
}

func (s *reservationService) CheckAvailability(ctx context.Context, candidate *models.Reservation) (bool, error) {
	if !candidate.ValidInterval() {
		return false, ErrInvalidInterval
	}
	ok, err := s.checkAvailability(ctx, nil, candidate)
	if err != nil {
		return false, s.fail("check availability", err, "table_id", candidate.TableID)
	}
	return ok, nil
}

func (s *reservationService) CreateReservation(ctx context.Context, actor auth.Actor, in CreateReservationInput) (*Result, error) {
	if err := s.authorize(actor, auth.AddReservation); err != nil {
		return nil, err
	}
	if actor.CustomerID == 0 {
		return nil, ErrNoCustomerProfile
	}

	candidate := &models.Reservation{
		CustomerID:      actor.CustomerID,
		TableID:         in.TableID,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		SpecialRequests: normalizeNotes(in.SpecialRequests),
	}
	if !candidate.ValidInterval() {
		return nil, ErrInvalidInterval
	}

	var table *models.Table
	err := s.reservations.Transaction(ctx, func(tx *gorm.DB) error {
		// 1. Lock the table row: concurrent bookings of one table run one at a time
		t, err := s.tables.FindByIDForUpdate(ctx, tx, in.TableID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTableNotFound
			}
			return err
		}

		// 2. The restaurant always follows the table
		if in.RestaurantID != 0 && in.RestaurantID != t.RestaurantID {
			return ErrRestaurantMismatch
		}
		candidate.RestaurantID = t.RestaurantID
		table = t

		// 3. Availability
		ok, err := s.checkAvailability(ctx, tx, candidate)
		if err != nil {
			return err
		}
		if !ok {
			return conflictFor(candidate)
		}

		// 4. Persist
		if err := s.reservations.Create(ctx, tx, candidate); err != nil {
			if errors.Is(err, repository.ErrOverlap) {
				return conflictFor(candidate)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("create reservation", err, "table_id", in.TableID, "user_id", actor.UserID)
	}

	s.log.Info("reservation created",
		"reservation_id", candidate.ID,
		"table_id", candidate.TableID,
		"user_id", actor.UserID,
	)

	result := &Result{Reservation: candidate}
	s.notify(ctx, result, events.ReservationCreated, table)
	return result, nil
}

func (s *reservationService) UpdateReservation(ctx context.Context, actor auth.Actor, id uint, changes ReservationChanges) (*Result, error) {
	if err := s.authorize(actor, auth.ChangeReservation); err != nil {
		return nil, err
	}

	var updated *models.Reservation
	var table *models.Table
	err := s.reservations.Transaction(ctx, func(tx *gorm.DB) error {
		existing, err := s.reservations.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrReservationNotFound
			}
			return err
		}

		merged := mergeChanges(existing, changes)
		if !merged.ValidInterval() {
			return ErrInvalidInterval
		}

		t, err := s.tables.FindByIDForUpdate(ctx, tx, merged.TableID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTableNotFound
			}
			return err
		}
		if changes.RestaurantID != nil && *changes.RestaurantID != t.RestaurantID {
			return ErrRestaurantMismatch
		}
		merged.RestaurantID = t.RestaurantID

		// Cancelled rows hold no slot. Otherwise the reservation's own id is
		// excluded, so an edit never conflicts with itself.
		if !merged.IsCancelled {
			ok, err := s.checkAvailability(ctx, tx, merged)
			if err != nil {
				return err
			}
			if !ok {
				return conflictFor(merged)
			}
		}

		if err := s.reservations.Update(ctx, tx, merged); err != nil {
			switch {
			case errors.Is(err, repository.ErrOverlap):
				return conflictFor(merged)
			case errors.Is(err, repository.ErrNotFound):
				return ErrReservationNotFound
			}
			return err
		}
		merged.UpdatedAt = s.now()
		updated = merged
		table = t
		return nil
	})
	if err != nil {
		return nil, s.fail("update reservation", err, "reservation_id", id, "user_id", actor.UserID)
	}

	s.log.Info("reservation updated",
		"reservation_id", updated.ID,
		"table_id", updated.TableID,
		"user_id", actor.UserID,
	)

	result := &Result{Reservation: updated}
	s.notify(ctx, result, events.ReservationUpdated, table)
	return result, nil
}

func (s *reservationService) CancelReservation(ctx context.Context, actor auth.Actor, id uint) (*Result, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}

	var cancelled *models.Reservation
	var repeated bool
	err := s.reservations.Transaction(ctx, func(tx *gorm.DB) error {
		reservation, err := s.reservations.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrReservationNotFound
			}
			return err
		}

		if !reservation.IsFuture(s.now()) {
			return &InvalidStateError{ReservationID: id, Reason: "cannot cancel a past reservation"}
		}
		if reservation.IsCancelled {
			cancelled, repeated = reservation, true
			return nil
		}

		if err := s.reservations.MarkCancelled(ctx, tx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrReservationNotFound
			}
			return err
		}
		reservation.IsCancelled = true
		reservation.UpdatedAt = s.now()
		cancelled = reservation
		return nil
	})
	if err != nil {
		return nil, s.fail("cancel reservation", err, "reservation_id", id, "user_id", actor.UserID)
	}
	if repeated {
		s.log.Info("reservation already cancelled", "reservation_id", id, "user_id", actor.UserID)
		return &Result{Reservation: cancelled}, nil
	}

	s.log.Info("reservation cancelled", "reservation_id", id, "user_id", actor.UserID)

	result := &Result{Reservation: cancelled}
	s.notify(ctx, result, events.ReservationCancelled, nil)
	return result, nil
}

// DeleteReservation removes the row outright. The table becomes free, so no
// availability check is needed.
func (s *reservationService) DeleteReservation(ctx context.Context, actor auth.Actor, id uint) error {
	if err := s.authorize(actor, auth.DeleteReservation); err != nil {
		return err
	}

	if err := s.reservations.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReservationNotFound
		}
		return s.fail("delete reservation", err, "reservation_id", id, "user_id", actor.UserID)
	}

	s.log.Info("reservation deleted", "reservation_id", id, "user_id", actor.UserID)
	return nil
}

func (s *reservationService) GetReservation(ctx context.Context, actor auth.Actor, id uint) (*models.Reservation, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}

	reservation, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, s.fail("get reservation", err, "reservation_id", id)
	}
	return reservation, nil
}

// ListReservations returns one page of the actor's own reservations, newest first.
func (s *reservationService) ListReservations(ctx context.Context, actor auth.Actor, page int) ([]models.Reservation, int64, error) {
	if !actor.Authenticated() {
		return nil, 0, ErrUnauthenticated
	}
	if actor.CustomerID == 0 {
		return nil, 0, ErrNoCustomerProfile
	}
	if page < 1 {
		page = 1
	}

	var (
		reservations []models.Reservation
		total        int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.reservations.CountByCustomer(gctx, actor.CustomerID)
		return err
	})
	g.Go(func() error {
		var err error
		reservations, err = s.reservations.FindByCustomer(gctx, actor.CustomerID, PageSize, (page-1)*PageSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, s.fail("list reservations", err, "customer_id", actor.CustomerID, "page", page)
	}

	return reservations, total, nil
}

func (s *reservationService) ListTables(ctx context.Context, restaurantID uint) ([]models.Table, error) {
	if _, err := s.tables.FindRestaurant(ctx, restaurantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, s.fail("list tables", err, "restaurant_id", restaurantID)
	}

	tables, err := s.tables.FindByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, s.fail("list tables", err, "restaurant_id", restaurantID)
	}
	return tables, nil
}

// --- Helpers ---

// checkAvailability reports whether candidate fits on its table. The store
// narrows the rows by window; the overlap decision is made here.
func (s *reservationService) checkAvailability(ctx context.Context, tx *gorm.DB, candidate *models.Reservation) (bool, error) {
	existing, err := s.reservations.FindActiveByTable(ctx, tx, candidate.TableID, candidate.StartTime, candidate.EndTime, candidate.ID)
	if err != nil {
		return false, err
	}

	for i := range existing {
		other := &existing[i]
		if other.IsCancelled || (candidate.ID != 0 && other.ID == candidate.ID) {
			continue
		}
		if candidate.Overlaps(other) {
			return false, nil
		}
	}
	return true, nil
}

func (s *reservationService) authorize(actor auth.Actor, c auth.Capability) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	if !auth.HasCapability(actor, c) {
		s.log.Warn("capability missing", "user_id", actor.UserID, "capability", c)
		return ErrForbidden
	}
	return nil
}

// fail passes domain errors through and turns anything else into a
// StorageError after logging it with the operation context.
func (s *reservationService) fail(op string, err error, args ...any) error {
	if errors.Is(err, repository.ErrInvalidWindow) {
		return ErrInvalidInterval
	}
	if isDomainError(err) {
		s.log.Info(op+" rejected", append(args, "reason", err.Error())...)
		return err
	}
	s.log.Error(op+" failed", append(args, "error", err)...)
	return &StorageError{Op: op, Err: err}
}

// notify publishes the event for a committed transition. It never fails the
// caller: problems end up as a warning on result. The commit stands even if
// the request goes away, so the request's cancellation is not inherited.
func (s *reservationService) notify(ctx context.Context, result *Result, t events.Type, table *models.Table) {
	if s.publisher == nil {
		return
	}
	reservation := result.Reservation

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	evt, err := s.buildEvent(ctx, t, reservation, table)
	if err == nil {
		err = s.publisher.Publish(ctx, evt.RoutingKey(), evt)
	}
	if err != nil {
		nerr := &NotificationError{Event: t, Err: err}
		s.log.Warn("failed to queue reservation notification",
			"reservation_id", reservation.ID,
			"event", t,
			"error", nerr,
		)
		result.Warnings = append(result.Warnings, nerr.Warning())
	}
}

func (s *reservationService) buildEvent(ctx context.Context, t events.Type, r *models.Reservation, table *models.Table) (events.ReservationEvent, error) {
	evt := events.NewReservationEvent(t, r.ID, s.now())
	evt.StartTime = r.StartTime
	evt.EndTime = r.EndTime
	if r.SpecialRequests != nil {
		evt.SpecialRequests = *r.SpecialRequests
	}

	customer, err := s.users.FindCustomer(ctx, r.CustomerID)
	if err != nil {
		return evt, err
	}
	if customer.User == nil || customer.User.Email == "" {
		return evt, errors.New("customer has no email address")
	}
	evt.CustomerEmail = customer.User.Email
	evt.CustomerName = customer.User.DisplayName()

	if table == nil {
		if table, err = s.tables.FindByID(ctx, r.TableID); err != nil {
			return evt, err
		}
	}
	evt.TableNumber = table.TableNumber

	restaurant, err := s.tables.FindRestaurant(ctx, r.RestaurantID)
	if err != nil {
		return evt, err
	}
	evt.RestaurantName = restaurant.Name

	return evt, nil
}

func mergeChanges(existing *models.Reservation, changes ReservationChanges) *models.Reservation {
	merged := *existing

	if changes.TableID != nil {
		merged.TableID = *changes.TableID
	}
	if changes.StartTime != nil {
		merged.StartTime = *changes.StartTime
	}
	if changes.EndTime != nil {
		merged.EndTime = *changes.EndTime
	}
	if changes.SpecialRequests != nil {
		merged.SpecialRequests = normalizeNotes(changes.SpecialRequests)
	}

	return &merged
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func conflictFor(r *models.Reservation) *ConflictError {
	return &ConflictError{TableID: r.TableID, StartTime: r.StartTime, EndTime: r.EndTime}
}
