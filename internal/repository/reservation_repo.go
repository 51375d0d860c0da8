package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/restaurant-reservation/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReservationRepository interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error
	Update(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error
	FindByID(ctx context.Context, id uint) (*models.Reservation, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Reservation, error)
	FindActiveByTable(ctx context.Context, tx *gorm.DB, tableID uint, start, end time.Time, excludeID uint) ([]models.Reservation, error)
	FindByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]models.Reservation, error)
	CountByCustomer(ctx context.Context, customerID uint) (int64, error)
	MarkCancelled(ctx context.Context, tx *gorm.DB, id uint) error
	Delete(ctx context.Context, id uint) error
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *reservationRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *reservationRepository) Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	return translate(r.conn(tx).WithContext(ctx).Create(reservation).Error)
}

func (r *reservationRepository) Update(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	res := r.conn(tx).WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", reservation.ID).
		Updates(map[string]any{
			"table_id":             reservation.TableID,
			"restaurant_id":        reservation.RestaurantID,
			"reservation_date":     reservation.StartTime,
			"reservation_end_time": reservation.EndTime,
			"special_requests":     reservation.SpecialRequests,
			"updated_at":           time.Now(),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).First(&reservation, id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FindByIDForUpdate locks the reservation row within the given transaction.
func (r *reservationRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.conn(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&reservation, id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FindActiveByTable returns the non-cancelled reservations of a table whose
// interval intersects [start, end). excludeID of 0 excludes nothing.
func (r *reservationRepository) FindActiveByTable(ctx context.Context, tx *gorm.DB, tableID uint, start, end time.Time, excludeID uint) ([]models.Reservation, error) {
	var reservations []models.Reservation
	q := r.conn(tx).WithContext(ctx).
		Where("table_id = ? AND is_cancelled = ?", tableID, false).
		Where("reservation_date < ? AND reservation_end_time > ?", end, start)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Order("reservation_date ASC").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) FindByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("reservation_date DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) CountByCustomer(ctx context.Context, customerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}

func (r *reservationRepository) MarkCancelled(ctx context.Context, tx *gorm.DB, id uint) error {
	res := r.conn(tx).WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_cancelled": true, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reservationRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Reservation{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
