package repository

import (
	"context"

	"github.com/Eursukkul/restaurant-reservation/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TableRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Table, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Table, error)
	FindByRestaurant(ctx context.Context, restaurantID uint) ([]models.Table, error)
	FindRestaurant(ctx context.Context, id uint) (*models.Restaurant, error)
}

type tableRepository struct {
	db *gorm.DB
}

func NewTableRepository(db *gorm.DB) TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) FindByID(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	if err := r.db.WithContext(ctx).First(&table, id).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

// FindByIDForUpdate acquires a row-level lock on the table within the given
// transaction, serializing concurrent bookings of the same table.
func (r *tableRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Table, error) {
	if tx == nil {
		tx = r.db
	}
	var table models.Table
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&table, id).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *tableRepository) FindByRestaurant(ctx context.Context, restaurantID uint) ([]models.Table, error) {
	var tables []models.Table
	if err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("table_number ASC").
		Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

func (r *tableRepository) FindRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).First(&restaurant, id).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}
