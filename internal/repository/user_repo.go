package repository

import (
	"context"

	"github.com/Eursukkul/restaurant-reservation/internal/models"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindCustomerByUserID(ctx context.Context, userID uint) (*models.Customer, error)
	// FindCustomer loads a customer together with its user row.
	FindCustomer(ctx context.Context, customerID uint) (*models.Customer, error)
	FindCapabilities(ctx context.Context, userID uint) ([]string, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindCustomerByUserID(ctx context.Context, userID uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *userRepository) FindCustomer(ctx context.Context, customerID uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Preload("User").First(&customer, customerID).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *userRepository) FindCapabilities(ctx context.Context, userID uint) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.UserCapability{}).
		Where("user_id = ?", userID).
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
