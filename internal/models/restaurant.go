package models

import "time"

type Restaurant struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Address     string    `gorm:"size:150;not null" json:"address"`
	Description string    `gorm:"type:text" json:"description"`
	PhoneNumber string    `gorm:"size:20;not null" json:"phone_number"`
	OpeningHour string    `gorm:"size:5" json:"opening_hour"`
	ClosingHour string    `gorm:"size:5" json:"closing_hour"`
	OwnerID     uint      `gorm:"not null" json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Restaurant) TableName() string {
	return "restaurant"
}

// Table is a reservable seating unit. "table" is reserved in SQL, hence the table name.
type Table struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"not null;index" json:"restaurant_id"`
	Capacity     int       `gorm:"not null" json:"capacity"`
	TableNumber  string    `gorm:"size:10;not null" json:"table_number"`
	Location     *string   `gorm:"size:100" json:"location,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Table) TableName() string {
	return "restaurant_table"
}
