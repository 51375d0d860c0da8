package models

import "time"

type Reservation struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CustomerID      uint      `gorm:"not null;index" json:"customer_id"`
	RestaurantID    uint      `gorm:"not null;index" json:"restaurant_id"`
	TableID         uint      `gorm:"not null;index:idx_reservation_table_window" json:"table_id"`
	StartTime       time.Time `gorm:"column:reservation_date;not null;index:idx_reservation_table_window" json:"reservation_date"`
	EndTime         time.Time `gorm:"column:reservation_end_time;not null" json:"reservation_end_time"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	IsCancelled     bool      `gorm:"not null;default:false" json:"is_cancelled"`
	SpecialRequests *string   `gorm:"type:text" json:"special_requests,omitempty"`
}

func (Reservation) TableName() string {
	return "reservation"
}

// Overlaps reports whether the two half-open intervals [start, end) intersect.
// Touching endpoints do not overlap.
func (r *Reservation) Overlaps(other *Reservation) bool {
	return other.StartTime.Before(r.EndTime) && other.EndTime.After(r.StartTime)
}

func (r *Reservation) IsFuture(now time.Time) bool {
	return r.StartTime.After(now)
}

func (r *Reservation) ValidInterval() bool {
	return r.StartTime.Before(r.EndTime)
}
