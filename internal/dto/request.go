package dto

import "time"

type CreateReservationRequest struct {
	ReservationDate    time.Time `json:"reservation_date" validate:"required"`
	ReservationEndTime time.Time `json:"reservation_end_time" validate:"required,gtfield=ReservationDate"`
	SpecialRequests    *string   `json:"special_requests" validate:"omitempty,max=1000"`
}

// UpdateReservationRequest is a partial edit; absent fields keep their value.
type UpdateReservationRequest struct {
	TableID            *uint      `json:"table_id" validate:"omitempty,gt=0"`
	RestaurantID       *uint      `json:"restaurant_id" validate:"omitempty,gt=0"`
	ReservationDate    *time.Time `json:"reservation_date"`
	ReservationEndTime *time.Time `json:"reservation_end_time"`
	SpecialRequests    *string    `json:"special_requests" validate:"omitempty,max=1000"`
}
