package dto

import (
	"time"

	"github.com/Eursukkul/restaurant-reservation/internal/models"
)

type ReservationResponse struct {
	ID                 uint      `json:"id"`
	CustomerID         uint      `json:"customer_id"`
	RestaurantID       uint      `json:"restaurant_id"`
	TableID            uint      `json:"table_id"`
	ReservationDate    time.Time `json:"reservation_date"`
	ReservationEndTime time.Time `json:"reservation_end_time"`
	SpecialRequests    *string   `json:"special_requests,omitempty"`
	IsCancelled        bool      `json:"is_cancelled"`
	IsFuture           bool      `json:"is_future"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	Warnings           []string  `json:"warnings,omitempty"`
}

type ReservationListResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	Total        int64                 `json:"total"`
	TotalPages   int                   `json:"total_pages"`
}

type TableResponse struct {
	ID           uint    `json:"id"`
	RestaurantID uint    `json:"restaurant_id"`
	TableNumber  string  `json:"table_number"`
	Capacity     int     `json:"capacity"`
	Location     *string `json:"location,omitempty"`
}

type AvailabilityResponse struct {
	TableID   uint      `json:"table_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// ToReservationResponse renders r as seen at now; IsFuture depends on it.
func ToReservationResponse(r *models.Reservation, now time.Time) ReservationResponse {
	return ReservationResponse{
		ID:                 r.ID,
		CustomerID:         r.CustomerID,
		RestaurantID:       r.RestaurantID,
		TableID:            r.TableID,
		ReservationDate:    r.StartTime,
		ReservationEndTime: r.EndTime,
		SpecialRequests:    r.SpecialRequests,
		IsCancelled:        r.IsCancelled,
		IsFuture:           r.IsFuture(now),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func ToReservationListResponse(rs []models.Reservation, page, pageSize int, total int64, now time.Time) ReservationListResponse {
	items := make([]ReservationResponse, len(rs))
	for i := range rs {
		items[i] = ToReservationResponse(&rs[i], now)
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return ReservationListResponse{
		Reservations: items,
		Page:         page,
		PageSize:     pageSize,
		Total:        total,
		TotalPages:   totalPages,
	}
}

func ToTableResponse(t *models.Table) TableResponse {
	return TableResponse{
		ID:           t.ID,
		RestaurantID: t.RestaurantID,
		TableNumber:  t.TableNumber,
		Capacity:     t.Capacity,
		Location:     t.Location,
	}
}
