package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Eursukkul/restaurant-reservation/internal/dto"
	"github.com/Eursukkul/restaurant-reservation/internal/middleware"
	"github.com/Eursukkul/restaurant-reservation/internal/models"
	"github.com/Eursukkul/restaurant-reservation/internal/service"
	"github.com/labstack/echo/v4"
)

type ReservationHandler struct {
	svc service.ReservationService
	now func() time.Time
}

func NewReservationHandler(svc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{svc: svc, now: time.Now}
}

func (h *ReservationHandler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	api := e.Group("/api/v1", mw...)

	api.GET("/restaurants/:id/tables", h.ListTables)
	api.POST("/restaurants/:id/tables/:table_id/reservations", h.CreateReservation)
	api.GET("/tables/:id/availability", h.CheckAvailability)

	api.GET("/reservations", h.ListReservations)
	api.GET("/reservations/:id", h.GetReservation)
	api.PUT("/reservations/:id", h.UpdateReservation)
	api.POST("/reservations/:id/cancel", h.CancelReservation)
	api.DELETE("/reservations/:id", h.DeleteReservation)
}

func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	restaurantID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}
	tableID, err := parseID(c, "table_id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid table id")
	}

	var req dto.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validationError(err)
	}

	result, err := h.svc.CreateReservation(c.Request().Context(), middleware.ActorFrom(c), service.CreateReservationInput{
		TableID:         tableID,
		RestaurantID:    restaurantID,
		StartTime:       req.ReservationDate,
		EndTime:         req.ReservationEndTime,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, h.toResponse(result))
}

func (h *ReservationHandler) UpdateReservation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}

	var req dto.UpdateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validationError(err)
	}

	result, err := h.svc.UpdateReservation(c.Request().Context(), middleware.ActorFrom(c), id, service.ReservationChanges{
		TableID:         req.TableID,
		RestaurantID:    req.RestaurantID,
		StartTime:       req.ReservationDate,
		EndTime:         req.ReservationEndTime,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, h.toResponse(result))
}

func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}

	result, err := h.svc.CancelReservation(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, h.toResponse(result))
}

func (h *ReservationHandler) DeleteReservation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}

	if err := h.svc.DeleteReservation(c.Request().Context(), middleware.ActorFrom(c), id); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ReservationHandler) GetReservation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}

	reservation, err := h.svc.GetReservation(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation, h.now()))
}

func (h *ReservationHandler) ListReservations(c echo.Context) error {
	page := 1
	if p := c.QueryParam("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid page")
		}
		page = n
	}

	reservations, total, err := h.svc.ListReservations(c.Request().Context(), middleware.ActorFrom(c), page)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToReservationListResponse(reservations, page, service.PageSize, total, h.now()))
}

func (h *ReservationHandler) ListTables(c echo.Context) error {
	restaurantID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}

	tables, err := h.svc.ListTables(c.Request().Context(), restaurantID)
	if err != nil {
		return httpError(err)
	}

	resp := make([]dto.TableResponse, len(tables))
	for i := range tables {
		resp[i] = dto.ToTableResponse(&tables[i])
	}

	return c.JSON(http.StatusOK, resp)
}

// CheckAvailability answers GET /tables/:id/availability?start=&end=[&exclude=].
// Times are RFC 3339.
func (h *ReservationHandler) CheckAvailability(c echo.Context) error {
	tableID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid table id")
	}
	start, err := parseTimeParam(c, "start")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "start must be an RFC 3339 timestamp")
	}
	end, err := parseTimeParam(c, "end")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "end must be an RFC 3339 timestamp")
	}

	candidate := &models.Reservation{TableID: tableID, StartTime: start, EndTime: end}
	if ex := c.QueryParam("exclude"); ex != "" {
		excludeID, err := strconv.ParseUint(ex, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid exclude id")
		}
		candidate.ID = uint(excludeID)
	}

	available, err := h.svc.CheckAvailability(c.Request().Context(), candidate)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.AvailabilityResponse{
		TableID:   tableID,
		Start:     start,
		End:       end,
		Available: available,
	})
}

func (h *ReservationHandler) toResponse(result *service.Result) dto.ReservationResponse {
	resp := dto.ToReservationResponse(result.Reservation, h.now())
	resp.Warnings = result.Warnings
	return resp
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func validationError(err error) error {
	var verrs middleware.ValidationErrors
	if errors.As(err, &verrs) {
		return echo.NewHTTPError(http.StatusBadRequest, verrs.Response())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

// httpError maps scheduler errors onto status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrReservationNotFound),
		errors.Is(err, service.ErrTableNotFound),
		errors.Is(err, service.ErrRestaurantNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrInvalidInterval),
		errors.Is(err, service.ErrRestaurantMismatch),
		errors.Is(err, service.ErrNoCustomerProfile):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStorage):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service temporarily unavailable, please retry later").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}

// parseTimeParam reads an RFC 3339 query value. An unescaped "+" in the
// offset arrives as a space and is put back.
func parseTimeParam(c echo.Context, name string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.ReplaceAll(c.QueryParam(name), " ", "+"))
}
