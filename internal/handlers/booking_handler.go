package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/httpresp"
	ucBooking "github.com/BruksfildServices01/barber-marketplace/internal/usecase/booking"
)

type BookingHandler struct {
	create       *ucBooking.CreateBooking
	get          *ucBooking.GetBooking
	list         *ucBooking.ListBookings
	listBarber   *ucBooking.ListBarberBookings
	updateStatus *ucBooking.UpdateBookingStatus
	cancel       *ucBooking.CancelBooking
	availability *ucBooking.GetDailyAvailability

	loc             *time.Location
	defaultDuration int
	log             *zap.Logger
}

type BookingHandlerDeps struct {
	Create       *ucBooking.CreateBooking
	Get          *ucBooking.GetBooking
	List         *ucBooking.ListBookings
	ListBarber   *ucBooking.ListBarberBookings
	UpdateStatus *ucBooking.UpdateBookingStatus
	Cancel       *ucBooking.CancelBooking
	Availability *ucBooking.GetDailyAvailability

	Location        *time.Location
	DefaultDuration int
}

func NewBookingHandler(deps BookingHandlerDeps, log *zap.Logger) *BookingHandler {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{
		create:          deps.Create,
		get:             deps.Get,
		list:            deps.List,
		listBarber:      deps.ListBarber,
		updateStatus:    deps.UpdateStatus,
		cancel:          deps.Cancel,
		availability:    deps.Availability,
		loc:             loc,
		defaultDuration: deps.DefaultDuration,
		log:             log,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateBookingRequest struct {
	BarberID        uint      `json:"barber_id" binding:"required"`
	ServiceName     string    `json:"service_name" binding:"required"`
	ServicePrice    float64   `json:"service_price" binding:"gte=0"`
	AppointmentDate time.Time `json:"appointment_date" binding:"required"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" form:"status" binding:"required"`
}

// ======================================================
// HANDLERS
// ======================================================

func (h *BookingHandler) Create(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = h.defaultDuration
	}

	b, err := h.create.Execute(c.Request.Context(), caller, ucBooking.CreateBookingInput{
		BarberID:        req.BarberID,
		ServiceName:     req.ServiceName,
		ServicePrice:    req.ServicePrice,
		StartTime:       req.AppointmentDate,
		DurationMinutes: duration,
		Notes:           req.Notes,
	})
	if err != nil {
		httperr.FromError(c, h.log, err)
		return
	}

	httpresp.Created(c, b)
}

func (h *BookingHandler) List(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	asCustomer := true
	if raw := c.Query("as_customer"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_query", "as_customer must be a boolean")
			return
		}
		asCustomer = v
	}

	from, err := parseTimeQuery(c, "from", h.loc)
	if err != nil {
		httperr.BadRequest(c, "invalid_query", "from must be RFC3339 or YYYY-MM-DD")
		return
	}
	to, err := parseTimeQuery(c, "to", h.loc)
	if err != nil {
		httperr.BadRequest(c, "invalid_query", "to must be RFC3339 or YYYY-MM-DD")
		return
	}

	bookings, err := h.list.Execute(c.Request.Context(), caller, ucBooking.ListBookingsInput{
		AsCustomer: asCustomer,
		From:       from,
		To:         to,
	})
	if err != nil {
		httperr.FromError(c, h.log, err)
		return
	}

	httpresp.List(c, bookings)
}

func (h *BookingHandler) Get(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		httperr.BadRequest(c, "invalid_id", "Invalid booking id")
		return
	}

	b, err := h.get.Execute(c.Request.Context(), caller, id)
	if err != nil {
		httperr.FromError(c, h.log, err)
		return
	}
	httpresp.OK(c, b)
}

func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		httperr.BadRequest(c, "invalid_id", "Invalid booking id")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBind(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	b, err := h.updateStatus.Execute(c.Request.Context(), caller, id, req.Status)
	if err != nil {
		httperr.FromError(c, h.log, err)
		return
	}
	httpresp.OK(c, b)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		httperr.BadRequest(c, "invalid_id", "Invalid booking id")
		return
	}

	b, err := h.cancel.Execute(c.Request.Context(), caller, id)
	if err != nil {
		httperr.FromError(c, h.log, err)
		return
	}
	httpresp.OK(c, gin.H{
		"message": "Booking cancelled successfully",
		"booking": b,
	})
}

func (h *BookingHandler) Availability(c *gin.Context) {
	barberID, ok := parseIDParam(c, "barber_id")
	if !ok {
		httperr.BadRequest(c, "invalid_id", "Invalid barber id")
		return
	}
	date := c.Query("date")
	if date == "" {
		httperr.BadRequest(c, "missing_date", "date is required (YYYY-MM-DD)")
		return
	}

	out, err := h.availability.Execute(c.Request.Context(), barberID, date)
	if err != nil {
		httperr.FromError(c, h.log, err)
		return
	}
	httpresp.OK(c, out)
}

func (h *BookingHandler) BarberBookings(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	barberID, ok := parseIDParam(c, "barber_id")
	if !ok {
		httperr.BadRequest(c, "invalid_id", "Invalid barber id")
		return
	}

	bookings, err := h.listBarber.Execute(c.Request.Context(), caller, barberID)
	if err != nil {
		httperr.FromError(c, h.log, err)
		return
	}
	httpresp.List(c, bookings)
}
