package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smiledesk/admin-api/internal/handler"
	"github.com/smiledesk/admin-api/internal/middleware"
	"github.com/smiledesk/admin-api/internal/model"
	appointmentService "github.com/smiledesk/admin-api/internal/service/appointment"
	bookingService "github.com/smiledesk/admin-api/internal/service/booking"
	"github.com/smiledesk/admin-api/pkg/metrics"
)

type Handler struct {
	appointments *appointmentService.Service
	bookings     *bookingService.Service
	metrics      *metrics.Metrics
}

// NewHandler builds the staff appointment surface. metrics may be nil in
// tests.
func NewHandler(appointments *appointmentService.Service, bookings *bookingService.Service, m *metrics.Metrics) *Handler {
	return &Handler{appointments: appointments, bookings: bookings, metrics: m}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.POST("/:id/confirm", h.transition(appointmentService.ActionConfirm))
		appointments.POST("/:id/cancel", h.transition(appointmentService.ActionCancel))
		appointments.POST("/:id/complete", h.transition(appointmentService.ActionComplete))
	}
}

// CreateAppointment is the staff booking flow; it lands confirmed.
func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	apt, err := h.bookings.CreateAdminAppointment(c.Request.Context(), middleware.ClinicID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(apt))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	appointments, err := h.appointments.List(c.Request.Context(), middleware.ClinicID(c), filters)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	apt, err := h.appointments.Get(c.Request.Context(), middleware.ClinicID(c), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	apt, err := h.appointments.Update(c.Request.Context(), middleware.ClinicID(c), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) transition(action appointmentService.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
			return
		}

		apt, err := h.appointments.Transition(c.Request.Context(), middleware.ClinicID(c), id, action)
		if err != nil {
			c.Error(err)
			return
		}
		if h.metrics != nil {
			h.metrics.StatusTransitions.WithLabelValues(string(action)).Inc()
		}

		c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
	}
}

func parseFilters(c *gin.Context) (*model.AppointmentFilters, error) {
	filters := &model.AppointmentFilters{}

	if status := c.Query("status"); status != "" {
		s := model.AppointmentStatus(status)
		if !s.Valid() {
			return nil, errInvalidFilter("status")
		}
		filters.Status = s
	}
	if pid := c.Query("patient_id"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			return nil, errInvalidFilter("patient_id")
		}
		filters.PatientID = id
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(model.DateOnly, from)
		if err != nil {
			return nil, errInvalidFilter("from")
		}
		filters.StartDate = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(model.DateOnly, to)
		if err != nil {
			return nil, errInvalidFilter("to")
		}
		filters.EndDate = t
	}

	return filters, nil
}

type filterError string

func (e filterError) Error() string { return string(e) }

func errInvalidFilter(field string) error {
	return filterError("invalid filter: " + field)
}
