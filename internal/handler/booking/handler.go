package booking

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smiledesk/admin-api/internal/handler"
	"github.com/smiledesk/admin-api/internal/model"
	availabilityService "github.com/smiledesk/admin-api/internal/service/availability"
	bookingService "github.com/smiledesk/admin-api/internal/service/booking"
	catalogService "github.com/smiledesk/admin-api/internal/service/catalog"
	clinicService "github.com/smiledesk/admin-api/internal/service/clinic"
	"github.com/smiledesk/admin-api/pkg/apperror"
	"github.com/smiledesk/admin-api/pkg/metrics"
)

// Handler is the public, unauthenticated booking surface. Clinics are
// addressed by slug; everything it exposes is already public on the booking
// page.
type Handler struct {
	clinics      *clinicService.Service
	catalog      *catalogService.Service
	availability *availabilityService.Service
	bookings     *bookingService.Service
	metrics      *metrics.Metrics
}

// NewHandler builds the public surface. metrics may be nil in tests.
func NewHandler(
	clinics *clinicService.Service,
	catalog *catalogService.Service,
	availability *availabilityService.Service,
	bookings *bookingService.Service,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		clinics:      clinics,
		catalog:      catalog,
		availability: availability,
		bookings:     bookings,
		metrics:      m,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	public := r.Group("/public/clinics/:slug")
	{
		public.GET("", h.GetClinic)
		public.GET("/services", h.ListServices)
		public.GET("/availability", h.GetAvailability)
		public.GET("/available-dates", h.GetAvailableDates)
		public.POST("/bookings", h.CreateBooking)
	}
}

// publicClinic is the subset of the clinic profile shown on the booking page.
type publicClinic struct {
	Name      string   `json:"name"`
	Slug      string   `json:"slug"`
	Phone     string   `json:"phone,omitempty"`
	Address   string   `json:"address,omitempty"`
	TimeSlots []string `json:"time_slots"`
}

func (h *Handler) GetClinic(c *gin.Context) {
	clinic, err := h.clinics.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(publicClinic{
		Name:      clinic.Name,
		Slug:      clinic.Slug,
		Phone:     clinic.Phone,
		Address:   clinic.Address,
		TimeSlots: clinic.TimeSlots,
	}))
}

func (h *Handler) ListServices(c *gin.Context) {
	clinic, err := h.clinics.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.Error(err)
		return
	}

	services, err := h.catalog.List(c.Request.Context(), clinic.ID, false)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(services))
}

// GetAvailability returns the free slots for one calendar day.
func (h *Handler) GetAvailability(c *gin.Context) {
	date, err := time.Parse(model.DateOnly, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, want YYYY-MM-DD"))
		return
	}

	clinic, err := h.clinics.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.Error(err)
		return
	}

	times, err := h.availability.AvailableTimes(c.Request.Context(), clinic.ID, date)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"date":  date.Format(model.DateOnly),
		"times": times,
	}))
}

// GetAvailableDates returns the upcoming days with at least one free slot.
func (h *Handler) GetAvailableDates(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Query("service_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid service ID"))
		return
	}

	horizon := 0
	if v := c.Query("days"); v != "" {
		horizon, err = strconv.Atoi(v)
		if err != nil || horizon < 0 {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid days"))
			return
		}
	}

	clinic, err := h.clinics.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.Error(err)
		return
	}

	dates, err := h.availability.AvailableDates(c.Request.Context(), clinic.ID, serviceID, horizon)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"dates": dates}))
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	date, err := time.Parse(model.DateOnly, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, want YYYY-MM-DD"))
		return
	}

	clinic, err := h.clinics.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.Error(err)
		return
	}

	start := time.Now()
	apt, err := h.bookings.CreateBooking(c.Request.Context(), clinic.ID, req.Patient, req.ServiceID, date, req.Time, req.Notes)
	h.recordBooking(err, time.Since(start))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(apt))
}

func (h *Handler) recordBooking(err error, elapsed time.Duration) {
	if h.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		if apperror.Is(err, apperror.CodeSlotAlreadyBooked) {
			outcome = "conflict"
			h.metrics.BookingConflicts.Inc()
		}
	}
	h.metrics.BookingAttempts.WithLabelValues(outcome).Inc()
	h.metrics.BookingLatency.Observe(elapsed.Seconds())
}
