package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smiledesk/admin-api/internal/middleware"
	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/internal/notification"
	"github.com/smiledesk/admin-api/internal/repository"
	availabilityService "github.com/smiledesk/admin-api/internal/service/availability"
	bookingService "github.com/smiledesk/admin-api/internal/service/booking"
	clinicService "github.com/smiledesk/admin-api/internal/service/clinic"
	"github.com/smiledesk/admin-api/pkg/logger"
)

type fakeClinicRepo struct {
	clinic *model.Clinic
}

func (f *fakeClinicRepo) Create(ctx context.Context, c *model.Clinic) error { return nil }
func (f *fakeClinicRepo) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	if f.clinic == nil || f.clinic.ID != id {
		return nil, repository.ErrNotFound
	}
	return f.clinic, nil
}
func (f *fakeClinicRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Clinic, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeClinicRepo) GetBySlug(ctx context.Context, slug string) (*model.Clinic, error) {
	if f.clinic == nil || f.clinic.Slug != slug {
		return nil, repository.ErrNotFound
	}
	return f.clinic, nil
}
func (f *fakeClinicRepo) Update(ctx context.Context, c *model.Clinic) error { return nil }

type fakeServiceRepo struct {
	services map[uuid.UUID]*model.Service
}

func (f *fakeServiceRepo) Create(ctx context.Context, s *model.Service) error { return nil }
func (f *fakeServiceRepo) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Service, error) {
	s, ok := f.services[id]
	if !ok || s.ClinicID != clinicID {
		return nil, repository.ErrNotFound
	}
	return s, nil
}
func (f *fakeServiceRepo) Update(ctx context.Context, s *model.Service) error           { return nil }
func (f *fakeServiceRepo) SoftDelete(ctx context.Context, clinicID, id uuid.UUID) error { return nil }
func (f *fakeServiceRepo) List(ctx context.Context, clinicID uuid.UUID, includeInactive bool) ([]*model.Service, error) {
	return nil, nil
}
func (f *fakeServiceRepo) CountAll(ctx context.Context, clinicID uuid.UUID) (int, error) {
	return 0, nil
}

type fakePatientRepo struct{}

func (f *fakePatientRepo) Create(ctx context.Context, p *model.Patient) error {
	p.ID = uuid.New()
	return nil
}
func (f *fakePatientRepo) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Patient, error) {
	return nil, repository.ErrNotFound
}
func (f *fakePatientRepo) GetByEmail(ctx context.Context, clinicID uuid.UUID, email string) (*model.Patient, error) {
	return nil, repository.ErrNotFound
}
func (f *fakePatientRepo) EmailExistsElsewhere(ctx context.Context, clinicID uuid.UUID, email string) (bool, error) {
	return false, nil
}
func (f *fakePatientRepo) Update(ctx context.Context, p *model.Patient) error { return nil }
func (f *fakePatientRepo) List(ctx context.Context, clinicID uuid.UUID) ([]*model.Patient, error) {
	return nil, nil
}

type fakeAptRepo struct {
	appointments []*model.Appointment
}

func (f *fakeAptRepo) slotHeld(clinicID uuid.UUID, date time.Time, slot string) bool {
	for _, a := range f.appointments {
		if a.ClinicID == clinicID && a.Date.Equal(date) && a.Time == slot &&
			a.Status != model.AppointmentStatusCancelled {
			return true
		}
	}
	return false
}

func (f *fakeAptRepo) Create(ctx context.Context, apt *model.Appointment) error {
	if f.slotHeld(apt.ClinicID, apt.Date, apt.Time) {
		return repository.ErrSlotTaken
	}
	apt.ID = uuid.New()
	f.appointments = append(f.appointments, apt)
	return nil
}
func (f *fakeAptRepo) CreateWithPatient(ctx context.Context, apt *model.Appointment, p *model.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	apt.PatientID = p.ID
	return f.Create(ctx, apt)
}
func (f *fakeAptRepo) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Appointment, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeAptRepo) Update(ctx context.Context, apt *model.Appointment) error { return nil }
func (f *fakeAptRepo) UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status model.AppointmentStatus) error {
	return nil
}
func (f *fakeAptRepo) List(ctx context.Context, clinicID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}
func (f *fakeAptRepo) BookedTimes(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]string, error) {
	var times []string
	for _, a := range f.appointments {
		if a.ClinicID == clinicID && a.Date.Equal(date) && a.Status != model.AppointmentStatusCancelled {
			times = append(times, a.Time)
		}
	}
	return times, nil
}
func (f *fakeAptRepo) ExistsAt(ctx context.Context, clinicID uuid.UUID, date time.Time, slot string, excludeID *uuid.UUID) (bool, error) {
	return f.slotHeld(clinicID, date, slot), nil
}
func (f *fakeAptRepo) ListUpcoming(ctx context.Context, date time.Time, status model.AppointmentStatus) ([]*model.Appointment, error) {
	return nil, nil
}

type fakeEmitter struct{}

func (fakeEmitter) Emit(ctx context.Context, eventType string, payload interface{}) error {
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *model.Clinic, *model.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clinic := &model.Clinic{Name: "Bright Smiles", Slug: "bright-smiles", Active: true, TimeSlots: []string{"09:00", "10:00"}}
	clinic.ID = uuid.New()
	treat := &model.Service{ClinicID: clinic.ID, Name: "Cleaning", PriceCents: 8000, DurationMin: 30, Active: true}
	treat.ID = uuid.New()

	log := logger.NewLogger(nil)
	clinicRepo := &fakeClinicRepo{clinic: clinic}
	serviceRepo := &fakeServiceRepo{services: map[uuid.UUID]*model.Service{treat.ID: treat}}
	aptRepo := &fakeAptRepo{}

	clinics := clinicService.NewService(clinicRepo)
	availability := availabilityService.NewService(clinicRepo, serviceRepo, aptRepo)
	bookings := bookingService.NewService(clinicRepo, serviceRepo, &fakePatientRepo{}, aptRepo,
		fakeEmitter{}, notification.NewNoop(), log)

	h := NewHandler(clinics, nil, availability, bookings, nil)

	engine := gin.New()
	engine.Use(middleware.ErrorHandler(log))
	h.RegisterRoutes(engine.Group("/api/v1"))
	return engine, clinic, treat
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func bookingBody(serviceID uuid.UUID, slot string) string {
	return fmt.Sprintf(`{
		"patient": {"name": "Ana", "email": "ana@example.com"},
		"service_id": %q,
		"date": "2026-09-10",
		"time": %q
	}`, serviceID, slot)
}

func TestCreateBooking_Created(t *testing.T) {
	engine, _, treat := newTestRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/public/clinics/bright-smiles/bookings",
		bookingBody(treat.ID, "09:00"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Status string `json:"status"`
			Time   string `json:"time"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "pending", resp.Data.Status)
	assert.Equal(t, "09:00", resp.Data.Time)
}

func TestCreateBooking_ConflictIs409(t *testing.T) {
	engine, _, treat := newTestRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/public/clinics/bright-smiles/bookings",
		bookingBody(treat.ID, "09:00"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/api/v1/public/clinics/bright-smiles/bookings",
		bookingBody(treat.ID, "09:00"))
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestCreateBooking_UnknownSlugIs404(t *testing.T) {
	engine, _, treat := newTestRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/public/clinics/no-such-clinic/bookings",
		bookingBody(treat.ID, "09:00"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateBooking_UnconfiguredSlotIs400(t *testing.T) {
	engine, _, treat := newTestRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/public/clinics/bright-smiles/bookings",
		bookingBody(treat.ID, "09:30"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAvailability_ReflectsBookings(t *testing.T) {
	engine, _, treat := newTestRouter(t)

	w := doJSON(t, engine, http.MethodGet,
		"/api/v1/public/clinics/bright-smiles/availability?date=2026-09-10", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Times []string `json:"times"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"09:00", "10:00"}, resp.Data.Times)

	w = doJSON(t, engine, http.MethodPost, "/api/v1/public/clinics/bright-smiles/bookings",
		bookingBody(treat.ID, "09:00"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, engine, http.MethodGet,
		"/api/v1/public/clinics/bright-smiles/availability?date=2026-09-10", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"10:00"}, resp.Data.Times)
}

func TestGetAvailability_BadDateIs400(t *testing.T) {
	engine, _, _ := newTestRouter(t)

	w := doJSON(t, engine, http.MethodGet,
		"/api/v1/public/clinics/bright-smiles/availability?date=tomorrow", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
