package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/internal/notification"
	"github.com/smiledesk/admin-api/internal/repository"
	"github.com/smiledesk/admin-api/pkg/apperror"
	"github.com/smiledesk/admin-api/pkg/logger"
)

type fakeClinicRepo struct {
	clinics map[uuid.UUID]*model.Clinic
}

func (f *fakeClinicRepo) Create(ctx context.Context, c *model.Clinic) error { return nil }
func (f *fakeClinicRepo) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	c, ok := f.clinics[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}
func (f *fakeClinicRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Clinic, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeClinicRepo) GetBySlug(ctx context.Context, slug string) (*model.Clinic, error) {
	return nil, repository.ErrNotFound
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
func (f *fakeServiceRepo) Update(ctx context.Context, s *model.Service) error          { return nil }
func (f *fakeServiceRepo) SoftDelete(ctx context.Context, clinicID, id uuid.UUID) error { return nil }
func (f *fakeServiceRepo) List(ctx context.Context, clinicID uuid.UUID, includeInactive bool) ([]*model.Service, error) {
	return nil, nil
}
func (f *fakeServiceRepo) CountAll(ctx context.Context, clinicID uuid.UUID) (int, error) {
	return 0, nil
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (f *fakePatientRepo) Create(ctx context.Context, p *model.Patient) error {
	p.ID = uuid.New()
	f.patients[p.ID] = p
	return nil
}
func (f *fakePatientRepo) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Patient, error) {
	p, ok := f.patients[id]
	if !ok || p.ClinicID != clinicID {
		return nil, repository.ErrNotFound
	}
	return p, nil
}
func (f *fakePatientRepo) GetByEmail(ctx context.Context, clinicID uuid.UUID, email string) (*model.Patient, error) {
	for _, p := range f.patients {
		if p.ClinicID == clinicID && p.Email == email {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}
func (f *fakePatientRepo) EmailExistsElsewhere(ctx context.Context, clinicID uuid.UUID, email string) (bool, error) {
	for _, p := range f.patients {
		if p.ClinicID != clinicID && p.Email == email {
			return true, nil
		}
	}
	return false, nil
}
func (f *fakePatientRepo) Update(ctx context.Context, p *model.Patient) error { return nil }
func (f *fakePatientRepo) List(ctx context.Context, clinicID uuid.UUID) ([]*model.Patient, error) {
	return nil, nil
}

// fakeAptRepo enforces the same slot uniqueness the partial index provides.
type fakeAptRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func (f *fakeAptRepo) slotHeld(clinicID uuid.UUID, date time.Time, slot string, excludeID *uuid.UUID) bool {
	for _, a := range f.appointments {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.ClinicID == clinicID && a.Date.Equal(date) && a.Time == slot &&
			a.Status != model.AppointmentStatusCancelled {
			return true
		}
	}
	return false
}

func (f *fakeAptRepo) Create(ctx context.Context, apt *model.Appointment) error {
	if f.slotHeld(apt.ClinicID, apt.Date, apt.Time, nil) {
		return repository.ErrSlotTaken
	}
	apt.ID = uuid.New()
	f.appointments[apt.ID] = apt
	return nil
}
func (f *fakeAptRepo) CreateWithPatient(ctx context.Context, apt *model.Appointment, p *model.Patient) error {
	if f.slotHeld(apt.ClinicID, apt.Date, apt.Time, nil) {
		return repository.ErrSlotTaken
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	apt.PatientID = p.ID
	apt.ID = uuid.New()
	f.appointments[apt.ID] = apt
	return nil
}
func (f *fakeAptRepo) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok || a.ClinicID != clinicID {
		return nil, repository.ErrNotFound
	}
	return a, nil
}
func (f *fakeAptRepo) Update(ctx context.Context, apt *model.Appointment) error {
	if f.slotHeld(apt.ClinicID, apt.Date, apt.Time, &apt.ID) {
		return repository.ErrSlotTaken
	}
	f.appointments[apt.ID] = apt
	return nil
}
func (f *fakeAptRepo) UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status model.AppointmentStatus) error {
	a, ok := f.appointments[id]
	if !ok || a.ClinicID != clinicID {
		return repository.ErrNotFound
	}
	a.Status = status
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
	return f.slotHeld(clinicID, date, slot, excludeID), nil
}
func (f *fakeAptRepo) ListUpcoming(ctx context.Context, date time.Time, status model.AppointmentStatus) ([]*model.Appointment, error) {
	return nil, nil
}

type fakeEmitter struct {
	emitted []string
}

func (f *fakeEmitter) Emit(ctx context.Context, eventType string, payload interface{}) error {
	f.emitted = append(f.emitted, eventType)
	return nil
}

type fixture struct {
	svc      *Service
	clinic   *model.Clinic
	treat    *model.Service
	patients *fakePatientRepo
	apts     *fakeAptRepo
	events   *fakeEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clinic := &model.Clinic{Name: "Bright Smiles", Active: true, TimeSlots: []string{"09:00", "10:00", "11:00"}}
	clinic.ID = uuid.New()
	treat := &model.Service{ClinicID: clinic.ID, Name: "Cleaning", PriceCents: 8000, DurationMin: 30, Active: true}
	treat.ID = uuid.New()

	patients := &fakePatientRepo{patients: map[uuid.UUID]*model.Patient{}}
	apts := &fakeAptRepo{appointments: map[uuid.UUID]*model.Appointment{}}
	events := &fakeEmitter{}

	svc := NewService(
		&fakeClinicRepo{clinics: map[uuid.UUID]*model.Clinic{clinic.ID: clinic}},
		&fakeServiceRepo{services: map[uuid.UUID]*model.Service{treat.ID: treat}},
		patients,
		apts,
		events,
		notification.NewNoop(),
		logger.NewLogger(nil),
	)

	return &fixture{svc: svc, clinic: clinic, treat: treat, patients: patients, apts: apts, events: events}
}

var day = time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

func TestCreateBooking_StartsPending(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.CreateBooking(context.Background(), f.clinic.ID,
		model.PatientInfo{Name: "Ana", Email: "ana@example.com"}, f.treat.ID, day, "09:00", "")
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusPending, apt.Status)
	assert.Equal(t, "09:00", apt.Time)
	assert.Equal(t, []string{model.EventAppointmentCreated}, f.events.emitted)
	require.NotNil(t, apt.Patient)
	assert.Equal(t, "ana@example.com", apt.Patient.Email)
}

func TestCreateBooking_SlotNotConfigured(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBooking(context.Background(), f.clinic.ID,
		model.PatientInfo{Name: "Ana", Email: "ana@example.com"}, f.treat.ID, day, "09:30", "")
	assert.True(t, apperror.Is(err, apperror.CodeInvalidTimeSlot))
}

func TestCreateBooking_SlotConflict(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBooking(context.Background(), f.clinic.ID,
		model.PatientInfo{Name: "Ana", Email: "ana@example.com"}, f.treat.ID, day, "10:00", "")
	require.NoError(t, err)

	// Bruno asks for the same slot moments later.
	_, err = f.svc.CreateBooking(context.Background(), f.clinic.ID,
		model.PatientInfo{Name: "Bruno", Email: "bruno@example.com"}, f.treat.ID, day, "10:00", "")
	assert.True(t, apperror.Is(err, apperror.CodeSlotAlreadyBooked))

	// The losing request must not create an appointment.
	assert.Len(t, f.apts.appointments, 1)
}

func TestCreateBooking_InactiveClinic(t *testing.T) {
	f := newFixture(t)
	f.clinic.Active = false

	_, err := f.svc.CreateBooking(context.Background(), f.clinic.ID,
		model.PatientInfo{Name: "Ana", Email: "ana@example.com"}, f.treat.ID, day, "09:00", "")
	assert.True(t, apperror.Is(err, apperror.CodeClinicNotFound))
}

func TestCreateBooking_InactiveService(t *testing.T) {
	f := newFixture(t)
	f.treat.Active = false

	_, err := f.svc.CreateBooking(context.Background(), f.clinic.ID,
		model.PatientInfo{Name: "Ana", Email: "ana@example.com"}, f.treat.ID, day, "09:00", "")
	assert.True(t, apperror.Is(err, apperror.CodeServiceNotFound))
}

func TestCreateBooking_ReusesPatientByEmail(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.CreateBooking(context.Background(), f.clinic.ID,
		model.PatientInfo{Name: "Ana", Email: "ana@example.com"}, f.treat.ID, day, "09:00", "")
	require.NoError(t, err)

	// Same email at the same clinic books another slot; fake upserts by the
	// repo contract, so only one patient exists per (clinic, email) at the
	// storage layer in production.
	second, err := f.svc.CreateBooking(context.Background(), f.clinic.ID,
		model.PatientInfo{Name: "Ana", Email: "ana@example.com"}, f.treat.ID, day, "10:00", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateAdminAppointment_StartsConfirmed(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.CreateAdminAppointment(context.Background(), f.clinic.ID, &model.CreateAppointmentRequest{
		PatientInfo: &model.PatientInfo{Name: "Ana", Email: "ana@example.com"},
		ServiceID:   f.treat.ID,
		Date:        day.Format(model.DateOnly),
		Time:        "11:00",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, apt.Status)
}

func TestCreateAdminAppointment_RejectsForeignEmail(t *testing.T) {
	f := newFixture(t)

	// Email already registered with a different clinic.
	other := &model.Patient{ClinicID: uuid.New(), Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, f.patients.Create(context.Background(), other))

	_, err := f.svc.CreateAdminAppointment(context.Background(), f.clinic.ID, &model.CreateAppointmentRequest{
		PatientInfo: &model.PatientInfo{Name: "Ana", Email: "ana@example.com"},
		ServiceID:   f.treat.ID,
		Date:        day.Format(model.DateOnly),
		Time:        "09:00",
	})
	assert.True(t, apperror.Is(err, apperror.CodeEmailInUse))
}

func TestCreateAdminAppointment_UnknownPatientID(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	_, err := f.svc.CreateAdminAppointment(context.Background(), f.clinic.ID, &model.CreateAppointmentRequest{
		PatientID: &id,
		ServiceID: f.treat.ID,
		Date:      day.Format(model.DateOnly),
		Time:      "09:00",
	})
	assert.True(t, apperror.Is(err, apperror.CodePatientNotFound))
}

func TestCreateAdminAppointment_BadDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateAdminAppointment(context.Background(), f.clinic.ID, &model.CreateAppointmentRequest{
		PatientInfo: &model.PatientInfo{Name: "Ana", Email: "ana@example.com"},
		ServiceID:   f.treat.ID,
		Date:        "10-09-2026",
		Time:        "09:00",
	})
	assert.True(t, apperror.Is(err, apperror.CodeBadRequest))
}
