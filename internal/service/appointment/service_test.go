package appointment

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
func (f *fakeServiceRepo) Update(ctx context.Context, s *model.Service) error           { return nil }
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

func (f *fakePatientRepo) Create(ctx context.Context, p *model.Patient) error { return nil }
func (f *fakePatientRepo) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Patient, error) {
	p, ok := f.patients[id]
	if !ok || p.ClinicID != clinicID {
		return nil, repository.ErrNotFound
	}
	return p, nil
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
	return f.Create(ctx, apt)
}
func (f *fakeAptRepo) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok || a.ClinicID != clinicID {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
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
	svc    *Service
	clinic *model.Clinic
	treat  *model.Service
	apts   *fakeAptRepo
	events *fakeEmitter
}

var day = time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clinic := &model.Clinic{Name: "Bright Smiles", Active: true, TimeSlots: []string{"09:00", "10:00", "11:00"}}
	clinic.ID = uuid.New()
	treat := &model.Service{ClinicID: clinic.ID, Name: "Cleaning", Active: true}
	treat.ID = uuid.New()

	apts := &fakeAptRepo{appointments: map[uuid.UUID]*model.Appointment{}}
	events := &fakeEmitter{}

	svc := NewService(
		apts,
		&fakeClinicRepo{clinic: clinic},
		&fakeServiceRepo{services: map[uuid.UUID]*model.Service{treat.ID: treat}},
		&fakePatientRepo{patients: map[uuid.UUID]*model.Patient{}},
		events,
		notification.NewNoop(),
		logger.NewLogger(nil),
	)

	return &fixture{svc: svc, clinic: clinic, treat: treat, apts: apts, events: events}
}

func (f *fixture) addAppointment(t *testing.T, slot string, status model.AppointmentStatus) *model.Appointment {
	t.Helper()
	apt := &model.Appointment{
		ClinicID:  f.clinic.ID,
		ServiceID: f.treat.ID,
		PatientID: uuid.New(),
		Date:      day,
		Time:      slot,
		Status:    status,
	}
	apt.ID = uuid.New()
	f.apts.appointments[apt.ID] = apt
	return apt
}

func TestTransition_PendingToConfirmed(t *testing.T) {
	f := newFixture(t)
	apt := f.addAppointment(t, "09:00", model.AppointmentStatusPending)

	got, err := f.svc.Transition(context.Background(), f.clinic.ID, apt.ID, ActionConfirm)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, got.Status)
	assert.Equal(t, []string{model.EventAppointmentConfirmed}, f.events.emitted)
}

func TestTransition_ConfirmedToCompleted(t *testing.T) {
	f := newFixture(t)
	apt := f.addAppointment(t, "09:00", model.AppointmentStatusConfirmed)

	got, err := f.svc.Transition(context.Background(), f.clinic.ID, apt.ID, ActionComplete)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, got.Status)
}

func TestTransition_ConfirmingConfirmedFails(t *testing.T) {
	f := newFixture(t)
	apt := f.addAppointment(t, "09:00", model.AppointmentStatusConfirmed)

	_, err := f.svc.Transition(context.Background(), f.clinic.ID, apt.ID, ActionConfirm)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidTransition))
}

func TestTransition_TerminalStatesReject(t *testing.T) {
	f := newFixture(t)

	for _, status := range []model.AppointmentStatus{
		model.AppointmentStatusCancelled,
		model.AppointmentStatusCompleted,
	} {
		apt := f.addAppointment(t, "09:00", status)
		for _, action := range []Action{ActionConfirm, ActionCancel, ActionComplete} {
			_, err := f.svc.Transition(context.Background(), f.clinic.ID, apt.ID, action)
			assert.True(t, apperror.Is(err, apperror.CodeInvalidTransition),
				"%s should reject %s", status, action)
		}
		delete(f.apts.appointments, apt.ID)
	}
}

func TestTransition_ForeignClinicGetsNotFound(t *testing.T) {
	f := newFixture(t)
	apt := f.addAppointment(t, "09:00", model.AppointmentStatusPending)

	_, err := f.svc.Transition(context.Background(), uuid.New(), apt.ID, ActionConfirm)
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestCancellationFreesSlot(t *testing.T) {
	f := newFixture(t)
	apt := f.addAppointment(t, "10:00", model.AppointmentStatusConfirmed)

	_, err := f.svc.Transition(context.Background(), f.clinic.ID, apt.ID, ActionCancel)
	require.NoError(t, err)

	taken, err := f.apts.ExistsAt(context.Background(), f.clinic.ID, day, "10:00", nil)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUpdate_Reschedule(t *testing.T) {
	f := newFixture(t)
	apt := f.addAppointment(t, "09:00", model.AppointmentStatusPending)

	newTime := "10:00"
	got, err := f.svc.Update(context.Background(), f.clinic.ID, apt.ID, &model.UpdateAppointmentRequest{
		Time: &newTime,
	})
	require.NoError(t, err)
	assert.Equal(t, "10:00", got.Time)
}

func TestUpdate_RescheduleIntoTakenSlot(t *testing.T) {
	f := newFixture(t)
	f.addAppointment(t, "10:00", model.AppointmentStatusConfirmed)
	apt := f.addAppointment(t, "09:00", model.AppointmentStatusPending)

	newTime := "10:00"
	_, err := f.svc.Update(context.Background(), f.clinic.ID, apt.ID, &model.UpdateAppointmentRequest{
		Time: &newTime,
	})
	assert.True(t, apperror.Is(err, apperror.CodeSlotAlreadyBooked))
}

func TestUpdate_SameSlotDoesNotConflictWithItself(t *testing.T) {
	f := newFixture(t)
	apt := f.addAppointment(t, "09:00", model.AppointmentStatusPending)

	notes := "bring previous x-rays"
	got, err := f.svc.Update(context.Background(), f.clinic.ID, apt.ID, &model.UpdateAppointmentRequest{
		Notes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, notes, got.Notes)
	assert.Equal(t, "09:00", got.Time)
}

func TestUpdate_TerminalRejected(t *testing.T) {
	f := newFixture(t)
	apt := f.addAppointment(t, "09:00", model.AppointmentStatusCompleted)

	newTime := "10:00"
	_, err := f.svc.Update(context.Background(), f.clinic.ID, apt.ID, &model.UpdateAppointmentRequest{
		Time: &newTime,
	})
	assert.True(t, apperror.Is(err, apperror.CodeInvalidTransition))
}

func TestUpdate_UnconfiguredSlot(t *testing.T) {
	f := newFixture(t)
	apt := f.addAppointment(t, "09:00", model.AppointmentStatusPending)

	newTime := "09:45"
	_, err := f.svc.Update(context.Background(), f.clinic.ID, apt.ID, &model.UpdateAppointmentRequest{
		Time: &newTime,
	})
	assert.True(t, apperror.Is(err, apperror.CodeInvalidTimeSlot))
}
