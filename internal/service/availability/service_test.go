package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/internal/repository"
	"github.com/smiledesk/admin-api/pkg/apperror"
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
func (f *fakeServiceRepo) Update(ctx context.Context, s *model.Service) error { return nil }
func (f *fakeServiceRepo) SoftDelete(ctx context.Context, clinicID, id uuid.UUID) error {
	return nil
}
func (f *fakeServiceRepo) List(ctx context.Context, clinicID uuid.UUID, includeInactive bool) ([]*model.Service, error) {
	return nil, nil
}
func (f *fakeServiceRepo) CountAll(ctx context.Context, clinicID uuid.UUID) (int, error) {
	return 0, nil
}

// fakeAptRepo tracks booked (date, time) pairs per clinic.
type fakeAptRepo struct {
	booked map[string][]string // date key -> times
}

func dateKey(d time.Time) string { return d.Format(model.DateOnly) }

func (f *fakeAptRepo) Create(ctx context.Context, apt *model.Appointment) error { return nil }
func (f *fakeAptRepo) CreateWithPatient(ctx context.Context, apt *model.Appointment, p *model.Patient) error {
	return nil
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
	return f.booked[dateKey(date)], nil
}
func (f *fakeAptRepo) ExistsAt(ctx context.Context, clinicID uuid.UUID, date time.Time, slot string, excludeID *uuid.UUID) (bool, error) {
	for _, t := range f.booked[dateKey(date)] {
		if t == slot {
			return true, nil
		}
	}
	return false, nil
}
func (f *fakeAptRepo) ListUpcoming(ctx context.Context, date time.Time, status model.AppointmentStatus) ([]*model.Appointment, error) {
	return nil, nil
}

func newTestService(clinic *model.Clinic, svc *model.Service, booked map[string][]string) *Service {
	clinics := &fakeClinicRepo{clinics: map[uuid.UUID]*model.Clinic{}}
	if clinic != nil {
		clinics.clinics[clinic.ID] = clinic
	}
	services := &fakeServiceRepo{services: map[uuid.UUID]*model.Service{}}
	if svc != nil {
		services.services[svc.ID] = svc
	}
	if booked == nil {
		booked = map[string][]string{}
	}
	return NewService(clinics, services, &fakeAptRepo{booked: booked})
}

func testClinic(slots ...string) *model.Clinic {
	c := &model.Clinic{Name: "Bright Smiles", Slug: "bright-smiles", Active: true, TimeSlots: slots}
	c.ID = uuid.New()
	return c
}

func TestAvailableTimes_FreeSlotsSorted(t *testing.T) {
	clinic := testClinic("14:00", "09:00", "10:30")
	svc := newTestService(clinic, nil, nil)

	times, err := svc.AvailableTimes(context.Background(), clinic.ID, time.Date(2026, 9, 1, 15, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:30", "14:00"}, times)
}

func TestAvailableTimes_ExcludesBooked(t *testing.T) {
	clinic := testClinic("09:00", "10:00", "11:00")
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestService(clinic, nil, map[string][]string{
		dateKey(day): {"10:00"},
	})

	times, err := svc.AvailableTimes(context.Background(), clinic.ID, day)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "11:00"}, times)
}

func TestAvailableTimes_NoConfiguredSlots(t *testing.T) {
	clinic := testClinic()
	svc := newTestService(clinic, nil, nil)

	times, err := svc.AvailableTimes(context.Background(), clinic.ID, time.Now())
	require.NoError(t, err)
	assert.Empty(t, times)
}

func TestAvailableTimes_UnknownClinic(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	_, err := svc.AvailableTimes(context.Background(), uuid.New(), time.Now())
	assert.True(t, apperror.Is(err, apperror.CodeClinicNotFound))
}

func TestAvailableDates_SkipsFullDays(t *testing.T) {
	clinic := testClinic("09:00")
	treatment := &model.Service{ClinicID: clinic.ID, Name: "Cleaning", Active: true}
	treatment.ID = uuid.New()

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestService(clinic, treatment, map[string][]string{
		dateKey(start): {"09:00"}, // today fully booked
	})
	svc.now = func() time.Time { return start }

	dates, err := svc.AvailableDates(context.Background(), clinic.ID, treatment.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-09-02", "2026-09-03"}, dates)
}

func TestAvailableDates_InactiveService(t *testing.T) {
	clinic := testClinic("09:00")
	treatment := &model.Service{ClinicID: clinic.ID, Name: "Whitening", Active: false}
	treatment.ID = uuid.New()
	svc := newTestService(clinic, treatment, nil)

	_, err := svc.AvailableDates(context.Background(), clinic.ID, treatment.ID, 5)
	assert.True(t, apperror.Is(err, apperror.CodeServiceNotFound))
}

func TestDayOf_TruncatesToUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	in := time.Date(2026, 9, 2, 1, 30, 0, 0, loc) // 2026-09-01 22:30 UTC

	day := DayOf(in)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), day)
}
