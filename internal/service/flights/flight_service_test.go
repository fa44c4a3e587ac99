package flights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/indigoair/indigo/internal/clock"
	"github.com/indigoair/indigo/internal/domain"
	"github.com/indigoair/indigo/internal/events"
	"github.com/indigoair/indigo/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	return m.Called(ctx, flights).Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e events.Event) error {
	return m.Called(ctx, e).Error(0)
}

func validInput() CreateFlightInput {
	return CreateFlightInput{
		FlightNumber:  "6E-2041",
		Origin:        "del",
		Destination:   "BOM",
		Aircraft:      "A330",
		DepartureTime: epoch.Add(48 * time.Hour),
		ArrivalTime:   epoch.Add(50 * time.Hour),
		Price:         domain.Fares{Economy: 500000, Business: 1500000},
		Gates:         domain.Gates{Departure: "12", Arrival: "B4"},
	}
}

func newService(t *testing.T, cache FlightCache) (*FlightService, *MockPublisher) {
	t.Helper()
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	return NewFlightService(repository.NewMemoryFlightRepository(), cache, WithClock(clock.Fake(epoch)), WithPublisher(pub)), pub
}

func TestFlightService_Create(t *testing.T) {
	ctx := context.Background()
	svc, pub := newService(t, nil)

	flight, schedule, err := svc.Create(ctx, validInput(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "DEL", flight.Origin)
	assert.Equal(t, domain.FlightScheduled, flight.Status)
	assert.Equal(t, domain.SeatCapacity{Economy: 328, Business: 24}, flight.Capacity)
	assert.Equal(t, "admin-1", flight.CreatedBy)
	assert.Equal(t, flight.DepartureTime.Add(-3*time.Hour), schedule.CheckInStart)

	_, _, err = svc.Create(ctx, validInput(), "admin-1")
	assert.ErrorIs(t, err, domain.ErrDuplicateFlightNumber)

	pub.AssertNumberOfCalls(t, "Publish", 1)
	pub.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.FlightCreated && e.FlightID == flight.ID
	}))
}

func TestFlightService_CreateValidation(t *testing.T) {
	svc, _ := newService(t, nil)

	tests := []struct {
		name   string
		mutate func(*CreateFlightInput)
	}{
		{"flight number", func(in *CreateFlightInput) { in.FlightNumber = "AI-101" }},
		{"airport code", func(in *CreateFlightInput) { in.Origin = "DELHI" }},
		{"same airports", func(in *CreateFlightInput) { in.Destination = "DEL" }},
		{"aircraft", func(in *CreateFlightInput) { in.Aircraft = "B737" }},
		{"arrival before departure", func(in *CreateFlightInput) { in.ArrivalTime = in.DepartureTime }},
		{"price", func(in *CreateFlightInput) { in.Price.Business = 0 }},
		{"gates", func(in *CreateFlightInput) { in.Gates.Arrival = " " }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, _, err := svc.Create(context.Background(), in, "admin-1")
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestFlightService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)
	flight, _, err := svc.Create(ctx, validInput(), "admin-1")
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, flight.ID, domain.FlightBoarding, "gate open", "atc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.FlightBoarding, updated.Status)

	_, err = svc.UpdateStatus(ctx, flight.ID, domain.FlightDeparted, "", "atc-1")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, flight.ID, domain.FlightArrived, "", "atc-1")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, flight.ID, domain.FlightBoarding, "", "atc-1")
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	_, err = svc.UpdateStatus(ctx, flight.ID, "teleported", "", "atc-1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateStatus(ctx, "missing", domain.FlightBoarding, "", "atc-1")
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)

	logs, err := svc.Logs(ctx, flight.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, domain.FlightDeparted, logs[0].From)
	assert.Equal(t, domain.FlightArrived, logs[0].To)
}

func TestFlightService_AssignCrew(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)
	flight, _, err := svc.Create(ctx, validInput(), "admin-1")
	require.NoError(t, err)

	_, err = svc.AssignCrew(ctx, flight.ID, domain.Crew{Captain: "C1", FirstOfficer: "FO1", CabinCrew: []string{"A"}}, "admin-1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	crew := domain.Crew{Captain: "C1", FirstOfficer: "FO1", CabinCrew: []string{"A", "B", "C"}}
	updated, err := svc.AssignCrew(ctx, flight.ID, crew, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, &crew, updated.Crew)

	logs, _ := svc.Logs(ctx, flight.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, "crew_assigned", logs[0].Type)
}

func TestFlightService_ListFilters(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	first, _, err := svc.Create(ctx, validInput(), "admin-1")
	require.NoError(t, err)

	second := validInput()
	second.FlightNumber = "6E-301"
	second.Origin = "BLR"
	second.Aircraft = "A320"
	second.DepartureTime = epoch.Add(24 * time.Hour)
	second.ArrivalTime = epoch.Add(26 * time.Hour)
	_, _, err = svc.Create(ctx, second, "admin-1")
	require.NoError(t, err)

	page, err := svc.List(ctx, FlightFilter{})
	require.NoError(t, err)
	require.Len(t, page.Flights, 2)
	assert.Equal(t, "6E-301", page.Flights[0].FlightNumber, "sorted by departure")
	assert.Equal(t, Pagination{Page: 1, Limit: 10, TotalFlights: 2, TotalPages: 1}, page.Pagination)

	page, err = svc.List(ctx, FlightFilter{Origin: "DEL"})
	require.NoError(t, err)
	require.Len(t, page.Flights, 1)
	assert.Equal(t, first.ID, page.Flights[0].ID)

	page, err = svc.List(ctx, FlightFilter{Date: epoch.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, page.Flights, 1)

	page, err = svc.List(ctx, FlightFilter{Class: domain.FareBusiness, Passengers: 9})
	require.NoError(t, err)
	assert.Len(t, page.Flights, 2)

	page, err = svc.List(ctx, FlightFilter{Limit: 1, Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Flights, 1)
	assert.Equal(t, first.ID, page.Flights[0].ID)

	_, err = svc.List(ctx, FlightFilter{Status: "lost"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.List(ctx, FlightFilter{Passengers: 10})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFlightService_ListUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := new(MockCache)
	svc, _ := newService(t, cache)

	cached := []domain.Flight{{ID: "cached", FlightNumber: "6E-999", Status: domain.FlightScheduled}}
	cache.On("GetFlights", ctx).Return(cached, nil).Once()

	page, err := svc.List(ctx, FlightFilter{})
	require.NoError(t, err)
	require.Len(t, page.Flights, 1)
	assert.Equal(t, "cached", page.Flights[0].ID)

	cache.On("GetFlights", ctx).Return(nil, errors.New("redis down")).Once()
	cache.On("SetFlights", ctx, mock.Anything).Return(nil).Once()
	page, err = svc.List(ctx, FlightFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Flights)

	cache.AssertExpectations(t)
}

func TestFlightService_WritesInvalidateCache(t *testing.T) {
	ctx := context.Background()
	cache := new(MockCache)
	cache.On("InvalidateFlights", ctx).Return(nil)
	svc, _ := newService(t, cache)

	flight, _, err := svc.Create(ctx, validInput(), "admin-1")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, flight.ID, domain.FlightDelayed, "weather", "atc-1")
	require.NoError(t, err)

	cache.AssertNumberOfCalls(t, "InvalidateFlights", 2)
}

func TestFlightService_Schedule(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)
	flight, _, err := svc.Create(ctx, validInput(), "admin-1")
	require.NoError(t, err)

	schedule, err := svc.Schedule(ctx, flight.ID)
	require.NoError(t, err)
	assert.Equal(t, flight.ArrivalTime.Add(20*time.Minute), schedule.BaggageClaim)

	_, err = svc.Schedule(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
