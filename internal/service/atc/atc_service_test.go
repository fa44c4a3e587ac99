package atc

import (
	"context"
	"testing"
	"time"

	"github.com/indigoair/indigo/internal/clock"
	"github.com/indigoair/indigo/internal/domain"
	"github.com/indigoair/indigo/internal/events"
	"github.com/indigoair/indigo/internal/repository"
	"github.com/indigoair/indigo/internal/service/flights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.events = append(r.events, e)
	return nil
}

type fixture struct {
	svc     *ATCService
	flights *flights.FlightService
	clock   *clock.FakeClock
	events  *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.Fake(epoch)
	rec := &recorder{}
	repo := repository.NewMemoryFlightRepository()
	flightSvc := flights.NewFlightService(repo, nil, flights.WithClock(clk))
	svc := NewATCService(repository.NewMemoryClearanceRepository(), repo, flightSvc, WithClock(clk), WithPublisher(rec))
	return &fixture{svc: svc, flights: flightSvc, clock: clk, events: rec}
}

func (f *fixture) createFlight(t *testing.T, number string) *domain.Flight {
	t.Helper()
	flight, _, err := f.flights.Create(context.Background(), flights.CreateFlightInput{
		FlightNumber:  number,
		Origin:        "DEL",
		Destination:   "BOM",
		Aircraft:      "A320",
		DepartureTime: epoch.Add(6 * time.Hour),
		ArrivalTime:   epoch.Add(8 * time.Hour),
		Price:         domain.Fares{Economy: 450000, Business: 1200000},
		Gates:         domain.Gates{Departure: "12", Arrival: "B4"},
	}, "admin-1")
	require.NoError(t, err)
	return flight
}

func TestATCService_IssueFollowsSequence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	flight := f.createFlight(t, "6E-101")

	_, err := f.svc.Issue(ctx, IssueInput{FlightID: flight.ID, Type: domain.ClearanceTaxi, ATCID: "atc-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidClearanceSequence, "first clearance must be atc or pushback")

	c, err := f.svc.Issue(ctx, IssueInput{FlightID: flight.ID, Type: domain.ClearanceATC, Message: " cleared to BOM ", ATCID: "atc-1"})
	require.NoError(t, err)
	assert.Equal(t, "issued", c.Status)
	assert.Equal(t, "cleared to BOM", c.Message)
	assert.Equal(t, epoch, c.Timestamp)

	f.clock.Advance(time.Minute)
	_, err = f.svc.Issue(ctx, IssueInput{FlightID: flight.ID, Type: domain.ClearanceTaxi, Runway: "27l", ATCID: "atc-1"})
	require.NoError(t, err)

	_, err = f.svc.Issue(ctx, IssueInput{FlightID: flight.ID, Type: domain.ClearanceLanding, ATCID: "atc-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidClearanceSequence)

	history, err := f.svc.History(ctx, flight.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ClearanceTaxi, history[0].Type)
	assert.Equal(t, "27L", history[0].Runway)

	require.Len(t, f.events.events, 2)
	assert.Equal(t, events.ClearanceIssued, f.events.events[0].Type)
	assert.Equal(t, flight.ID, f.events.events[0].FlightID)
}

func TestATCService_IssueValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	flight := f.createFlight(t, "6E-101")

	_, err := f.svc.Issue(ctx, IssueInput{FlightID: flight.ID, Type: "warp", ATCID: "atc-1"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Issue(ctx, IssueInput{FlightID: flight.ID, Type: domain.ClearanceATC})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Issue(ctx, IssueInput{FlightID: "missing", Type: domain.ClearanceATC, ATCID: "atc-1"})
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
}

func TestATCService_HistoryEmpty(t *testing.T) {
	f := newFixture(t)
	history, err := f.svc.History(context.Background(), "nothing")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestATCService_IssueDelay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	flight := f.createFlight(t, "6E-101")

	_, err := f.svc.IssueDelay(ctx, DelayInput{FlightID: flight.ID, Reason: "", Minutes: 30, ATCID: "atc-1"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.svc.IssueDelay(ctx, DelayInput{FlightID: flight.ID, Reason: "fog", Minutes: 0, ATCID: "atc-1"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	delayed, err := f.svc.IssueDelay(ctx, DelayInput{FlightID: flight.ID, Reason: "fog", Minutes: 30, ATCID: "atc-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.FlightDelayed, delayed.Status)
	assert.Equal(t, "fog (30 min)", delayed.StatusReason)

	logs, err := f.flights.Logs(ctx, flight.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "atc-1", logs[0].UpdatedBy)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, events.FlightDelayed, f.events.events[0].Type)
	assert.Equal(t, 30, f.events.events[0].Data["duration"])

	_, err = f.svc.IssueDelay(ctx, DelayInput{FlightID: flight.ID, Reason: "fog", Minutes: 30, ATCID: "atc-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
}

func TestATCService_Stats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.createFlight(t, "6E-101")
	second := f.createFlight(t, "6E-102")
	f.createFlight(t, "6E-103")

	_, err := f.svc.Issue(ctx, IssueInput{FlightID: first.ID, Type: domain.ClearanceATC, ATCID: "atc-1"})
	require.NoError(t, err)
	_, err = f.svc.Issue(ctx, IssueInput{FlightID: second.ID, Type: domain.ClearancePushback, ATCID: "atc-1"})
	require.NoError(t, err)
	_, err = f.svc.Issue(ctx, IssueInput{FlightID: second.ID, Type: domain.ClearanceTaxi, ATCID: "atc-1"})
	require.NoError(t, err)

	_, err = f.flights.UpdateStatus(ctx, first.ID, domain.FlightBoarding, "", "atc-1")
	require.NoError(t, err)
	_, err = f.svc.IssueDelay(ctx, DelayInput{FlightID: second.ID, Reason: "crew", Minutes: 15, ATCID: "atc-1"})
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalClearances)
	assert.Equal(t, 2, stats.ActiveFlights)
	assert.Equal(t, 1, stats.DelayedFlights)
	assert.Equal(t, map[domain.ClearanceType]int{
		domain.ClearanceATC:      1,
		domain.ClearancePushback: 1,
		domain.ClearanceTaxi:     1,
	}, stats.ClearancesByType)
}
