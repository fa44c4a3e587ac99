package domain

import (
	"errors"
	"regexp"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlightStatus_CanTransition(t *testing.T) {
	testCases := []struct {
		from FlightStatus
		to   FlightStatus
		want bool
	}{
		{FlightScheduled, FlightBoarding, true},
		{FlightScheduled, FlightDelayed, true},
		{FlightScheduled, FlightCancelled, true},
		{FlightScheduled, FlightDeparted, false},
		{FlightBoarding, FlightDeparted, true},
		{FlightBoarding, FlightArrived, false},
		{FlightDeparted, FlightArrived, true},
		{FlightDeparted, FlightCancelled, false},
		{FlightDelayed, FlightBoarding, true},
		{FlightDelayed, FlightDeparted, true},
		{FlightDelayed, FlightCancelled, true},
		{FlightArrived, FlightBoarding, false},
		{FlightCancelled, FlightScheduled, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransition(tc.to))
		})
	}
}

func TestAircraft_Cabin(t *testing.T) {
	a320, ok := LookupAircraft("A320")
	require.True(t, ok)

	cabin, err := a320.Cabin("1A")
	require.NoError(t, err)
	assert.Equal(t, FareBusiness, cabin)

	cabin, err = a320.Cabin("12F")
	require.NoError(t, err)
	assert.Equal(t, FareEconomy, cabin)

	_, err = a320.Cabin("12G")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = a320.Cabin("33A")
	assert.ErrorIs(t, err, ErrValidation)

	a330, _ := LookupAircraft("A330")
	cabin, err = a330.Cabin("3H")
	require.NoError(t, err)
	assert.Equal(t, FareBusiness, cabin)
	assert.Equal(t, SeatCapacity{Economy: 328, Business: 24}, a330.Capacity())
}

func TestParseSeat_Invalid(t *testing.T) {
	for _, seat := range []string{"", "A", "0A", "123A", "12a", "12Z", "AB", "03A", "+3A", "-3A", " 3A", "3A "} {
		_, _, err := ParseSeat(seat)
		assert.ErrorIs(t, err, ErrValidation, seat)
	}
}

func TestFlight_AvailableSeats(t *testing.T) {
	f := &Flight{
		Aircraft:      "A320",
		Capacity:      SeatCapacity{Economy: 180, Business: 12},
		OccupiedSeats: []string{"1A", "2B", "12C"},
	}
	assert.Equal(t, 10, f.AvailableSeats(FareBusiness))
	assert.Equal(t, 179, f.AvailableSeats(FareEconomy))
}

func TestNewFlightSchedule(t *testing.T) {
	dep := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f := &Flight{ID: "F1", DepartureTime: dep, ArrivalTime: dep.Add(2 * time.Hour)}

	s := NewFlightSchedule(f)
	assert.Equal(t, dep.Add(-3*time.Hour), s.CheckInStart)
	assert.Equal(t, dep.Add(-45*time.Minute), s.CheckInEnd)
	assert.Equal(t, dep.Add(-40*time.Minute), s.BoardingStart)
	assert.Equal(t, dep.Add(-10*time.Minute), s.BoardingEnd)
	assert.Equal(t, dep.Add(2*time.Hour+20*time.Minute), s.BaggageClaim)
}

func TestClearanceType_CanFollow(t *testing.T) {
	assert.True(t, ClearancePushback.CanFollow(""))
	assert.True(t, ClearanceATC.CanFollow(""))
	assert.False(t, ClearanceTakeoff.CanFollow(""))

	assert.True(t, ClearanceTaxi.CanFollow(ClearancePushback))
	assert.True(t, ClearanceTakeoff.CanFollow(ClearanceTaxi))
	assert.True(t, ClearanceHolding.CanFollow(ClearanceTaxi))
	assert.False(t, ClearanceLanding.CanFollow(ClearancePushback))
	assert.False(t, ClearancePushback.CanFollow(ClearanceLanding))
}

func TestProgress(t *testing.T) {
	p := Progress("Trainee", 500, 5, 0)
	assert.Equal(t, "Junior First Officer", p.NextRank)
	// 50 + 100 + 0
	assert.Equal(t, 50, p.Percent)

	p = Progress("First Officer", 100000, 500, 10000)
	assert.Equal(t, "Senior First Officer", p.NextRank)
	assert.Equal(t, 100, p.Percent)

	p = Progress("Senior Captain", 0, 0, 0)
	assert.Equal(t, "", p.NextRank)
	assert.Equal(t, 100, p.Percent)
}

func TestPilotStats_Record(t *testing.T) {
	s := NewPilotStats("P1")
	assert.Equal(t, "Trainee", s.CurrentRank)
	assert.Equal(t, 0, s.RankProgress)

	s.Record(PilotLogEntry{Miles: 1000, Hours: 10})
	assert.Equal(t, 1, s.TotalFlights)
	// 100 + 20 + 100
	assert.Equal(t, 73, s.RankProgress)
}

func TestNewConfirmationCode(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	for range 50 {
		code, err := NewConfirmationCode()
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}

	_, err := newConfirmationCode(iotest.ErrReader(errors.New("entropy exhausted")))
	assert.ErrorContains(t, err, "entropy exhausted")
}

func TestKind(t *testing.T) {
	assert.Equal(t, ErrConflict, Kind(ErrSeatAlreadyBooked))
	assert.Equal(t, ErrForbidden, Kind(ErrEntitlementRequired))
	assert.Equal(t, ErrTransitionRejected, Kind(ErrCancellationWindowClosed))
	assert.Equal(t, ErrValidation, Kind(Validation("bad %s", "input")))
	assert.Nil(t, Kind(errors.New("boom")))
	assert.True(t, errors.Is(ErrHoldNotFoundOrExpired, ErrConflict))
}
