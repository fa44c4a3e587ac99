package domain

import (
	"slices"
	"time"
)

type FlightStatus string

const (
	FlightScheduled FlightStatus = "scheduled"
	FlightBoarding  FlightStatus = "boarding"
	FlightDeparted  FlightStatus = "departed"
	FlightArrived   FlightStatus = "arrived"
	FlightDelayed   FlightStatus = "delayed"
	FlightCancelled FlightStatus = "cancelled"
)

// arrived and cancelled are terminal.
var flightTransitions = map[FlightStatus][]FlightStatus{
	FlightScheduled: {FlightBoarding, FlightDelayed, FlightCancelled},
	FlightBoarding:  {FlightDeparted, FlightDelayed, FlightCancelled},
	FlightDeparted:  {FlightArrived, FlightDelayed},
	FlightDelayed:   {FlightBoarding, FlightDeparted, FlightCancelled},
	FlightArrived:   {},
	FlightCancelled: {},
}

func (s FlightStatus) Valid() bool {
	_, ok := flightTransitions[s]
	return ok
}

func (s FlightStatus) CanTransition(to FlightStatus) bool {
	return slices.Contains(flightTransitions[s], to)
}

// Bookable reports whether seats on a flight in this status may still be
// held or booked.
func (s FlightStatus) Bookable() bool {
	return s == FlightScheduled || s == FlightDelayed || s == FlightBoarding
}

type SeatCapacity struct {
	Economy  int `json:"economy"`
	Business int `json:"business"`
}

type Fares struct {
	Economy  int64 `json:"economy"`
	Business int64 `json:"business"`
}

type Gates struct {
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
}

type Crew struct {
	Captain      string   `json:"captain"`
	FirstOfficer string   `json:"firstOfficer"`
	CabinCrew    []string `json:"cabinCrew"`
}

type Flight struct {
	ID            string       `json:"id"`
	FlightNumber  string       `json:"flightNumber"`
	Origin        string       `json:"departure"`
	Destination   string       `json:"arrival"`
	Aircraft      string       `json:"aircraft"`
	DepartureTime time.Time    `json:"departureTime"`
	ArrivalTime   time.Time    `json:"arrivalTime"`
	Capacity      SeatCapacity `json:"capacity"`
	Price         Fares        `json:"price"`
	Gates         Gates        `json:"gates"`
	OccupiedSeats []string     `json:"occupiedSeats"`
	Status        FlightStatus `json:"status"`
	StatusReason  string       `json:"statusReason,omitempty"`
	Crew          *Crew        `json:"crew,omitempty"`
	CreatedBy     string       `json:"createdBy"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

func (f *Flight) Duration() time.Duration {
	return f.ArrivalTime.Sub(f.DepartureTime)
}

func (f *Flight) SeatOccupied(seat string) bool {
	return slices.Contains(f.OccupiedSeats, seat)
}

// AvailableSeats counts the free seats of one cabin.
func (f *Flight) AvailableSeats(class FareClass) int {
	aircraft, ok := LookupAircraft(f.Aircraft)
	if !ok {
		return 0
	}
	total := f.Capacity.Economy
	if class == FareBusiness {
		total = f.Capacity.Business
	}
	for _, seat := range f.OccupiedSeats {
		if cabin, err := aircraft.Cabin(seat); err == nil && cabin == class {
			total--
		}
	}
	return total
}

type FlightSchedule struct {
	FlightID      string    `json:"flightId"`
	CheckInStart  time.Time `json:"checkInStart"`
	CheckInEnd    time.Time `json:"checkInEnd"`
	BoardingStart time.Time `json:"boardingStart"`
	BoardingEnd   time.Time `json:"boardingEnd"`
	Departure     time.Time `json:"departure"`
	Arrival       time.Time `json:"arrival"`
	BaggageClaim  time.Time `json:"baggageClaim"`
}

func NewFlightSchedule(f *Flight) FlightSchedule {
	dep := f.DepartureTime
	return FlightSchedule{
		FlightID:      f.ID,
		CheckInStart:  dep.Add(-3 * time.Hour),
		CheckInEnd:    dep.Add(-45 * time.Minute),
		BoardingStart: dep.Add(-40 * time.Minute),
		BoardingEnd:   dep.Add(-10 * time.Minute),
		Departure:     dep,
		Arrival:       f.ArrivalTime,
		BaggageClaim:  f.ArrivalTime.Add(20 * time.Minute),
	}
}

// FlightLogEntry is one audit record of a change made to a flight.
type FlightLogEntry struct {
	ID        string       `json:"id"`
	FlightID  string       `json:"flightId"`
	Type      string       `json:"type"`
	From      FlightStatus `json:"from,omitempty"`
	To        FlightStatus `json:"to,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	UpdatedBy string       `json:"updatedBy"`
	Timestamp time.Time    `json:"timestamp"`
}
