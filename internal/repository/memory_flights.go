package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/indigoair/indigo/internal/domain"
)

type MemoryFlightRepository struct {
	mu      sync.RWMutex
	flights map[string]domain.Flight
	logs    map[string][]domain.FlightLogEntry
}

func NewMemoryFlightRepository() *MemoryFlightRepository {
	return &MemoryFlightRepository{
		flights: make(map[string]domain.Flight),
		logs:    make(map[string][]domain.FlightLogEntry),
	}
}

func (r *MemoryFlightRepository) Create(_ context.Context, flight *domain.Flight) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.flights {
		if f.FlightNumber == flight.FlightNumber {
			return domain.ErrDuplicateFlightNumber
		}
	}
	r.flights[flight.ID] = cloneFlight(*flight)
	return nil
}

func (r *MemoryFlightRepository) GetByID(_ context.Context, id string) (*domain.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.flights[id]
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	f = cloneFlight(f)
	return &f, nil
}

func (r *MemoryFlightRepository) List(_ context.Context) ([]domain.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	flights := make([]domain.Flight, 0, len(r.flights))
	for _, f := range r.flights {
		flights = append(flights, cloneFlight(f))
	}
	slices.SortFunc(flights, func(a, b domain.Flight) int {
		return a.DepartureTime.Compare(b.DepartureTime)
	})
	return flights, nil
}

func (r *MemoryFlightRepository) Update(_ context.Context, flight *domain.Flight) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.flights[flight.ID]
	if !ok {
		return domain.ErrFlightNotFound
	}
	updated := cloneFlight(*flight)
	// Seat occupancy is owned by OccupySeat/FreeSeat.
	updated.OccupiedSeats = current.OccupiedSeats
	r.flights[flight.ID] = updated
	return nil
}

func (r *MemoryFlightRepository) OccupySeat(_ context.Context, flightID, seat string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.flights[flightID]
	if !ok {
		return domain.ErrFlightNotFound
	}
	if slices.Contains(f.OccupiedSeats, seat) {
		return domain.ErrSeatAlreadyBooked
	}
	f.OccupiedSeats = append(slices.Clone(f.OccupiedSeats), seat)
	r.flights[flightID] = f
	return nil
}

func (r *MemoryFlightRepository) FreeSeat(_ context.Context, flightID, seat string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.flights[flightID]
	if !ok {
		return domain.ErrFlightNotFound
	}
	f.OccupiedSeats = slices.DeleteFunc(slices.Clone(f.OccupiedSeats), func(s string) bool { return s == seat })
	r.flights[flightID] = f
	return nil
}

func (r *MemoryFlightRepository) AppendLog(_ context.Context, entry domain.FlightLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[entry.FlightID] = append(r.logs[entry.FlightID], entry)
	return nil
}

func (r *MemoryFlightRepository) Logs(_ context.Context, flightID string) ([]domain.FlightLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.logs[flightID]), nil
}

func cloneFlight(f domain.Flight) domain.Flight {
	f.OccupiedSeats = slices.Clone(f.OccupiedSeats)
	if f.Crew != nil {
		crew := *f.Crew
		crew.CabinCrew = slices.Clone(crew.CabinCrew)
		f.Crew = &crew
	}
	return f
}

var _ FlightRepository = (*MemoryFlightRepository)(nil)
