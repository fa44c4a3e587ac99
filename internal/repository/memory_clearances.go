package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/indigoair/indigo/internal/domain"
)

// MemoryClearanceRepository is append-only per flight.
type MemoryClearanceRepository struct {
	mu       sync.RWMutex
	byFlight map[string][]domain.Clearance
}

func NewMemoryClearanceRepository() *MemoryClearanceRepository {
	return &MemoryClearanceRepository{byFlight: make(map[string][]domain.Clearance)}
}

func (r *MemoryClearanceRepository) Append(_ context.Context, c domain.Clearance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byFlight[c.FlightID] = append(r.byFlight[c.FlightID], c)
	return nil
}

func (r *MemoryClearanceRepository) Last(_ context.Context, flightID string) (*domain.Clearance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byFlight[flightID]
	if len(list) == 0 {
		return nil, nil
	}
	last := list[len(list)-1]
	return &last, nil
}

func (r *MemoryClearanceRepository) ListByFlight(_ context.Context, flightID string) ([]domain.Clearance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.byFlight[flightID]), nil
}

func (r *MemoryClearanceRepository) All(_ context.Context) ([]domain.Clearance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Clearance
	for _, list := range r.byFlight {
		out = append(out, list...)
	}
	return out, nil
}

var _ ClearanceRepository = (*MemoryClearanceRepository)(nil)
