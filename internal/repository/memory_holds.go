package repository

import (
	"context"
	"sync"
	"time"

	"github.com/indigoair/indigo/internal/clock"
	"github.com/indigoair/indigo/internal/domain"
)

// MemorySeatHoldStore keeps holds in process. An expired hold that has not
// been removed yet is treated as absent and may be replaced.
type MemorySeatHoldStore struct {
	mu    sync.Mutex
	clock clock.Clock
	holds map[string]domain.SeatHold
}

func NewMemorySeatHoldStore(clk clock.Clock) *MemorySeatHoldStore {
	return &MemorySeatHoldStore{clock: clk, holds: make(map[string]domain.SeatHold)}
}

func (s *MemorySeatHoldStore) Create(_ context.Context, hold domain.SeatHold) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.holds[hold.Key()]; ok && !existing.Expired(s.clock.Now()) {
		return domain.ErrSeatAlreadyHeld
	}
	s.holds[hold.Key()] = hold
	return nil
}

func (s *MemorySeatHoldStore) Get(_ context.Context, flightID, seat string) (*domain.SeatHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hold, ok := s.holds[domain.SeatHoldKey(flightID, seat)]
	if !ok || hold.Expired(s.clock.Now()) {
		return nil, domain.ErrHoldNotFoundOrExpired
	}
	return &hold, nil
}

func (s *MemorySeatHoldStore) Delete(_ context.Context, flightID, seat, holdID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.SeatHoldKey(flightID, seat)
	hold, ok := s.holds[key]
	if !ok || hold.HoldID != holdID {
		return false, nil
	}
	delete(s.holds, key)
	return true, nil
}

func (s *MemorySeatHoldStore) Expired(_ context.Context, now time.Time) ([]domain.SeatHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.SeatHold
	for _, h := range s.holds {
		if h.Expired(now) {
			out = append(out, h)
		}
	}
	return out, nil
}

var _ SeatHoldStore = (*MemorySeatHoldStore)(nil)
