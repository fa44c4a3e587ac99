package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/indigoair/indigo/internal/domain"
)

type MemoryPilotRepository struct {
	mu       sync.RWMutex
	stats    map[string]domain.PilotStats
	logs     map[string][]domain.PilotLogEntry
	requests map[string]domain.RankUpRequest
}

func NewMemoryPilotRepository() *MemoryPilotRepository {
	return &MemoryPilotRepository{
		stats:    make(map[string]domain.PilotStats),
		logs:     make(map[string][]domain.PilotLogEntry),
		requests: make(map[string]domain.RankUpRequest),
	}
}

func (r *MemoryPilotRepository) GetStats(_ context.Context, pilotID string) (*domain.PilotStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stats[pilotID]
	if !ok {
		return nil, domain.ErrPilotNotFound
	}
	return &s, nil
}

func (r *MemoryPilotRepository) SaveStats(_ context.Context, stats domain.PilotStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[stats.PilotID] = stats
	return nil
}

func (r *MemoryPilotRepository) AppendLog(_ context.Context, entry domain.PilotLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[entry.PilotID] = append(r.logs[entry.PilotID], entry)
	return nil
}

func (r *MemoryPilotRepository) Logs(_ context.Context, pilotID string) ([]domain.PilotLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.logs[pilotID]), nil
}

func (r *MemoryPilotRepository) CreateRankRequest(_ context.Context, req domain.RankUpRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = req
	return nil
}

func (r *MemoryPilotRepository) GetRankRequest(_ context.Context, id string) (*domain.RankUpRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrRankRequestNotFound
	}
	return &req, nil
}

func (r *MemoryPilotRepository) PendingRankRequest(_ context.Context, pilotID string) (*domain.RankUpRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, req := range r.requests {
		if req.PilotID == pilotID && req.Status == domain.RankRequestPending {
			return &req, nil
		}
	}
	return nil, domain.ErrRankRequestNotFound
}

func (r *MemoryPilotRepository) UpdateRankRequest(_ context.Context, req domain.RankUpRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.requests[req.ID]; !ok {
		return domain.ErrRankRequestNotFound
	}
	r.requests[req.ID] = req
	return nil
}

var _ PilotRepository = (*MemoryPilotRepository)(nil)
