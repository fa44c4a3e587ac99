package pilot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/indigoair/indigo/internal/clock"
	"github.com/indigoair/indigo/internal/domain"
	"github.com/indigoair/indigo/internal/events"
	"github.com/indigoair/indigo/internal/repository"
)

type PilotUseCase interface {
	AddLog(ctx context.Context, input LogInput) (*domain.PilotLogEntry, error)
	Profile(ctx context.Context, pilotID string) (*domain.PilotStats, error)
	Logs(ctx context.Context, pilotID string) ([]domain.PilotLogEntry, error)
	UpcomingFlights(ctx context.Context, pilotID string) ([]Assignment, error)
	RequestRankUp(ctx context.Context, pilotID string) (*domain.RankUpRequest, error)
	DecideRankUp(ctx context.Context, requestID string, approve bool, decidedBy string) (*domain.RankUpRequest, error)
}

type LogInput struct {
	PilotID      string
	FlightNumber string
	Route        string
	Aircraft     string
	Miles        float64
	Hours        float64
	Remarks      string
}

// Assignment is a flight the pilot is rostered on.
type Assignment struct {
	FlightID     string `json:"id"`
	FlightNumber string `json:"flightNumber"`
	Route        string `json:"route"`
	Aircraft     string `json:"aircraft"`
	Departure    string `json:"departure"`
	Role         string `json:"role"`
	Status       string `json:"status"`
}

type PilotService struct {
	pilots    repository.PilotRepository
	flights   repository.FlightRepository
	publisher events.Publisher
	clock     clock.Clock
	logger    *slog.Logger

	// serializes read-modify-write of stats and rank requests
	mu sync.Mutex
}

type PilotServiceOption func(*PilotService)

func WithClock(clk clock.Clock) PilotServiceOption {
	return func(s *PilotService) { s.clock = clk }
}

func WithLogger(logger *slog.Logger) PilotServiceOption {
	return func(s *PilotService) { s.logger = logger }
}

func WithPublisher(p events.Publisher) PilotServiceOption {
	return func(s *PilotService) { s.publisher = p }
}

func NewPilotService(pilots repository.PilotRepository, flights repository.FlightRepository, opts ...PilotServiceOption) *PilotService {
	s := &PilotService{
		pilots:    pilots,
		flights:   flights,
		publisher: events.Discard,
		clock:     clock.Real(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PilotService) AddLog(ctx context.Context, input LogInput) (*domain.PilotLogEntry, error) {
	if input.PilotID == "" {
		return nil, domain.Validation("pilotId is required")
	}
	if strings.TrimSpace(input.FlightNumber) == "" {
		return nil, domain.Validation("flightNumber is required")
	}
	if input.Miles < 0 || input.Hours < 0 {
		return nil, domain.Validation("miles and duration must not be negative")
	}

	entry := domain.PilotLogEntry{
		ID:           uuid.NewString(),
		PilotID:      input.PilotID,
		FlightNumber: strings.ToUpper(strings.TrimSpace(input.FlightNumber)),
		Route:        input.Route,
		Aircraft:     input.Aircraft,
		Miles:        input.Miles,
		Hours:        input.Hours,
		Remarks:      input.Remarks,
		Timestamp:    s.clock.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.stats(ctx, input.PilotID)
	if err != nil {
		return nil, err
	}
	if err := s.pilots.AppendLog(ctx, entry); err != nil {
		return nil, err
	}
	stats.Record(entry)
	stats.UpdatedAt = entry.Timestamp
	if err := s.pilots.SaveStats(ctx, *stats); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Profile returns the pilot's aggregate; pilots without logs get the
// starting rank with zero progress.
func (s *PilotService) Profile(ctx context.Context, pilotID string) (*domain.PilotStats, error) {
	return s.stats(ctx, pilotID)
}

func (s *PilotService) stats(ctx context.Context, pilotID string) (*domain.PilotStats, error) {
	stats, err := s.pilots.GetStats(ctx, pilotID)
	if errors.Is(err, domain.ErrPilotNotFound) {
		fresh := domain.NewPilotStats(pilotID)
		return &fresh, nil
	}
	return stats, err
}

// Logs returns the pilot's entries, newest first.
func (s *PilotService) Logs(ctx context.Context, pilotID string) ([]domain.PilotLogEntry, error) {
	logs, err := s.pilots.Logs(ctx, pilotID)
	if err != nil {
		return nil, err
	}
	slices.Reverse(logs)
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Timestamp.After(logs[j].Timestamp) })
	if logs == nil {
		logs = []domain.PilotLogEntry{}
	}
	return logs, nil
}

// UpcomingFlights lists flights not yet arrived or cancelled where the pilot
// is captain or first officer, by departure.
func (s *PilotService) UpcomingFlights(ctx context.Context, pilotID string) ([]Assignment, error) {
	list, err := s.flights.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []Assignment{}
	for _, f := range list {
		if f.Crew == nil || f.Status == domain.FlightArrived || f.Status == domain.FlightCancelled {
			continue
		}
		var role string
		switch pilotID {
		case f.Crew.Captain:
			role = "Captain"
		case f.Crew.FirstOfficer:
			role = "First Officer"
		default:
			continue
		}
		out = append(out, Assignment{
			FlightID:     f.ID,
			FlightNumber: f.FlightNumber,
			Route:        fmt.Sprintf("%s → %s", f.Origin, f.Destination),
			Aircraft:     f.Aircraft,
			Departure:    f.DepartureTime.Format("2006-01-02T15:04"),
			Role:         role,
			Status:       string(f.Status),
		})
	}
	return out, nil
}

func (s *PilotService) RequestRankUp(ctx context.Context, pilotID string) (*domain.RankUpRequest, error) {
	if pilotID == "" {
		return nil, domain.Validation("pilotId is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.pilots.GetStats(ctx, pilotID)
	if err != nil {
		return nil, err
	}
	next, ok := domain.NextRank(stats.CurrentRank)
	if !ok {
		return nil, domain.ErrTopRank
	}
	if stats.RankProgress < 100 {
		return nil, fmt.Errorf("%w: progress toward %s is %d%%", domain.ErrInsufficientRankProgress, next.Name, stats.RankProgress)
	}
	pending, err := s.pilots.PendingRankRequest(ctx, pilotID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: request %s", domain.ErrRankRequestPending, pending.ID)
	case !errors.Is(err, domain.ErrRankRequestNotFound):
		return nil, err
	}

	req := domain.RankUpRequest{
		ID:          uuid.NewString(),
		PilotID:     pilotID,
		CurrentRank: stats.CurrentRank,
		TargetRank:  next.Name,
		Stats:       *stats,
		Status:      domain.RankRequestPending,
		Timestamp:   s.clock.Now(),
	}
	if err := s.pilots.CreateRankRequest(ctx, req); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:        events.RankUpRequested,
		PrincipalID: pilotID,
		Data:        map[string]any{"requestId": req.ID, "currentRank": req.CurrentRank, "targetRank": req.TargetRank},
		OccurredAt:  req.Timestamp,
	})
	return &req, nil
}

// DecideRankUp settles a pending request. Approval promotes the pilot to the
// requested rank and restarts progress toward the one after it. Approving a
// request filed from a rank the pilot no longer holds closes it as rejected
// and fails with domain.ErrRankRequestStale.
func (s *PilotService) DecideRankUp(ctx context.Context, requestID string, approve bool, decidedBy string) (*domain.RankUpRequest, error) {
	if decidedBy == "" {
		return nil, domain.Validation("decidedBy is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.pilots.GetRankRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RankRequestPending {
		return nil, domain.ErrRankRequestDecided
	}

	now := s.clock.Now()
	req.Status = domain.RankRequestRejected
	req.DecidedBy = decidedBy
	req.DecidedAt = &now

	var stale bool
	if approve {
		stats, err := s.pilots.GetStats(ctx, req.PilotID)
		if err != nil {
			return nil, err
		}
		if stats.CurrentRank != req.CurrentRank {
			stale = true
		} else {
			req.Status = domain.RankRequestApproved
			stats.CurrentRank = req.TargetRank
			stats.Recompute()
			stats.UpdatedAt = now
			if err := s.pilots.SaveStats(ctx, *stats); err != nil {
				return nil, err
			}
		}
	}
	if err := s.pilots.UpdateRankRequest(ctx, *req); err != nil {
		return nil, err
	}
	if stale {
		s.logger.Warn("stale rank up request rejected", "request_id", req.ID, "pilot_id", req.PilotID,
			"requested_from", req.CurrentRank)
		return nil, fmt.Errorf("%w: filed as %s", domain.ErrRankRequestStale, req.CurrentRank)
	}

	s.publish(ctx, events.Event{
		Type:        events.RankUpDecided,
		PrincipalID: req.PilotID,
		Data:        map[string]any{"requestId": req.ID, "status": req.Status, "targetRank": req.TargetRank, "decidedBy": decidedBy},
		OccurredAt:  now,
	})
	s.logger.Info("rank up decided", "request_id", req.ID, "pilot_id", req.PilotID, "status", req.Status)
	return req, nil
}

func (s *PilotService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish event", "type", e.Type, "principal_id", e.PrincipalID, "error", err)
	}
}

var _ PilotUseCase = (*PilotService)(nil)
