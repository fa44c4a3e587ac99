package atc

import (
	"context"
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

const clearanceIssued = "issued"

type ATCUseCase interface {
	Issue(ctx context.Context, input IssueInput) (*domain.Clearance, error)
	History(ctx context.Context, flightID string) ([]domain.Clearance, error)
	Stats(ctx context.Context) (*Stats, error)
	IssueDelay(ctx context.Context, input DelayInput) (*domain.Flight, error)
}

// StatusUpdater is the flight directory operation delays go through, so the
// transition table and flight log apply to them too.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, status domain.FlightStatus, reason, updatedBy string) (*domain.Flight, error)
}

type IssueInput struct {
	FlightID string
	Type     domain.ClearanceType
	Message  string
	Runway   string
	ATCID    string
}

type DelayInput struct {
	FlightID string
	Reason   string
	Minutes  int
	ATCID    string
}

type Stats struct {
	TotalClearances  int                          `json:"totalClearances"`
	ActiveFlights    int                          `json:"activeFlights"`
	DelayedFlights   int                          `json:"delayedFlights"`
	ClearancesByType map[domain.ClearanceType]int `json:"clearancesByType"`
}

type ATCService struct {
	clearances repository.ClearanceRepository
	flights    repository.FlightRepository
	status     StatusUpdater
	publisher  events.Publisher
	clock      clock.Clock
	logger     *slog.Logger

	// guards the last-clearance check and the append that follows it
	mu sync.Mutex
}

type ATCServiceOption func(*ATCService)

func WithClock(clk clock.Clock) ATCServiceOption {
	return func(s *ATCService) { s.clock = clk }
}

func WithLogger(logger *slog.Logger) ATCServiceOption {
	return func(s *ATCService) { s.logger = logger }
}

func WithPublisher(p events.Publisher) ATCServiceOption {
	return func(s *ATCService) { s.publisher = p }
}

func NewATCService(clearances repository.ClearanceRepository, flights repository.FlightRepository, status StatusUpdater, opts ...ATCServiceOption) *ATCService {
	s := &ATCService{
		clearances: clearances,
		flights:    flights,
		status:     status,
		publisher:  events.Discard,
		clock:      clock.Real(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ATCService) Issue(ctx context.Context, input IssueInput) (*domain.Clearance, error) {
	if input.ATCID == "" {
		return nil, domain.Validation("atcId is required")
	}
	if !input.Type.Valid() {
		return nil, domain.Validation("unknown clearance type %q", input.Type)
	}
	if _, err := s.flights.GetByID(ctx, input.FlightID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	last, err := s.clearances.Last(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	var previous domain.ClearanceType
	if last != nil {
		previous = last.Type
	}
	if !input.Type.CanFollow(previous) {
		return nil, fmt.Errorf("%w: %s cannot follow %q", domain.ErrInvalidClearanceSequence, input.Type, previous)
	}

	clearance := domain.Clearance{
		ID:        uuid.NewString(),
		FlightID:  input.FlightID,
		Type:      input.Type,
		Message:   strings.TrimSpace(input.Message),
		Runway:    strings.ToUpper(strings.TrimSpace(input.Runway)),
		IssuedBy:  input.ATCID,
		Status:    clearanceIssued,
		Timestamp: s.clock.Now(),
	}
	if err := s.clearances.Append(ctx, clearance); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:        events.ClearanceIssued,
		FlightID:    clearance.FlightID,
		PrincipalID: clearance.IssuedBy,
		Data:        map[string]any{"clearanceType": clearance.Type, "message": clearance.Message, "runway": clearance.Runway},
		OccurredAt:  clearance.Timestamp,
	})
	return &clearance, nil
}

// History returns the clearances of a flight, newest first.
func (s *ATCService) History(ctx context.Context, flightID string) ([]domain.Clearance, error) {
	list, err := s.clearances.ListByFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}
	slices.Reverse(list)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.After(list[j].Timestamp) })
	if list == nil {
		list = []domain.Clearance{}
	}
	return list, nil
}

func (s *ATCService) Stats(ctx context.Context) (*Stats, error) {
	all, err := s.clearances.All(ctx)
	if err != nil {
		return nil, err
	}
	flights, err := s.flights.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalClearances: len(all), ClearancesByType: make(map[domain.ClearanceType]int)}
	for _, c := range all {
		stats.ClearancesByType[c.Type]++
	}
	for _, f := range flights {
		switch f.Status {
		case domain.FlightDelayed:
			stats.DelayedFlights++
			stats.ActiveFlights++
		case domain.FlightBoarding, domain.FlightDeparted:
			stats.ActiveFlights++
		}
	}
	return stats, nil
}

func (s *ATCService) IssueDelay(ctx context.Context, input DelayInput) (*domain.Flight, error) {
	if input.ATCID == "" {
		return nil, domain.Validation("atcId is required")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, domain.Validation("reason is required")
	}
	if input.Minutes < 1 || input.Minutes > 24*60 {
		return nil, domain.Validation("duration must be between 1 and 1440 minutes")
	}

	reason := fmt.Sprintf("%s (%d min)", strings.TrimSpace(input.Reason), input.Minutes)
	flight, err := s.status.UpdateStatus(ctx, input.FlightID, domain.FlightDelayed, reason, input.ATCID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:        events.FlightDelayed,
		FlightID:    flight.ID,
		PrincipalID: input.ATCID,
		Data:        map[string]any{"reason": input.Reason, "duration": input.Minutes},
		OccurredAt:  s.clock.Now(),
	})
	s.logger.Info("flight delayed", "flight_id", flight.ID, "minutes", input.Minutes, "atc_id", input.ATCID)
	return flight, nil
}

func (s *ATCService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish event", "type", e.Type, "flight_id", e.FlightID, "error", err)
	}
}

var _ ATCUseCase = (*ATCService)(nil)
