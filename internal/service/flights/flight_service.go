package flights

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/indigoair/indigo/internal/clock"
	"github.com/indigoair/indigo/internal/domain"
	"github.com/indigoair/indigo/internal/events"
	"github.com/indigoair/indigo/internal/repository"
)

const (
	logStatusChange = "status_change"
	logCrewAssigned = "crew_assigned"
)

type FlightUseCase interface {
	List(ctx context.Context, filter FlightFilter) (*FlightPage, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	Create(ctx context.Context, input CreateFlightInput, createdBy string) (*domain.Flight, *domain.FlightSchedule, error)
	UpdateStatus(ctx context.Context, id string, status domain.FlightStatus, reason, updatedBy string) (*domain.Flight, error)
	AssignCrew(ctx context.Context, id string, crew domain.Crew, assignedBy string) (*domain.Flight, error)
	Logs(ctx context.Context, id string) ([]domain.FlightLogEntry, error)
	Schedule(ctx context.Context, id string) (*domain.FlightSchedule, error)
}

// FlightCache holds the full flight list. GetFlights returns nil on a miss.
type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type FlightFilter struct {
	Status      domain.FlightStatus
	Origin      string
	Destination string
	Date        time.Time
	Class       domain.FareClass
	Passengers  int
	Page        int
	Limit       int
}

type Pagination struct {
	Page         int `json:"page"`
	Limit        int `json:"limit"`
	TotalFlights int `json:"totalFlights"`
	TotalPages   int `json:"totalPages"`
}

type FlightPage struct {
	Flights    []domain.Flight `json:"flights"`
	Pagination Pagination      `json:"pagination"`
}

type CreateFlightInput struct {
	FlightNumber  string
	Origin        string
	Destination   string
	Aircraft      string
	DepartureTime time.Time
	ArrivalTime   time.Time
	Price         domain.Fares
	Gates         domain.Gates
}

type FlightService struct {
	repo      repository.FlightRepository
	cache     FlightCache
	publisher events.Publisher
	clock     clock.Clock
	logger    *slog.Logger

	// serializes read-modify-write of a flight record
	mu sync.Mutex
}

type FlightServiceOption func(*FlightService)

func WithClock(clk clock.Clock) FlightServiceOption {
	return func(s *FlightService) { s.clock = clk }
}

func WithLogger(logger *slog.Logger) FlightServiceOption {
	return func(s *FlightService) { s.logger = logger }
}

func WithPublisher(p events.Publisher) FlightServiceOption {
	return func(s *FlightService) { s.publisher = p }
}

// NewFlightService accepts a nil cache.
func NewFlightService(repo repository.FlightRepository, cache FlightCache, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{
		repo:      repo,
		cache:     cache,
		publisher: events.Discard,
		clock:     clock.Real(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlightService) List(ctx context.Context, filter FlightFilter) (*FlightPage, error) {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Limit == 0 {
		filter.Limit = 10
	}
	if filter.Page < 1 || filter.Limit < 1 || filter.Limit > 100 {
		return nil, domain.Validation("page must be >= 1 and limit within 1..100")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.Validation("unknown flight status %q", filter.Status)
	}
	if filter.Class != "" && !filter.Class.Valid() {
		return nil, domain.Validation("class must be economy or business")
	}
	if filter.Passengers < 0 || filter.Passengers > 9 {
		return nil, domain.Validation("passengers must be within 1..9")
	}

	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]domain.Flight, 0, len(all))
	for _, f := range all {
		if filter.matches(&f) {
			matched = append(matched, f)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].DepartureTime.Before(matched[j].DepartureTime) })

	page := &FlightPage{
		Flights: []domain.Flight{},
		Pagination: Pagination{
			Page:         filter.Page,
			Limit:        filter.Limit,
			TotalFlights: len(matched),
			TotalPages:   (len(matched) + filter.Limit - 1) / filter.Limit,
		},
	}
	offset := (filter.Page - 1) * filter.Limit
	if offset < len(matched) {
		page.Flights = matched[offset:min(offset+filter.Limit, len(matched))]
	}
	return page, nil
}

func (f FlightFilter) matches(flight *domain.Flight) bool {
	if f.Status != "" && flight.Status != f.Status {
		return false
	}
	if f.Origin != "" && flight.Origin != f.Origin {
		return false
	}
	if f.Destination != "" && flight.Destination != f.Destination {
		return false
	}
	if !f.Date.IsZero() {
		y1, m1, d1 := flight.DepartureTime.UTC().Date()
		y2, m2, d2 := f.Date.UTC().Date()
		if y1 != y2 || m1 != m2 || d1 != d2 {
			return false
		}
	}
	if f.Class != "" {
		need := max(f.Passengers, 1)
		if flight.AvailableSeats(f.Class) < need {
			return false
		}
	}
	return true
}

func (s *FlightService) all(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.logger.Warn("flights cache read failed", "error", err)
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.logger.Warn("flights cache write failed", "error", err)
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

var (
	flightNumberPattern = regexp.MustCompile(`^6E-\d{3,4}$`)
	airportPattern      = regexp.MustCompile(`^[A-Z]{3}$`)
)

func (s *FlightService) Create(ctx context.Context, input CreateFlightInput, createdBy string) (*domain.Flight, *domain.FlightSchedule, error) {
	input.Origin = strings.ToUpper(strings.TrimSpace(input.Origin))
	input.Destination = strings.ToUpper(strings.TrimSpace(input.Destination))

	if !flightNumberPattern.MatchString(input.FlightNumber) {
		return nil, nil, domain.Validation("flightNumber must look like 6E-123")
	}
	if !airportPattern.MatchString(input.Origin) || !airportPattern.MatchString(input.Destination) {
		return nil, nil, domain.Validation("departure and arrival must be 3-letter airport codes")
	}
	if input.Origin == input.Destination {
		return nil, nil, domain.Validation("departure and arrival must differ")
	}
	aircraft, ok := domain.LookupAircraft(input.Aircraft)
	if !ok {
		return nil, nil, domain.Validation("aircraft must be A320 or A330")
	}
	if input.DepartureTime.IsZero() || !input.ArrivalTime.After(input.DepartureTime) {
		return nil, nil, domain.Validation("arrival time must be after departure time")
	}
	if input.Price.Economy <= 0 || input.Price.Business <= 0 {
		return nil, nil, domain.Validation("economy and business prices must be positive")
	}
	if strings.TrimSpace(input.Gates.Departure) == "" || strings.TrimSpace(input.Gates.Arrival) == "" {
		return nil, nil, domain.Validation("departure and arrival gates are required")
	}

	now := s.clock.Now()
	flight := &domain.Flight{
		ID:            uuid.NewString(),
		FlightNumber:  input.FlightNumber,
		Origin:        input.Origin,
		Destination:   input.Destination,
		Aircraft:      aircraft.Code,
		DepartureTime: input.DepartureTime,
		ArrivalTime:   input.ArrivalTime,
		Capacity:      aircraft.Capacity(),
		Price:         input.Price,
		Gates:         input.Gates,
		OccupiedSeats: []string{},
		Status:        domain.FlightScheduled,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, flight); err != nil {
		return nil, nil, err
	}
	s.invalidate(ctx)

	schedule := domain.NewFlightSchedule(flight)
	s.publish(ctx, events.Event{
		Type:        events.FlightCreated,
		FlightID:    flight.ID,
		PrincipalID: createdBy,
		Data:        map[string]any{"flightNumber": flight.FlightNumber},
		OccurredAt:  now,
	})
	s.logger.Info("flight created", "flight_id", flight.ID, "flight_number", flight.FlightNumber, "created_by", createdBy)
	return flight, &schedule, nil
}

func (s *FlightService) UpdateStatus(ctx context.Context, id string, status domain.FlightStatus, reason, updatedBy string) (*domain.Flight, error) {
	if !status.Valid() {
		return nil, domain.Validation("unknown flight status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	flight, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := flight.Status
	if !from.CanTransition(status) {
		return nil, domain.ErrInvalidStatusTransition
	}

	now := s.clock.Now()
	flight.Status = status
	flight.StatusReason = reason
	flight.UpdatedAt = now
	if err := s.repo.Update(ctx, flight); err != nil {
		return nil, err
	}
	s.appendLog(ctx, domain.FlightLogEntry{
		FlightID:  id,
		Type:      logStatusChange,
		From:      from,
		To:        status,
		Reason:    reason,
		UpdatedBy: updatedBy,
		Timestamp: now,
	})
	s.invalidate(ctx)

	s.publish(ctx, events.Event{
		Type:        events.FlightStatusUpdated,
		FlightID:    id,
		PrincipalID: updatedBy,
		Data:        map[string]any{"from": from, "to": status, "reason": reason},
		OccurredAt:  now,
	})
	return flight, nil
}

func (s *FlightService) AssignCrew(ctx context.Context, id string, crew domain.Crew, assignedBy string) (*domain.Flight, error) {
	if strings.TrimSpace(crew.Captain) == "" || strings.TrimSpace(crew.FirstOfficer) == "" {
		return nil, domain.Validation("captain and firstOfficer are required")
	}
	if len(crew.CabinCrew) < 2 || len(crew.CabinCrew) > 6 {
		return nil, domain.Validation("cabinCrew must list 2 to 6 members")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	flight, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	flight.Crew = &crew
	flight.UpdatedAt = now
	if err := s.repo.Update(ctx, flight); err != nil {
		return nil, err
	}
	s.appendLog(ctx, domain.FlightLogEntry{
		FlightID:  id,
		Type:      logCrewAssigned,
		UpdatedBy: assignedBy,
		Timestamp: now,
	})
	s.invalidate(ctx)

	s.publish(ctx, events.Event{
		Type:        events.FlightCrewAssigned,
		FlightID:    id,
		PrincipalID: assignedBy,
		Data:        map[string]any{"crew": crew},
		OccurredAt:  now,
	})
	return flight, nil
}

// Logs returns the audit trail of a flight, newest first.
func (s *FlightService) Logs(ctx context.Context, id string) ([]domain.FlightLogEntry, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	logs, err := s.repo.Logs(ctx, id)
	if err != nil {
		return nil, err
	}
	// stored oldest first; reversing keeps same-instant entries newest first
	slices.Reverse(logs)
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Timestamp.After(logs[j].Timestamp) })
	if logs == nil {
		logs = []domain.FlightLogEntry{}
	}
	return logs, nil
}

func (s *FlightService) Schedule(ctx context.Context, id string) (*domain.FlightSchedule, error) {
	flight, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	schedule := domain.NewFlightSchedule(flight)
	return &schedule, nil
}

func (s *FlightService) appendLog(ctx context.Context, entry domain.FlightLogEntry) {
	entry.ID = uuid.NewString()
	if err := s.repo.AppendLog(ctx, entry); err != nil {
		s.logger.Warn("failed to append flight log", "flight_id", entry.FlightID, "type", entry.Type, "error", err)
	}
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.logger.Warn("failed to invalidate flights cache", "error", err)
	}
}

func (s *FlightService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish event", "type", e.Type, "flight_id", e.FlightID, "error", err)
	}
}

var _ FlightUseCase = (*FlightService)(nil)
