package booking

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"regexp"
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
	DefaultMinHold            = time.Minute
	DefaultMaxHold            = 15 * time.Minute
	DefaultCancellationWindow = 24 * time.Hour

	// expiry callbacks outlive the request that armed them
	expiryTimeout = 10 * time.Second
)

type BookingUseCase interface {
	HoldSeat(ctx context.Context, input HoldInput) (*domain.SeatHold, error)
	ReleaseSeat(ctx context.Context, flightID, seat, principalID string) (bool, error)
	ConfirmBooking(ctx context.Context, input ConfirmInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID, principalID string) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID string, principal domain.Principal) (*domain.Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) (*BookingPage, error)
	Receipt(ctx context.Context, bookingID, principalID string) (*Receipt, error)
	SweepExpiredHolds(ctx context.Context) (int, error)
}

// EntitlementChecker answers whether a principal may book business class.
type EntitlementChecker interface {
	VerifyEntitlement(ctx context.Context, principalID string) (bool, error)
}

type EntitlementFunc func(ctx context.Context, principalID string) (bool, error)

func (f EntitlementFunc) VerifyEntitlement(ctx context.Context, principalID string) (bool, error) {
	return f(ctx, principalID)
}

type FlightCache interface {
	InvalidateFlights(ctx context.Context) error
}

type HoldInput struct {
	FlightID    string
	SeatNumber  string
	PrincipalID string
	Duration    time.Duration
}

type ConfirmInput struct {
	FlightID    string
	SeatNumber  string
	PrincipalID string
	FareClass   domain.FareClass
	Passenger   domain.Passenger
}

type BookingFilter struct {
	PrincipalID string
	Status      domain.BookingStatus
	From        time.Time
	To          time.Time
	Page        int
	Limit       int
}

type Pagination struct {
	Page          int `json:"page"`
	Limit         int `json:"limit"`
	TotalBookings int `json:"totalBookings"`
	TotalPages    int `json:"totalPages"`
}

type BookingPage struct {
	Bookings   []domain.Booking `json:"bookings"`
	Pagination Pagination       `json:"pagination"`
}

type Receipt struct {
	BookingID        string               `json:"bookingId"`
	ConfirmationCode string               `json:"confirmationCode"`
	FlightNumber     string               `json:"flightNumber"`
	Passenger        string               `json:"passenger"`
	SeatNumber       string               `json:"seatNumber"`
	SeatClass        domain.FareClass     `json:"seatClass"`
	Price            int64                `json:"price"`
	BookingDate      time.Time            `json:"bookingDate"`
	Status           domain.BookingStatus `json:"status"`
	QRCode           string               `json:"qrCode"`
}

type armedTimer struct {
	holdID string
	timer  clock.Timer
}

// BookingService mediates exclusive, time-bounded access to seats. Every
// check-then-act on a seat runs under that seat's lock; the stores add
// their own atomic guarantees for multi-instance deployments.
type BookingService struct {
	flights      repository.FlightRepository
	bookings     repository.BookingRepository
	holds        repository.SeatHoldStore
	entitlements EntitlementChecker
	publisher    events.Publisher
	flightCache  FlightCache
	clock        clock.Clock
	logger       *slog.Logger

	minHold            time.Duration
	maxHold            time.Duration
	cancellationWindow time.Duration

	locks    *seatLocks
	timersMu sync.Mutex
	timers   map[string]armedTimer
}

type BookingServiceOption func(*BookingService)

func WithClock(clk clock.Clock) BookingServiceOption {
	return func(s *BookingService) { s.clock = clk }
}

func WithLogger(logger *slog.Logger) BookingServiceOption {
	return func(s *BookingService) { s.logger = logger }
}

func WithPublisher(p events.Publisher) BookingServiceOption {
	return func(s *BookingService) { s.publisher = p }
}

func WithFlightCache(c FlightCache) BookingServiceOption {
	return func(s *BookingService) { s.flightCache = c }
}

func WithHoldBounds(minHold, maxHold time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.minHold = minHold
		s.maxHold = maxHold
	}
}

func WithCancellationWindow(d time.Duration) BookingServiceOption {
	return func(s *BookingService) { s.cancellationWindow = d }
}

func NewBookingService(
	flights repository.FlightRepository,
	bookings repository.BookingRepository,
	holds repository.SeatHoldStore,
	entitlements EntitlementChecker,
	opts ...BookingServiceOption,
) *BookingService {
	s := &BookingService{
		flights:            flights,
		bookings:           bookings,
		holds:              holds,
		entitlements:       entitlements,
		publisher:          events.Discard,
		clock:              clock.Real(),
		logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
		minHold:            DefaultMinHold,
		maxHold:            DefaultMaxHold,
		cancellationWindow: DefaultCancellationWindow,
		locks:              newSeatLocks(),
		timers:             make(map[string]armedTimer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookingService) HoldSeat(ctx context.Context, input HoldInput) (*domain.SeatHold, error) {
	if input.FlightID == "" || input.PrincipalID == "" {
		return nil, domain.Validation("flightId and principal are required")
	}
	if input.Duration < s.minHold || input.Duration > s.maxHold {
		return nil, domain.Validation("hold duration must be between %s and %s", s.minHold, s.maxHold)
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	if _, err := seatCabin(flight, input.SeatNumber); err != nil {
		return nil, err
	}
	if !flight.Status.Bookable() {
		return nil, domain.ErrFlightNotBookable
	}

	unlock := s.locks.lock(domain.SeatHoldKey(input.FlightID, input.SeatNumber))
	defer unlock()

	if err := s.ensureNotBooked(ctx, input.FlightID, input.SeatNumber); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	hold := domain.SeatHold{
		HoldID:      uuid.NewString(),
		FlightID:    input.FlightID,
		SeatNumber:  input.SeatNumber,
		PrincipalID: input.PrincipalID,
		ExpiresAt:   now.Add(input.Duration),
		CreatedAt:   now,
	}
	if err := s.holds.Create(ctx, hold); err != nil {
		return nil, err
	}
	s.arm(hold)

	s.logger.Info("seat held", "flight_id", hold.FlightID, "seat", hold.SeatNumber,
		"principal_id", hold.PrincipalID, "expires_at", hold.ExpiresAt)
	return &hold, nil
}

// ReleaseSeat drops the caller's hold. Releasing a seat the caller does not
// hold is a no-op and reports false.
func (s *BookingService) ReleaseSeat(ctx context.Context, flightID, seat, principalID string) (bool, error) {
	if _, _, err := domain.ParseSeat(seat); err != nil {
		return false, err
	}
	unlock := s.locks.lock(domain.SeatHoldKey(flightID, seat))
	defer unlock()

	hold, err := s.holds.Get(ctx, flightID, seat)
	if errors.Is(err, domain.ErrHoldNotFoundOrExpired) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if hold.PrincipalID != principalID {
		return false, nil
	}

	if _, err := s.holds.Delete(ctx, flightID, seat, hold.HoldID); err != nil {
		return false, err
	}
	s.disarm(hold.Key(), hold.HoldID)
	return true, nil
}

func (s *BookingService) ConfirmBooking(ctx context.Context, input ConfirmInput) (*domain.Booking, error) {
	if err := validateConfirm(input); err != nil {
		return nil, err
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	cabin, err := seatCabin(flight, input.SeatNumber)
	if err != nil {
		return nil, err
	}
	if cabin != input.FareClass {
		return nil, domain.Validation("seat %s is in the %s cabin", input.SeatNumber, cabin)
	}

	unlock := s.locks.lock(domain.SeatHoldKey(input.FlightID, input.SeatNumber))
	defer unlock()

	hold, err := s.holds.Get(ctx, input.FlightID, input.SeatNumber)
	if err != nil {
		return nil, err
	}
	if hold.PrincipalID != input.PrincipalID {
		return nil, domain.ErrHoldNotFoundOrExpired
	}

	if input.FareClass == domain.FareBusiness {
		entitled, err := s.entitlements.VerifyEntitlement(ctx, input.PrincipalID)
		if err != nil {
			return nil, fmt.Errorf("verify entitlement: %w", err)
		}
		if !entitled {
			return nil, domain.ErrEntitlementRequired
		}
		// the remote check may have outlasted the hold
		if hold.Expired(s.clock.Now()) {
			return nil, domain.ErrHoldNotFoundOrExpired
		}
	}

	code, err := domain.NewConfirmationCode()
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	price := flight.Price.Economy
	if input.FareClass == domain.FareBusiness {
		price = flight.Price.Business
	}
	booking := &domain.Booking{
		ID:               uuid.NewString(),
		PrincipalID:      input.PrincipalID,
		FlightID:         flight.ID,
		FlightNumber:     flight.FlightNumber,
		SeatNumber:       input.SeatNumber,
		FareClass:        input.FareClass,
		Passenger:        input.Passenger,
		PriceCents:       price,
		ConfirmationCode: code,
		Status:           domain.BookingConfirmed,
		DepartureTime:    flight.DepartureTime,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrSeatAlreadyBooked) {
			s.dropHold(ctx, hold)
		}
		return nil, err
	}
	s.dropHold(ctx, hold)

	if err := s.flights.OccupySeat(ctx, flight.ID, booking.SeatNumber); err != nil {
		s.logger.Warn("failed to mark seat occupied", "flight_id", flight.ID, "seat", booking.SeatNumber,
			"booking_id", booking.ID, "error", err)
	}
	s.invalidateFlights(ctx)

	s.publish(ctx, events.Event{
		Type:        events.BookingCreated,
		FlightID:    booking.FlightID,
		SeatNumber:  booking.SeatNumber,
		SeatClass:   string(booking.FareClass),
		BookingID:   booking.ID,
		PrincipalID: booking.PrincipalID,
		Data: map[string]any{
			"flightNumber":     booking.FlightNumber,
			"confirmationCode": booking.ConfirmationCode,
			"email":            booking.Passenger.Email,
		},
		OccurredAt: now,
	})
	return booking, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, bookingID, principalID string) (*domain.Booking, error) {
	// the seat key is only known after a first read; every check runs on a
	// second read under the seat lock
	located, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.lock(located.Key())
	defer unlock()

	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current.PrincipalID != principalID {
		return nil, domain.ErrNotOwner
	}
	if current.Status != domain.BookingConfirmed {
		return nil, domain.ErrBookingNotActive
	}

	now := s.clock.Now()
	if current.DepartureTime.Sub(now) < s.cancellationWindow {
		return nil, domain.ErrCancellationWindowClosed
	}

	cancelled, err := s.bookings.Cancel(ctx, bookingID, now)
	if err != nil {
		return nil, err
	}
	if err := s.flights.FreeSeat(ctx, cancelled.FlightID, cancelled.SeatNumber); err != nil {
		s.logger.Warn("failed to free seat", "flight_id", cancelled.FlightID, "seat", cancelled.SeatNumber,
			"booking_id", cancelled.ID, "error", err)
	}
	s.invalidateFlights(ctx)

	s.publish(ctx, events.Event{
		Type:        events.BookingCancelled,
		FlightID:    cancelled.FlightID,
		SeatNumber:  cancelled.SeatNumber,
		SeatClass:   string(cancelled.FareClass),
		BookingID:   cancelled.ID,
		PrincipalID: cancelled.PrincipalID,
		Data: map[string]any{
			"flightNumber": cancelled.FlightNumber,
			"email":        cancelled.Passenger.Email,
		},
		OccurredAt: now,
	})
	return cancelled, nil
}

// GetBooking returns a booking to its owner or to staff.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string, principal domain.Principal) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.PrincipalID != principal.ID && !principal.IsStaff() {
		return nil, domain.ErrNotOwner
	}
	return b, nil
}

func (s *BookingService) ListBookings(ctx context.Context, filter BookingFilter) (*BookingPage, error) {
	if filter.PrincipalID == "" {
		return nil, domain.Validation("userId is required")
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Limit == 0 {
		filter.Limit = 10
	}
	if filter.Page < 1 || filter.Limit < 1 || filter.Limit > 100 {
		return nil, domain.Validation("page must be >= 1 and limit within 1..100")
	}
	if filter.Status != "" && filter.Status != domain.BookingConfirmed && filter.Status != domain.BookingCancelled {
		return nil, domain.Validation("unknown booking status %q", filter.Status)
	}

	all, err := s.bookings.ListByPrincipal(ctx, filter.PrincipalID)
	if err != nil {
		return nil, err
	}

	matched := make([]domain.Booking, 0, len(all))
	for _, b := range all {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && b.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && b.CreatedAt.After(filter.To) {
			continue
		}
		matched = append(matched, b)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	page := &BookingPage{
		Bookings: []domain.Booking{},
		Pagination: Pagination{
			Page:          filter.Page,
			Limit:         filter.Limit,
			TotalBookings: len(matched),
			TotalPages:    (len(matched) + filter.Limit - 1) / filter.Limit,
		},
	}
	offset := (filter.Page - 1) * filter.Limit
	if offset < len(matched) {
		page.Bookings = matched[offset:min(offset+filter.Limit, len(matched))]
	}
	return page, nil
}

func (s *BookingService) Receipt(ctx context.Context, bookingID, principalID string) (*Receipt, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.PrincipalID != principalID {
		return nil, domain.ErrNotOwner
	}

	payload, err := json.Marshal(map[string]string{
		"confirmationCode": b.ConfirmationCode,
		"flightNumber":     b.FlightNumber,
		"seatNumber":       b.SeatNumber,
	})
	if err != nil {
		return nil, err
	}
	return &Receipt{
		BookingID:        b.ID,
		ConfirmationCode: b.ConfirmationCode,
		FlightNumber:     b.FlightNumber,
		Passenger:        b.Passenger.Name,
		SeatNumber:       b.SeatNumber,
		SeatClass:        b.FareClass,
		Price:            b.PriceCents,
		BookingDate:      b.CreatedAt,
		Status:           b.Status,
		QRCode:           "data:application/json;base64," + base64.StdEncoding.EncodeToString(payload),
	}, nil
}

// SweepExpiredHolds removes holds whose expiry passed without a local timer
// removing them, such as holds armed by another instance sharing the store.
func (s *BookingService) SweepExpiredHolds(ctx context.Context) (int, error) {
	now := s.clock.Now()
	expired, err := s.holds.Expired(ctx, now)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, hold := range expired {
		if s.removeExpired(ctx, hold) {
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("swept expired holds", "count", removed)
	}
	return removed, nil
}

// RunSweeper calls SweepExpiredHolds every interval until ctx is done.
func (s *BookingService) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			if _, err := s.SweepExpiredHolds(ctx); err != nil {
				s.logger.Warn("hold sweep failed", "error", err)
			}
		}
	}
}

// Close stops every armed expiry timer. Holds stay in the store.
func (s *BookingService) Close() {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	for key, t := range s.timers {
		t.timer.Stop()
		delete(s.timers, key)
	}
}

func (s *BookingService) arm(hold domain.SeatHold) {
	t := s.clock.AfterFunc(hold.ExpiresAt.Sub(s.clock.Now()), func() { s.expire(hold) })

	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if prev, ok := s.timers[hold.Key()]; ok {
		prev.timer.Stop()
	}
	s.timers[hold.Key()] = armedTimer{holdID: hold.HoldID, timer: t}
}

// disarm stops the timer armed for holdID, leaving a newer hold's timer alone.
func (s *BookingService) disarm(key, holdID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if t, ok := s.timers[key]; ok && t.holdID == holdID {
		t.timer.Stop()
		delete(s.timers, key)
	}
}

func (s *BookingService) expire(hold domain.SeatHold) {
	ctx, cancel := context.WithTimeout(context.Background(), expiryTimeout)
	defer cancel()

	unlock := s.locks.lock(hold.Key())
	defer unlock()
	s.removeExpired(ctx, hold)
}

// removeExpired must be called with the seat lock held.
func (s *BookingService) removeExpired(ctx context.Context, hold domain.SeatHold) bool {
	s.disarm(hold.Key(), hold.HoldID)

	deleted, err := s.holds.Delete(ctx, hold.FlightID, hold.SeatNumber, hold.HoldID)
	if err != nil {
		s.logger.Warn("failed to remove expired hold", "flight_id", hold.FlightID, "seat", hold.SeatNumber, "error", err)
		return false
	}
	if !deleted {
		return false
	}

	s.publish(ctx, events.Event{
		Type:        events.SeatHoldExpired,
		FlightID:    hold.FlightID,
		SeatNumber:  hold.SeatNumber,
		PrincipalID: hold.PrincipalID,
		OccurredAt:  s.clock.Now(),
	})
	return true
}

func (s *BookingService) dropHold(ctx context.Context, hold *domain.SeatHold) {
	if _, err := s.holds.Delete(ctx, hold.FlightID, hold.SeatNumber, hold.HoldID); err != nil {
		s.logger.Warn("failed to delete hold", "flight_id", hold.FlightID, "seat", hold.SeatNumber, "error", err)
	}
	s.disarm(hold.Key(), hold.HoldID)
}

func (s *BookingService) ensureNotBooked(ctx context.Context, flightID, seat string) error {
	_, err := s.bookings.FindConfirmed(ctx, flightID, seat)
	switch {
	case err == nil:
		return domain.ErrSeatAlreadyBooked
	case errors.Is(err, domain.ErrBookingNotFound):
		return nil
	default:
		return err
	}
}

func (s *BookingService) invalidateFlights(ctx context.Context) {
	if s.flightCache == nil {
		return
	}
	if err := s.flightCache.InvalidateFlights(ctx); err != nil {
		s.logger.Warn("failed to invalidate flights cache", "error", err)
	}
}

func (s *BookingService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish event", "type", e.Type, "flight_id", e.FlightID,
			"seat", e.SeatNumber, "booking_id", e.BookingID, "error", err)
	}
}

func seatCabin(flight *domain.Flight, seat string) (domain.FareClass, error) {
	aircraft, ok := domain.LookupAircraft(flight.Aircraft)
	if !ok {
		return "", domain.Validation("flight %s has unknown aircraft %q", flight.ID, flight.Aircraft)
	}
	return aircraft.Cabin(seat)
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

func validateConfirm(input ConfirmInput) error {
	if input.FlightID == "" || input.PrincipalID == "" {
		return domain.Validation("flightId and principal are required")
	}
	if !input.FareClass.Valid() {
		return domain.Validation("seatClass must be economy or business")
	}
	if strings.TrimSpace(input.Passenger.Name) == "" {
		return domain.Validation("passengerName is required")
	}
	if _, err := mail.ParseAddress(input.Passenger.Email); err != nil {
		return domain.Validation("passengerEmail is invalid")
	}
	if input.Passenger.Phone != "" && !phonePattern.MatchString(input.Passenger.Phone) {
		return domain.Validation("passengerPhone is invalid")
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
