package api

import (
	"context"

	"github.com/indigoair/indigo/internal/auth"
	"github.com/indigoair/indigo/internal/domain"
	"github.com/indigoair/indigo/internal/service/booking"
	"github.com/indigoair/indigo/internal/service/flights"
	"github.com/stretchr/testify/mock"
)

type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) List(ctx context.Context, filter flights.FlightFilter) (*flights.FlightPage, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flights.FlightPage), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Create(ctx context.Context, input flights.CreateFlightInput, createdBy string) (*domain.Flight, *domain.FlightSchedule, error) {
	args := m.Called(ctx, input, createdBy)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Flight), args.Get(1).(*domain.FlightSchedule), args.Error(2)
}

func (m *MockFlightUseCase) UpdateStatus(ctx context.Context, id string, status domain.FlightStatus, reason, updatedBy string) (*domain.Flight, error) {
	args := m.Called(ctx, id, status, reason, updatedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) AssignCrew(ctx context.Context, id string, crew domain.Crew, assignedBy string) (*domain.Flight, error) {
	args := m.Called(ctx, id, crew, assignedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Logs(ctx context.Context, id string) ([]domain.FlightLogEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlightLogEntry), args.Error(1)
}

func (m *MockFlightUseCase) Schedule(ctx context.Context, id string) (*domain.FlightSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightSchedule), args.Error(1)
}

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) HoldSeat(ctx context.Context, input booking.HoldInput) (*domain.SeatHold, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeatHold), args.Error(1)
}

func (m *MockBookingUseCase) ReleaseSeat(ctx context.Context, flightID, seat, principalID string) (bool, error) {
	args := m.Called(ctx, flightID, seat, principalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingUseCase) ConfirmBooking(ctx context.Context, input booking.ConfirmInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, bookingID, principalID string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, bookingID string, p domain.Principal) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListBookings(ctx context.Context, filter booking.BookingFilter) (*booking.BookingPage, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.BookingPage), args.Error(1)
}

func (m *MockBookingUseCase) Receipt(ctx context.Context, bookingID, principalID string) (*booking.Receipt, error) {
	args := m.Called(ctx, bookingID, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Receipt), args.Error(1)
}

func (m *MockBookingUseCase) SweepExpiredHolds(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, token string) (*auth.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

type MockGamepass struct {
	mock.Mock
}

func (m *MockGamepass) OwnsGamepass(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}
