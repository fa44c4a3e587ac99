// Package repository holds the storage ports of the services and their
// adapters. The memory adapters are volatile: everything they hold, holds
// included, is lost when the process exits. The Postgres adapters cover
// flights and bookings; internal/cache provides a Redis SeatHoldStore.
package repository

import (
	"context"
	"time"

	"github.com/indigoair/indigo/internal/domain"
)

type FlightRepository interface {
	Create(ctx context.Context, flight *domain.Flight) error
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	List(ctx context.Context) ([]domain.Flight, error)
	Update(ctx context.Context, flight *domain.Flight) error
	// OccupySeat fails with domain.ErrSeatAlreadyBooked when the seat is
	// already marked occupied.
	OccupySeat(ctx context.Context, flightID, seat string) error
	FreeSeat(ctx context.Context, flightID, seat string) error
	AppendLog(ctx context.Context, entry domain.FlightLogEntry) error
	Logs(ctx context.Context, flightID string) ([]domain.FlightLogEntry, error)
}

type BookingRepository interface {
	// Create fails with domain.ErrSeatAlreadyBooked when a confirmed booking
	// already exists for the same flight and seat.
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	FindConfirmed(ctx context.Context, flightID, seat string) (*domain.Booking, error)
	ListByPrincipal(ctx context.Context, principalID string) ([]domain.Booking, error)
	// Cancel moves a confirmed booking to cancelled and returns it.
	Cancel(ctx context.Context, id string, at time.Time) (*domain.Booking, error)
}

type SeatHoldStore interface {
	// Create fails with domain.ErrSeatAlreadyHeld when an unexpired hold
	// exists for the seat.
	Create(ctx context.Context, hold domain.SeatHold) error
	// Get fails with domain.ErrHoldNotFoundOrExpired when there is no
	// unexpired hold for the seat.
	Get(ctx context.Context, flightID, seat string) (*domain.SeatHold, error)
	// Delete removes the hold only if it is still the hold identified by
	// holdID and reports whether it did.
	Delete(ctx context.Context, flightID, seat, holdID string) (bool, error)
	// Expired returns holds whose expiry is at or before now and that are
	// still stored.
	Expired(ctx context.Context, now time.Time) ([]domain.SeatHold, error)
}

type ClearanceRepository interface {
	Append(ctx context.Context, clearance domain.Clearance) error
	Last(ctx context.Context, flightID string) (*domain.Clearance, error)
	ListByFlight(ctx context.Context, flightID string) ([]domain.Clearance, error)
	All(ctx context.Context) ([]domain.Clearance, error)
}

type PilotRepository interface {
	// GetStats fails with domain.ErrPilotNotFound for unknown pilots.
	GetStats(ctx context.Context, pilotID string) (*domain.PilotStats, error)
	SaveStats(ctx context.Context, stats domain.PilotStats) error
	AppendLog(ctx context.Context, entry domain.PilotLogEntry) error
	Logs(ctx context.Context, pilotID string) ([]domain.PilotLogEntry, error)
	CreateRankRequest(ctx context.Context, req domain.RankUpRequest) error
	GetRankRequest(ctx context.Context, id string) (*domain.RankUpRequest, error)
	// PendingRankRequest fails with domain.ErrRankRequestNotFound when the
	// pilot has no pending request.
	PendingRankRequest(ctx context.Context, pilotID string) (*domain.RankUpRequest, error)
	UpdateRankRequest(ctx context.Context, req domain.RankUpRequest) error
}
