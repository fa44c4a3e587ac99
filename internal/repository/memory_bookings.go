package repository

import (
	"context"
	"sync"
	"time"

	"github.com/indigoair/indigo/internal/domain"
)

type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking
	// confirmed indexes confirmed bookings by flight and seat.
	confirmed map[string]string
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		bookings:  make(map[string]domain.Booking),
		confirmed: make(map[string]string),
	}
}

func (r *MemoryBookingRepository) Create(_ context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := booking.Key()
	if booking.Status == domain.BookingConfirmed {
		if _, taken := r.confirmed[key]; taken {
			return domain.ErrSeatAlreadyBooked
		}
		r.confirmed[key] = booking.ID
	}
	r.bookings[booking.ID] = *booking
	return nil
}

func (r *MemoryBookingRepository) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return &b, nil
}

func (r *MemoryBookingRepository) FindConfirmed(_ context.Context, flightID, seat string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.confirmed[domain.SeatHoldKey(flightID, seat)]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	b := r.bookings[id]
	return &b, nil
}

func (r *MemoryBookingRepository) ListByPrincipal(_ context.Context, principalID string) ([]domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Booking
	for _, b := range r.bookings {
		if b.PrincipalID == principalID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *MemoryBookingRepository) Cancel(_ context.Context, id string, at time.Time) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	if b.Status != domain.BookingConfirmed {
		return nil, domain.ErrBookingNotActive
	}
	b.Status = domain.BookingCancelled
	b.CancelledAt = &at
	b.UpdatedAt = at
	r.bookings[id] = b
	delete(r.confirmed, b.Key())
	return &b, nil
}

var _ BookingRepository = (*MemoryBookingRepository)(nil)
