package repository

import (
	"context"
	"errors"
	"time"

	"github.com/indigoair/indigo/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, principal_id, flight_id, flight_number, seat_number, fare_class, passenger, price_cents,
	confirmation_code, status, departure_time, created_at, updated_at, cancelled_at`

// PGBookingRepository relies on the partial unique index
// bookings_confirmed_seat_idx to keep one confirmed booking per seat.
type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	_, err := r.db.Exec(ctx, `INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		b.ID, b.PrincipalID, b.FlightID, b.FlightNumber, b.SeatNumber, b.FareClass, b.Passenger, b.PriceCents,
		b.ConfirmationCode, b.Status, b.DepartureTime, b.CreatedAt, b.UpdatedAt, b.CancelledAt)
	if isUniqueViolation(err) {
		return domain.ErrSeatAlreadyBooked
	}
	return err
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
}

func (r *PGBookingRepository) FindConfirmed(ctx context.Context, flightID, seat string) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE flight_id=$1 AND seat_number=$2 AND status=$3`,
		flightID, seat, domain.BookingConfirmed)
}

func (r *PGBookingRepository) ListByPrincipal(ctx context.Context, principalID string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE principal_id=$1`, principalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *PGBookingRepository) Cancel(ctx context.Context, id string, at time.Time) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	b, err := scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingConfirmed {
		return nil, domain.ErrBookingNotActive
	}

	if _, err := tx.Exec(ctx, `UPDATE bookings SET status=$2, cancelled_at=$3, updated_at=$3 WHERE id=$1`,
		id, domain.BookingCancelled, at); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	b.Status = domain.BookingCancelled
	b.CancelledAt = &at
	b.UpdatedAt = at
	return b, nil
}

func (r *PGBookingRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.PrincipalID, &b.FlightID, &b.FlightNumber, &b.SeatNumber, &b.FareClass, &b.Passenger,
		&b.PriceCents, &b.ConfirmationCode, &b.Status, &b.DepartureTime, &b.CreatedAt, &b.UpdatedAt, &b.CancelledAt); err != nil {
		return nil, err
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
