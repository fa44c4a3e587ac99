package repository

import (
	"context"
	"errors"

	"github.com/indigoair/indigo/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const flightColumns = `id, flight_number, origin, destination, aircraft, departure_time, arrival_time,
	economy_capacity, business_capacity, economy_price, business_price, departure_gate, arrival_gate,
	occupied_seats, status, status_reason, crew, created_by, created_at, updated_at`

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) Create(ctx context.Context, f *domain.Flight) error {
	_, err := r.db.Exec(ctx, `INSERT INTO flights (`+flightColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		f.ID, f.FlightNumber, f.Origin, f.Destination, f.Aircraft, f.DepartureTime, f.ArrivalTime,
		f.Capacity.Economy, f.Capacity.Business, f.Price.Economy, f.Price.Business, f.Gates.Departure, f.Gates.Arrival,
		nonNil(f.OccupiedSeats), f.Status, f.StatusReason, f.Crew, f.CreatedBy, f.CreatedAt, f.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateFlightNumber
	}
	return err
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
	f, err := scanFlight(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFlightNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) Update(ctx context.Context, f *domain.Flight) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET status=$2, status_reason=$3, crew=$4, updated_at=$5 WHERE id=$1`,
		f.ID, f.Status, f.StatusReason, f.Crew, f.UpdatedAt)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

func (r *PGFlightRepository) OccupySeat(ctx context.Context, flightID, seat string) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET occupied_seats = array_append(occupied_seats, $2), updated_at = now()
		WHERE id=$1 AND NOT ($2 = ANY(occupied_seats))`, flightID, seat)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, flightID); err != nil {
			return err
		}
		return domain.ErrSeatAlreadyBooked
	}
	return nil
}

func (r *PGFlightRepository) FreeSeat(ctx context.Context, flightID, seat string) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET occupied_seats = array_remove(occupied_seats, $2), updated_at = now() WHERE id=$1`, flightID, seat)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

func (r *PGFlightRepository) AppendLog(ctx context.Context, e domain.FlightLogEntry) error {
	_, err := r.db.Exec(ctx, `INSERT INTO flight_logs (id, flight_id, type, from_status, to_status, reason, updated_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, e.ID, e.FlightID, e.Type, e.From, e.To, e.Reason, e.UpdatedBy, e.Timestamp)
	return err
}

func (r *PGFlightRepository) Logs(ctx context.Context, flightID string) ([]domain.FlightLogEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, flight_id, type, from_status, to_status, reason, updated_by, created_at
		FROM flight_logs WHERE flight_id=$1 ORDER BY created_at`, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.FlightLogEntry
	for rows.Next() {
		var e domain.FlightLogEntry
		if err := rows.Scan(&e.ID, &e.FlightID, &e.Type, &e.From, &e.To, &e.Reason, &e.UpdatedBy, &e.Timestamp); err != nil {
			return nil, err
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.FlightNumber, &f.Origin, &f.Destination, &f.Aircraft, &f.DepartureTime, &f.ArrivalTime,
		&f.Capacity.Economy, &f.Capacity.Business, &f.Price.Economy, &f.Price.Business, &f.Gates.Departure, &f.Gates.Arrival,
		&f.OccupiedSeats, &f.Status, &f.StatusReason, &f.Crew, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ FlightRepository = (*PGFlightRepository)(nil)
