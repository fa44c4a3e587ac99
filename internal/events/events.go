// Package events defines the domain notifications broadcast to real-time
// subscribers and downstream consumers. Delivery is best-effort and
// at-most-once; publishers never fail the operation that produced an event.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type Type string

const (
	SeatHoldExpired     Type = "seat_hold_expired"
	BookingCreated      Type = "booking_created"
	BookingCancelled    Type = "booking_cancelled"
	FlightCreated       Type = "flight_created"
	FlightStatusUpdated Type = "flight_status_updated"
	FlightCrewAssigned  Type = "flight_crew_assigned"
	FlightDelayed       Type = "flight_delayed"
	ClearanceIssued     Type = "clearance_issued"
	RankUpRequested     Type = "rank_up_requested"
	RankUpDecided       Type = "rank_up_decided"
)

type Event struct {
	Type        Type           `json:"type"`
	FlightID    string         `json:"flightId,omitempty"`
	SeatNumber  string         `json:"seatNumber,omitempty"`
	SeatClass   string         `json:"seatClass,omitempty"`
	BookingID   string         `json:"bookingId,omitempty"`
	PrincipalID string         `json:"principalId,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	OccurredAt  time.Time      `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

// Fanout delivers every event to all sinks. A failing sink does not keep
// the others from receiving the event.
type Fanout struct {
	sinks  []Publisher
	logger *slog.Logger
}

func NewFanout(logger *slog.Logger, sinks ...Publisher) *Fanout {
	return &Fanout{sinks: sinks, logger: logger}
}

func (f *Fanout) Add(p Publisher) {
	f.sinks = append(f.sinks, p)
}

func (f *Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Publish(ctx, e); err != nil {
			f.logger.Warn("event sink failed", "type", e.Type, "flight_id", e.FlightID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, Event) error { return nil })

var _ Publisher = (*Fanout)(nil)
