package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/indigoair/indigo/internal/events"
)

type Notification struct {
	To      string
	Subject string
	Body    string
}

// Sender turns booking events into passenger notifications. Delivery is a
// structured log line; a mail transport can be plugged in through Deliver.
type Sender struct {
	logger  *slog.Logger
	Deliver func(ctx context.Context, n Notification) error
}

func NewSender(logger *slog.Logger) *Sender {
	s := &Sender{logger: logger}
	s.Deliver = s.logDelivery
	return s
}

// Send ignores event types passengers are not notified about.
func (s *Sender) Send(ctx context.Context, e events.Event) error {
	n, ok := Compose(e)
	if !ok {
		return nil
	}
	return s.Deliver(ctx, n)
}

func (s *Sender) logDelivery(_ context.Context, n Notification) error {
	s.logger.Info("notification sent", "to", n.To, "subject", n.Subject)
	return nil
}

// Compose builds the notification for e, addressed to the principal the
// event concerns. The passenger email travels in Data["email"] when known.
func Compose(e events.Event) (Notification, bool) {
	to := e.PrincipalID
	if addr, ok := e.Data["email"].(string); ok && addr != "" {
		to = addr
	}
	if to == "" {
		return Notification{}, false
	}

	switch e.Type {
	case events.BookingCreated:
		return Notification{
			To:      to,
			Subject: fmt.Sprintf("Booking confirmed: seat %s", e.SeatNumber),
			Body:    fmt.Sprintf("Your %s seat %s on flight %s is confirmed (code %v).", e.SeatClass, e.SeatNumber, flightLabel(e), e.Data["confirmationCode"]),
		}, true
	case events.BookingCancelled:
		return Notification{
			To:      to,
			Subject: fmt.Sprintf("Booking cancelled: seat %s", e.SeatNumber),
			Body:    fmt.Sprintf("Your booking %s for seat %s on flight %s was cancelled.", e.BookingID, e.SeatNumber, flightLabel(e)),
		}, true
	case events.SeatHoldExpired:
		return Notification{
			To:      to,
			Subject: fmt.Sprintf("Seat hold expired: %s", e.SeatNumber),
			Body:    fmt.Sprintf("Your hold on seat %s for flight %s has expired.", e.SeatNumber, flightLabel(e)),
		}, true
	}
	return Notification{}, false
}

func flightLabel(e events.Event) string {
	if n, ok := e.Data["flightNumber"].(string); ok && n != "" {
		return n
	}
	return e.FlightID
}
