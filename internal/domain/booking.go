package domain

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// SeatHold is a time-limited exclusive reservation of one seat. HoldID
// distinguishes successive holds of the same seat so a stale expiry never
// removes a newer hold.
type SeatHold struct {
	HoldID      string    `json:"holdId"`
	FlightID    string    `json:"flightId"`
	SeatNumber  string    `json:"seatNumber"`
	PrincipalID string    `json:"userId"`
	ExpiresAt   time.Time `json:"expiresAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (h *SeatHold) Key() string {
	return seatKey(h.FlightID, h.SeatNumber)
}

func (h *SeatHold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

func SeatHoldKey(flightID, seat string) string {
	return seatKey(flightID, seat)
}

type Passenger struct {
	Name            string   `json:"passengerName"`
	Email           string   `json:"passengerEmail"`
	Phone           string   `json:"passengerPhone,omitempty"`
	SpecialRequests []string `json:"specialRequests,omitempty"`
}

type Booking struct {
	ID               string        `json:"id"`
	PrincipalID      string        `json:"userId"`
	FlightID         string        `json:"flightId"`
	FlightNumber     string        `json:"flightNumber"`
	SeatNumber       string        `json:"seatNumber"`
	FareClass        FareClass     `json:"seatClass"`
	Passenger        Passenger     `json:"passenger"`
	PriceCents       int64         `json:"price"`
	ConfirmationCode string        `json:"confirmationCode"`
	Status           BookingStatus `json:"status"`
	DepartureTime    time.Time     `json:"flightDate"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
	CancelledAt      *time.Time    `json:"cancelledAt,omitempty"`
}

func (b *Booking) Key() string {
	return seatKey(b.FlightID, b.SeatNumber)
}

const confirmationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewConfirmationCode returns a six character code drawn uniformly from
// A-Z0-9.
func NewConfirmationCode() (string, error) {
	return newConfirmationCode(rand.Reader)
}

func newConfirmationCode(r io.Reader) (string, error) {
	size := big.NewInt(int64(len(confirmationAlphabet)))
	buf := make([]byte, 6)
	for i := range buf {
		n, err := rand.Int(r, size)
		if err != nil {
			return "", fmt.Errorf("generate confirmation code: %w", err)
		}
		buf[i] = confirmationAlphabet[n.Int64()]
	}
	return string(buf), nil
}
