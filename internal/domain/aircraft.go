package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

type FareClass string

const (
	FareEconomy  FareClass = "economy"
	FareBusiness FareClass = "business"
)

func (f FareClass) Valid() bool {
	return f == FareEconomy || f == FareBusiness
}

type CabinLayout struct {
	Rows        int
	SeatsPerRow int
}

// AircraftType describes the seat map of one aircraft type. Business rows
// come first and economy rows continue the numbering.
type AircraftType struct {
	Code     string
	Name     string
	Business CabinLayout
	Economy  CabinLayout
}

var aircraftTypes = map[string]AircraftType{
	"A320": {
		Code:     "A320",
		Name:     "Airbus A320",
		Business: CabinLayout{Rows: 2, SeatsPerRow: 6},
		Economy:  CabinLayout{Rows: 30, SeatsPerRow: 6},
	},
	"A330": {
		Code:     "A330",
		Name:     "Airbus A330",
		Business: CabinLayout{Rows: 3, SeatsPerRow: 8},
		Economy:  CabinLayout{Rows: 41, SeatsPerRow: 8},
	},
}

func LookupAircraft(code string) (AircraftType, bool) {
	a, ok := aircraftTypes[code]
	return a, ok
}

func (a AircraftType) Capacity() SeatCapacity {
	return SeatCapacity{
		Economy:  a.Economy.Rows * a.Economy.SeatsPerRow,
		Business: a.Business.Rows * a.Business.SeatsPerRow,
	}
}

// Cabin returns the fare class of the cabin a seat such as "12A" sits in.
func (a AircraftType) Cabin(seat string) (FareClass, error) {
	row, letter, err := ParseSeat(seat)
	if err != nil {
		return "", err
	}
	col := int(letter - 'A')

	switch {
	case row <= a.Business.Rows:
		if col >= a.Business.SeatsPerRow {
			return "", Validation("seat %s does not exist on %s", seat, a.Code)
		}
		return FareBusiness, nil
	case row <= a.Business.Rows+a.Economy.Rows:
		if col >= a.Economy.SeatsPerRow {
			return "", Validation("seat %s does not exist on %s", seat, a.Code)
		}
		return FareEconomy, nil
	default:
		return "", Validation("seat %s does not exist on %s", seat, a.Code)
	}
}

// seatPattern admits only the canonical spelling of a seat, so a seat has
// exactly one key in holds, bookings and the occupied list.
var seatPattern = regexp.MustCompile(`^[1-9][0-9]?[A-H]$`)

// ParseSeat splits a seat number of the form <row><letter>, row 1..99.
func ParseSeat(seat string) (int, byte, error) {
	if !seatPattern.MatchString(seat) {
		return 0, 0, Validation("invalid seat number %q", seat)
	}
	letter := seat[len(seat)-1]
	row, err := strconv.Atoi(seat[:len(seat)-1])
	if err != nil {
		return 0, 0, Validation("invalid seat number %q", seat)
	}
	return row, letter, nil
}

func seatKey(flightID, seat string) string {
	return fmt.Sprintf("%s_%s", flightID, seat)
}
