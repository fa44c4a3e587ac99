package domain

import (
	"slices"
	"time"
)

type ClearanceType string

const (
	ClearanceATC       ClearanceType = "atc"
	ClearancePushback  ClearanceType = "pushback"
	ClearanceTaxi      ClearanceType = "taxi"
	ClearanceCrossing  ClearanceType = "crossing"
	ClearanceHolding   ClearanceType = "holding"
	ClearanceTakeoff   ClearanceType = "takeoff"
	ClearanceDeparture ClearanceType = "departure"
	ClearanceClimb     ClearanceType = "climb"
	ClearanceEnroute   ClearanceType = "enroute"
	ClearanceOceanic   ClearanceType = "oceanic"
	ClearanceDescent   ClearanceType = "descent"
	ClearanceApproach  ClearanceType = "approach"
	ClearanceLanding   ClearanceType = "landing"
)

// The first clearance of a flight must be one of these.
var initialClearances = []ClearanceType{ClearanceATC, ClearancePushback}

var clearanceSequence = map[ClearanceType][]ClearanceType{
	ClearanceATC:       {ClearancePushback, ClearanceTaxi},
	ClearancePushback:  {ClearanceTaxi},
	ClearanceTaxi:      {ClearanceHolding, ClearanceCrossing, ClearanceTakeoff},
	ClearanceCrossing:  {ClearanceTaxi, ClearanceHolding, ClearanceTakeoff},
	ClearanceHolding:   {ClearanceTakeoff, ClearanceApproach, ClearanceLanding},
	ClearanceTakeoff:   {ClearanceDeparture, ClearanceClimb},
	ClearanceDeparture: {ClearanceClimb, ClearanceEnroute},
	ClearanceClimb:     {ClearanceEnroute, ClearanceOceanic, ClearanceDescent},
	ClearanceEnroute:   {ClearanceOceanic, ClearanceDescent, ClearanceHolding},
	ClearanceOceanic:   {ClearanceEnroute, ClearanceDescent},
	ClearanceDescent:   {ClearanceApproach, ClearanceHolding},
	ClearanceApproach:  {ClearanceLanding, ClearanceHolding},
	ClearanceLanding:   {ClearanceTaxi},
}

func (c ClearanceType) Valid() bool {
	_, ok := clearanceSequence[c]
	return ok
}

// CanFollow reports whether c may be issued after previous. An empty
// previous means no clearance has been issued for the flight yet.
func (c ClearanceType) CanFollow(previous ClearanceType) bool {
	if previous == "" {
		return slices.Contains(initialClearances, c)
	}
	return slices.Contains(clearanceSequence[previous], c)
}

type Clearance struct {
	ID        string        `json:"id"`
	FlightID  string        `json:"flightId"`
	Type      ClearanceType `json:"clearanceType"`
	Message   string        `json:"message"`
	Runway    string        `json:"runway,omitempty"`
	IssuedBy  string        `json:"atcId"`
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}
