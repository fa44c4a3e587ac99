package domain

import (
	"math"
	"time"
)

// RankRequirement is what a pilot must have accumulated to hold a rank.
type RankRequirement struct {
	Name    string
	Miles   float64
	Flights int
	Hours   float64
}

// Ranks is ordered from lowest to highest.
var Ranks = []RankRequirement{
	{Name: "Trainee"},
	{Name: "Junior First Officer", Miles: 1000, Flights: 5, Hours: 10},
	{Name: "First Officer", Miles: 5000, Flights: 20, Hours: 50},
	{Name: "Senior First Officer", Miles: 15000, Flights: 50, Hours: 150},
	{Name: "Captain", Miles: 30000, Flights: 100, Hours: 300},
	{Name: "Senior Captain", Miles: 60000, Flights: 200, Hours: 600},
}

func rankIndex(name string) int {
	for i, r := range Ranks {
		if r.Name == name {
			return i
		}
	}
	return -1
}

// NextRank returns the rank following current, or false at the top.
func NextRank(current string) (RankRequirement, bool) {
	i := rankIndex(current)
	if i < 0 || i+1 >= len(Ranks) {
		return RankRequirement{}, false
	}
	return Ranks[i+1], true
}

type RankProgress struct {
	NextRank string `json:"nextRank"`
	Percent  int    `json:"rankProgress"`
}

// Progress computes how far a pilot is toward the rank after current: the
// average of the miles, flights and hours ratios, each capped at 100. At the
// highest rank the progress is 100 with no next rank.
func Progress(current string, miles float64, flights int, hours float64) RankProgress {
	next, ok := NextRank(current)
	if !ok {
		return RankProgress{Percent: 100}
	}
	total := ratio(miles, next.Miles) + ratio(float64(flights), float64(next.Flights)) + ratio(hours, next.Hours)
	return RankProgress{
		NextRank: next.Name,
		Percent:  int(math.Floor(total / 3)),
	}
}

func ratio(have, need float64) float64 {
	if need <= 0 {
		return 100
	}
	return math.Min(100, have/need*100)
}

type PilotStats struct {
	PilotID      string    `json:"pilotId"`
	TotalMiles   float64   `json:"totalMiles"`
	TotalFlights int       `json:"totalFlights"`
	HoursFlown   float64   `json:"hoursFlown"`
	CurrentRank  string    `json:"currentRank"`
	NextRank     string    `json:"nextRank,omitempty"`
	RankProgress int       `json:"rankProgress"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func NewPilotStats(pilotID string) PilotStats {
	s := PilotStats{PilotID: pilotID, CurrentRank: Ranks[0].Name}
	s.Recompute()
	return s
}

func (s *PilotStats) Recompute() {
	p := Progress(s.CurrentRank, s.TotalMiles, s.TotalFlights, s.HoursFlown)
	s.NextRank = p.NextRank
	s.RankProgress = p.Percent
}

// Record adds one completed flight to the aggregate.
func (s *PilotStats) Record(entry PilotLogEntry) {
	s.TotalMiles += entry.Miles
	s.TotalFlights++
	s.HoursFlown += entry.Hours
	s.Recompute()
}

type PilotLogEntry struct {
	ID           string    `json:"id"`
	PilotID      string    `json:"pilotId"`
	FlightNumber string    `json:"flightNumber"`
	Route        string    `json:"route,omitempty"`
	Aircraft     string    `json:"aircraft,omitempty"`
	Miles        float64   `json:"miles"`
	Hours        float64   `json:"duration"`
	Remarks      string    `json:"remarks,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type RankRequestStatus string

const (
	RankRequestPending  RankRequestStatus = "pending"
	RankRequestApproved RankRequestStatus = "approved"
	RankRequestRejected RankRequestStatus = "rejected"
)

type RankUpRequest struct {
	ID          string            `json:"id"`
	PilotID     string            `json:"pilotId"`
	CurrentRank string            `json:"currentRank"`
	TargetRank  string            `json:"targetRank"`
	Stats       PilotStats        `json:"stats"`
	Status      RankRequestStatus `json:"status"`
	DecidedBy   string            `json:"decidedBy,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	DecidedAt   *time.Time        `json:"decidedAt,omitempty"`
}
