package domain

import (
	"time"
)

// DisplayDateLayout is the day-month-year layout used when trips are shown to people.
const DisplayDateLayout = "02-Jan-2006"

// Trip represents one traveler's single stay taken from the tracker workbook
type Trip struct {
	Name          string    `json:"name" validate:"required"`
	Arrival       time.Time `json:"arrival" validate:"required"`
	Departure     time.Time `json:"departure" validate:"required"`
	Accommodation string    `json:"accommodation"`
	NightsStayed  float64   `json:"nights_stayed" validate:"min=0"`
	ItineraryType string    `json:"itinerary_type"`
	Year          int       `json:"year"`

	// Source position, kept for diagnostics
	Sheet string `json:"sheet,omitempty"`
	Row   int    `json:"row,omitempty"`
}

// ArrivalDate returns the arrival truncated to a calendar date
func (t Trip) ArrivalDate() time.Time {
	return DateOf(t.Arrival)
}

// DepartureDate returns the departure truncated to a calendar date
func (t Trip) DepartureDate() time.Time {
	return DateOf(t.Departure)
}

// ArrivalDisplay formats the arrival for tables
func (t Trip) ArrivalDisplay() string {
	return t.Arrival.Format(DisplayDateLayout)
}

// DepartureDisplay formats the departure for tables
func (t Trip) DepartureDisplay() string {
	return t.Departure.Format(DisplayDateLayout)
}

// DateOf drops the time-of-day component, keeping the calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Summary holds aggregate counts over a set of trips
type Summary struct {
	TotalTrips       int `json:"total_trips"`
	TotalNights      int `json:"total_nights"`
	UniqueTravelers  int `json:"unique_travelers"`
	UniqueProperties int `json:"unique_properties"`
}

// IsZero reports whether every count is zero
func (s Summary) IsZero() bool {
	return s == Summary{}
}
