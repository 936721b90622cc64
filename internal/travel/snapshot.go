package travel

import (
	"sort"
	"time"

	"travelboard/pkg/contracts/domain"
)

// Snapshot is one immutable generation of the dataset. A snapshot with a
// non-nil Err is the NoData sentinel: its Trips are always empty.
type Snapshot struct {
	Trips    []domain.Trip `json:"-"`
	Report   LoadReport    `json:"report"`
	Source   string        `json:"source"`
	LoadedAt time.Time     `json:"loaded_at"`
	Err      error         `json:"-"`
}

// SkippedSheet records a sheet that lacked required columns
type SkippedSheet struct {
	Name    string   `json:"name"`
	Missing []string `json:"missing"`
}

// DropCounts tallies rows discarded during a load, by reason
type DropCounts struct {
	Blank            int `json:"blank"`
	HeaderRow        int `json:"header_row"`
	MissingName      int `json:"missing_name"`
	InvalidArrival   int `json:"invalid_arrival"`
	InvalidDeparture int `json:"invalid_departure"`
}

// Total sums every drop reason
func (d DropCounts) Total() int {
	return d.Blank + d.HeaderRow + d.MissingName + d.InvalidArrival + d.InvalidDeparture
}

// LoadReport describes what a load saw and kept
type LoadReport struct {
	SheetsSeen    int            `json:"sheets_seen"`
	SheetsKept    []string       `json:"sheets_kept"`
	SheetsSkipped []SkippedSheet `json:"sheets_skipped,omitempty"`
	RowsRead      int            `json:"rows_read"`
	Dropped       DropCounts     `json:"dropped"`
	InvertedDates int            `json:"inverted_dates"`
	BadNights     int            `json:"bad_nights"`
	Trips         int            `json:"trips"`
	Duration      time.Duration  `json:"duration"`
}

// NoDataSnapshot builds the sentinel snapshot for a failed load
func NoDataSnapshot(source string, report LoadReport, err error) *Snapshot {
	if err == nil {
		err = ErrNoData
	}
	return &Snapshot{
		Report:   report,
		Source:   source,
		LoadedAt: time.Now(),
		Err:      err,
	}
}

// NoData reports whether the snapshot carries no usable dataset
func (s *Snapshot) NoData() bool {
	return s == nil || s.Err != nil || len(s.Trips) == 0
}

// Rows returns the trips of a usable snapshot, nil otherwise
func (s *Snapshot) Rows() []domain.Trip {
	if s.NoData() {
		return nil
	}
	return s.Trips
}

// Years lists the distinct arrival years in ascending order
func (s *Snapshot) Years() []int {
	rows := s.Rows()
	if len(rows) == 0 {
		return []int{}
	}
	seen := make(map[int]struct{})
	for _, t := range rows {
		seen[t.Year] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
