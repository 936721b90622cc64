package travel

import (
	"sort"
	"time"

	"travelboard/pkg/contracts/domain"
)

// ViewKind names a derived view of the dataset
type ViewKind string

const (
	ViewAll           ViewKind = "trips"
	ViewUpcoming      ViewKind = "upcoming"
	ViewPresent       ViewKind = "present"
	ViewLastCompleted ViewKind = "last-completed"
)

// Views lists every view in menu order
var Views = []ViewKind{ViewAll, ViewUpcoming, ViewPresent, ViewLastCompleted}

// ParseViewKind resolves a view name
func ParseViewKind(s string) (ViewKind, bool) {
	for _, v := range Views {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

// Filtered reports whether the view accepts filter criteria
func (v ViewKind) Filtered() bool {
	return v != ViewLastCompleted
}

// View is the result of a query: matching trips plus their summary. NoData is
// set when the dataset itself is missing, which callers must tell apart from a
// query that simply matched nothing.
type View struct {
	Trips   []domain.Trip  `json:"trips"`
	Summary domain.Summary `json:"summary"`
	NoData  bool           `json:"no_data"`
}

func newView(trips []domain.Trip) View {
	if trips == nil {
		trips = []domain.Trip{}
	}
	return View{Trips: trips, Summary: Summarize(trips)}
}

func noDataView() View {
	return View{Trips: []domain.Trip{}, NoData: true}
}

// Query runs the named view over a snapshot
func Query(snap *Snapshot, kind ViewKind, today time.Time, c Criteria) View {
	if snap.NoData() {
		return noDataView()
	}
	trips := snap.Rows()
	switch kind {
	case ViewUpcoming:
		return newView(Upcoming(trips, today, c))
	case ViewPresent:
		return newView(CurrentlyPresent(trips, today, c))
	case ViewLastCompleted:
		return newView(LastCompleted(trips, today))
	default:
		return newView(Filter(trips, c))
	}
}

// Upcoming keeps trips arriving after today, then applies c
func Upcoming(trips []domain.Trip, today time.Time, c Criteria) []domain.Trip {
	day := domain.DateOf(today)
	out := make([]domain.Trip, 0)
	for _, t := range trips {
		if t.ArrivalDate().After(day) {
			out = append(out, t)
		}
	}
	return Filter(out, c)
}

// CurrentlyPresent keeps trips whose stay spans today, bounds inclusive, then applies c
func CurrentlyPresent(trips []domain.Trip, today time.Time, c Criteria) []domain.Trip {
	day := domain.DateOf(today)
	out := make([]domain.Trip, 0)
	for _, t := range trips {
		if !t.ArrivalDate().After(day) && !t.DepartureDate().Before(day) {
			out = append(out, t)
		}
	}
	return Filter(out, c)
}

// LastCompleted returns, for each traveler, the completed trip (departure before
// today) with the latest departure date. On equal dates the earlier row wins,
// whatever the time of day.
// The result is ordered by name.
func LastCompleted(trips []domain.Trip, today time.Time) []domain.Trip {
	day := domain.DateOf(today)
	latest := make(map[string]int)
	for i, t := range trips {
		if !t.DepartureDate().Before(day) {
			continue
		}
		j, seen := latest[t.Name]
		if !seen || t.DepartureDate().After(trips[j].DepartureDate()) {
			latest[t.Name] = i
		}
	}

	out := make([]domain.Trip, 0, len(latest))
	for _, i := range latest {
		out = append(out, trips[i])
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Name < out[b].Name
	})
	return out
}
