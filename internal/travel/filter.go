package travel

import (
	"strings"
	"time"

	"travelboard/pkg/contracts/domain"
)

// Filter returns the trips matching every active criterion, in input order.
// The input slice is never modified; with no active criteria it is returned as is.
func Filter(trips []domain.Trip, c Criteria) []domain.Trip {
	if c.IsZero() {
		return trips
	}

	var start, end time.Time
	if c.Start != nil {
		start = domain.DateOf(*c.Start)
	}
	if c.End != nil {
		end = domain.DateOf(*c.End)
	}
	category := ""
	if c.filtersCategory() {
		category = strings.ToLower(strings.TrimSpace(c.ItineraryType))
	}

	out := make([]domain.Trip, 0, len(trips))
	for _, t := range trips {
		if len(c.Years) > 0 && !c.Years.Contains(t.Year) {
			continue
		}
		arrival := t.ArrivalDate()
		if c.Start != nil && arrival.Before(start) {
			continue
		}
		if c.End != nil && arrival.After(end) {
			continue
		}
		if category != "" && strings.ToLower(strings.TrimSpace(t.ItineraryType)) != category {
			continue
		}
		out = append(out, t)
	}
	return out
}
