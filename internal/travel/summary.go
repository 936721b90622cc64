package travel

import "travelboard/pkg/contracts/domain"

// Summarize computes aggregate counts. Nights are summed as entered and the
// total truncated. Nil or empty input yields the zero summary.
func Summarize(trips []domain.Trip) domain.Summary {
	if len(trips) == 0 {
		return domain.Summary{}
	}

	travelers := make(map[string]struct{})
	properties := make(map[string]struct{})
	nights := 0.0
	for _, t := range trips {
		nights += t.NightsStayed
		travelers[t.Name] = struct{}{}
		properties[t.Accommodation] = struct{}{}
	}

	return domain.Summary{
		TotalTrips:       len(trips),
		TotalNights:      int(nights),
		UniqueTravelers:  len(travelers),
		UniqueProperties: len(properties),
	}
}
