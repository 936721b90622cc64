// Package travel holds the visiting-employee travel dataset and the queries run over it.
//
// A Loader reads every sheet of a tracker workbook, keeps the sheets that carry
// the six required columns (name, arrival, departure, accommodation, night stayed,
// itinerary type), drops invalid and repeated-header rows, and produces an
// immutable Snapshot. A Store publishes snapshots with an atomic swap so readers
// always see either the old or the new dataset in full.
//
// Queries are pure functions over a slice of trips:
//
//	Filter          date range, category and year criteria
//	Summarize       trip, night, traveler and property counts
//	Upcoming        arrivals after today
//	CurrentlyPresent stays that span today
//	LastCompleted   latest finished trip per traveler
//
// When no dataset could be built, the published snapshot is the NoData sentinel
// and every query returns an empty View with NoData set.
package travel
