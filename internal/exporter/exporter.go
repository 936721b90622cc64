package exporter

import (
	"io"
	"time"

	"travelboard/pkg/contracts/domain"
)

// Report is one exportable query result
type Report struct {
	Title       string
	Trips       []domain.Trip
	Summary     domain.Summary
	GeneratedAt time.Time
}

// Export writes r to w in format f
func Export(w io.Writer, f Format, r Report) error {
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now()
	}
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, r)
	default:
		return WriteCSV(w, r.Trips, CSVOptions{BOMPrefix: true})
	}
}
