package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"travelboard/pkg/contracts/domain"
)

// Format is a supported export file type
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat resolves a format name; blank means CSV
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType is the MIME type served for the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename builds the download name, e.g. upcoming-2024-06-15.csv
func Filename(view string, day time.Time, f Format) string {
	return fmt.Sprintf("%s-%s.%s", view, day.Format("2006-01-02"), f)
}

// Columns is the header row shared by every export
var Columns = []string{"Name", "Arrival", "Departure", "Accommodation", "Night Stayed", "Itinerary Type", "Year"}

func formatDate(t time.Time) string {
	return t.Format(domain.DisplayDateLayout)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

func record(t domain.Trip) []string {
	return []string{
		t.Name,
		formatDate(t.Arrival),
		formatDate(t.Departure),
		t.Accommodation,
		strconv.FormatFloat(t.NightsStayed, 'f', -1, 64),
		t.ItineraryType,
		formatInt(t.Year),
	}
}
