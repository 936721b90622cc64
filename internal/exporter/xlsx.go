package exporter

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	tripsSheet   = "Trips"
	summarySheet = "Summary"
	xlsxDateFmt  = "dd-mmm-yyyy"
)

// WriteXLSX writes a workbook with the trips on one sheet and the summary on another
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), tripsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	dateFmt := xlsxDateFmt
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	sw, err := f.NewStreamWriter(tripsSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}
	if err := sw.SetColWidth(1, len(Columns), 16); err != nil {
		return err
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: c}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, t := range r.Trips {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			t.Name,
			excelize.Cell{StyleID: dateStyle, Value: t.Arrival},
			excelize.Cell{StyleID: dateStyle, Value: t.Departure},
			t.Accommodation,
			t.NightsStayed,
			t.ItineraryType,
			t.Year,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush trips sheet: %w", err)
	}

	if err := writeSummarySheet(f, r); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, r Report) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}
	rows := [][]interface{}{
		{"Report", r.Title},
		{"Generated", r.GeneratedAt.Format(time.RFC3339)},
		{"Total Trips", r.Summary.TotalTrips},
		{"Total Nights", r.Summary.TotalNights},
		{"Unique Travelers", r.Summary.UniqueTravelers},
		{"Unique Properties", r.Summary.UniqueProperties},
	}
	for i, row := range rows {
		values := row
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &values); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return nil
}
