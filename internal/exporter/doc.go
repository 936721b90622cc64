// Package exporter writes query results as downloadable files.
//
// CSV output goes through encoding/csv with an optional UTF-8 BOM so Excel
// opens it with the right encoding. XLSX output is streamed with excelize and
// carries a second "Summary" sheet with the aggregate counts.
//
//	err := exporter.Export(w, exporter.FormatXLSX, exporter.Report{
//		Title:   "Upcoming Travel",
//		Trips:   result.Trips,
//		Summary: result.Summary,
//	})
package exporter
