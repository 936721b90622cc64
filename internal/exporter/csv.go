package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"travelboard/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures CSV writing behavior
type CSVOptions struct {
	BOMPrefix bool // UTF-8 BOM for Excel
	NoHeader  bool
}

// WriteCSV streams trips as CSV rows under the Columns header
func WriteCSV(w io.Writer, trips []domain.Trip, opts CSVOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if !opts.NoHeader {
		if err := writer.Write(Columns); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, t := range trips {
		if err := writer.Write(record(t)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
