package testutil

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// TrackerHeader is the header row of a well-formed tracker sheet
var TrackerHeader = []interface{}{"Name", "Arrival", "Departure", "Accommodation", "Night Stayed", "Itinerary Type"}

// Sheet is one worksheet of a generated workbook
type Sheet struct {
	Name string
	Rows [][]interface{}
}

// TrackerSheet prepends TrackerHeader to rows
func TrackerSheet(name string, rows ...[]interface{}) Sheet {
	return Sheet{Name: name, Rows: append([][]interface{}{TrackerHeader}, rows...)}
}

// TripRow builds a tracker row
func TripRow(name string, arrival, departure time.Time, accommodation string, nights int, itinerary string) []interface{} {
	return []interface{}{name, arrival, departure, accommodation, nights, itinerary}
}

// Workbook renders sheets into xlsx bytes
func Workbook(t testing.TB, sheets ...Sheet) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			if first := f.GetSheetName(0); first != sh.Name {
				if err := f.SetSheetName(first, sh.Name); err != nil {
					t.Fatalf("rename sheet: %v", err)
				}
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			t.Fatalf("new sheet %s: %v", sh.Name, err)
		}
		for r, row := range sh.Rows {
			values := row
			if err := f.SetSheetRow(sh.Name, "A"+strconv.Itoa(r+1), &values); err != nil {
				t.Fatalf("write row %d of %s: %v", r+1, sh.Name, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// MemorySource is an in-memory workbook source whose content can be swapped
type MemorySource struct {
	mu    sync.Mutex
	data  []byte
	err   error
	opens int
}

// NewMemorySource serves data until changed
func NewMemorySource(data []byte) *MemorySource {
	return &MemorySource{data: data}
}

// Set replaces the served workbook and clears any error
func (s *MemorySource) Set(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data, s.err = data, nil
}

// Fail makes every later Open return err
func (s *MemorySource) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Opens counts Open calls
func (s *MemorySource) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

// Open implements travel.Source
func (s *MemorySource) Open(ctx context.Context) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

// Name implements travel.Source
func (s *MemorySource) Name() string { return "memory.xlsx" }

// Date is midnight UTC on the given day
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FixedClock returns a clock stuck at t
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
