package travel

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"travelboard/pkg/contracts/domain"
)

var trackerHeader = []interface{}{"Name", "Arrival", "Departure", "Accommodation", "Night Stayed", "Itinerary Type"}

type testSheet struct {
	name string
	rows [][]interface{}
}

// buildWorkbook writes the sheets into an in-memory xlsx
func buildWorkbook(t *testing.T, sheets ...testSheet) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			if first := f.GetSheetName(0); first != sh.name {
				require.NoError(t, f.SetSheetName(first, sh.name))
			}
		} else {
			_, err := f.NewSheet(sh.name)
			require.NoError(t, err)
		}
		for r, row := range sh.rows {
			values := row
			require.NoError(t, f.SetSheetRow(sh.name, "A"+strconv.Itoa(r+1), &values))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func trip(name string, arrival, departure time.Time, nights int) domain.Trip {
	return domain.Trip{
		Name:          name,
		Arrival:       arrival,
		Departure:     departure,
		Accommodation: "Guest House",
		NightsStayed:  float64(nights),
		ItineraryType: "Business",
		Year:          arrival.Year(),
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memSource serves a fixed workbook, or an error
type memSource struct {
	data  []byte
	err   error
	opens int
}

func (m *memSource) Open(ctx context.Context) (io.ReadCloser, error) {
	m.opens++
	if m.err != nil {
		return nil, m.err
	}
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

func (m *memSource) Name() string { return "memory.xlsx" }

// toggleSource serves whatever pick returns on each open
type toggleSource struct {
	pick func() []byte
}

func (s *toggleSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.pick())), nil
}

func (s *toggleSource) Name() string { return "toggle.xlsx" }

// blockingSource holds every open until release is closed
type blockingSource struct {
	data    []byte
	release chan struct{}
	opens   atomic.Int32
}

func (s *blockingSource) Open(ctx context.Context) (io.ReadCloser, error) {
	s.opens.Add(1)
	<-s.release
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *blockingSource) Name() string { return "blocking.xlsx" }
