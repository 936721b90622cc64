package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"travelboard/internal/shared/testutil"
	"travelboard/internal/travel"
)

// MockBroadcaster is a mock for the Broadcaster interface
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) Broadcast(eventType string, data interface{}) {
	m.Called(eventType, data)
}

// MockClientCounter is a mock for the ClientCounter interface
type MockClientCounter struct {
	mock.Mock
}

func (m *MockClientCounter) ClientCount() int {
	return m.Called().Int(0)
}

// today for every service test
var testToday = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

func trackerWorkbook(t *testing.T) []byte {
	return testutil.Workbook(t,
		testutil.TrackerSheet("2023",
			testutil.TripRow("Carol", testutil.Date(2023, 3, 1), testutil.Date(2023, 3, 4), "Hotel Blue", 3, "Business"),
		),
		testutil.TrackerSheet("2024",
			testutil.TripRow("Alice", testutil.Date(2024, 1, 10), testutil.Date(2024, 1, 20), "Guest House", 10, "Business"),
			testutil.TripRow("Alice", testutil.Date(2024, 6, 10), testutil.Date(2024, 6, 20), "Guest House", 10, "Business"),
			testutil.TripRow("Bob", testutil.Date(2024, 7, 1), testutil.Date(2024, 7, 5), "Hotel Blue", 4, "Training"),
		),
	)
}

func newTestStore(t *testing.T, src *testutil.MemorySource) *travel.Store {
	logger, _ := testutil.NewTestLogger(nil)
	return travel.NewStore(src, travel.NewLoader(logger), travel.WithStoreLogger(logger))
}
