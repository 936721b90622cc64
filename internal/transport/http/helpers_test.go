package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "travelboard/internal/errors"
	"travelboard/internal/services"
	"travelboard/internal/shared/testutil"
	"travelboard/internal/travel"
)

var testToday = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

// MockTravelService is a mock implementation of TravelServiceInterface
type MockTravelService struct {
	mock.Mock
}

func (m *MockTravelService) Today() time.Time {
	return testutil.Date(2024, 6, 15)
}

func (m *MockTravelService) QueryByName(ctx context.Context, name string, raw travel.RawCriteria) (*services.ViewResult, error) {
	args := m.Called(name, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ViewResult), args.Error(1)
}

func (m *MockTravelService) Query(ctx context.Context, kind travel.ViewKind, raw travel.RawCriteria) (*services.ViewResult, error) {
	args := m.Called(kind, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ViewResult), args.Error(1)
}

func (m *MockTravelService) Years(ctx context.Context) []int {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]int)
}

func (m *MockTravelService) Status(ctx context.Context) services.DatasetStatus {
	return m.Called().Get(0).(services.DatasetStatus)
}

func (m *MockTravelService) Reload(ctx context.Context) (services.DatasetStatus, error) {
	args := m.Called()
	return args.Get(0).(services.DatasetStatus), args.Error(1)
}

func newErrorHandler() *apierrors.ErrorHandler {
	logger, _ := testutil.NewTestLogger(nil)
	return apierrors.NewErrorHandler(logger, false)
}

// trackerWorkbook holds one 2023 trip and three 2024 trips around testToday
func trackerWorkbook(t *testing.T) []byte {
	t.Helper()
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

// newRealService builds a TravelService over src with the clock at testToday.
// The store is loaded unless src is empty.
func newRealService(t *testing.T, src *testutil.MemorySource) *services.TravelService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(nil)
	store := travel.NewStore(src, travel.NewLoader(logger), travel.WithStoreLogger(logger))
	svc := services.NewTravelService(store, logger, services.WithClock(testutil.FixedClock(testToday)))
	_, _ = svc.Reload(context.Background())
	return svc
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
