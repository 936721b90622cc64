package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelboard/internal/config"
	"travelboard/internal/shared/testutil"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Security.RateLimit.Enabled = false
	cfg.Telemetry.TraceExporter = "none"
	cfg.Telemetry.MetricExporter = "prometheus"
	cfg.Source.ReloadInterval = 0
	return cfg
}

func trackerWorkbook(t *testing.T) []byte {
	t.Helper()
	year := time.Now().UTC().Year()
	return testutil.Workbook(t,
		testutil.TrackerSheet("trips",
			testutil.TripRow("Alice", testutil.Date(year, 1, 1), testutil.Date(year, 1, 3), "Guest House", 2, "Business"),
			testutil.TripRow("Bob", testutil.Date(year, 12, 27), testutil.Date(year, 12, 30), "Hotel Blue", 3, "Training"),
		),
	)
}

func newTestApp(t *testing.T, src *testutil.MemorySource) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(nil)
	app, err := NewApplication(context.Background(), testConfig(), logger, WithSource(src))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Stop(context.Background()) })
	return app
}

func getJSON(t *testing.T, url string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestApplication_Routes(t *testing.T) {
	src := testutil.NewMemorySource(trackerWorkbook(t))
	app := newTestApp(t, src)
	app.StartBackground(context.Background())

	server := httptest.NewServer(app.Router)
	defer server.Close()

	status, body := getJSON(t, server.URL+"/api/travel/status")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["loaded"])
	assert.Equal(t, float64(2), body["trips"])

	status, body = getJSON(t, server.URL+"/api/travel/trips")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["trips"], 2)

	status, body = getJSON(t, server.URL+"/api/health/ready")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	status, body = getJSON(t, server.URL+"/api/travel/trips?start_date=tomorrow")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", body["error_code"])

	status, body = getJSON(t, server.URL+"/no/such/page")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not Found", body["title"])

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(page), "Travel Overview")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	metrics, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(metrics), "dataset_loads_total")
	assert.Contains(t, string(metrics), "http_requests_total")
}

func TestApplication_ReloadBroadcast(t *testing.T) {
	src := testutil.NewMemorySource(nil)
	app := newTestApp(t, src)
	app.StartBackground(context.Background())

	server := httptest.NewServer(app.Router)
	defer server.Close()

	status, body := getJSON(t, server.URL+"/api/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "not_ready", body["status"])

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var msg struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "connection", msg.Type)

	src.Set(trackerWorkbook(t))
	resp, err := http.Post(server.URL+"/api/travel/reload", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "dataset.reloaded", msg.Type)
	assert.Equal(t, true, msg.Data["loaded"])
}

func TestApplication_StartStop(t *testing.T) {
	src := testutil.NewMemorySource(nil)
	logger, logs := testutil.NewTestLogger(t)
	app, err := NewApplication(context.Background(), testConfig(), logger, WithSource(src))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh, err := app.Start(context.Background(), ln)
	require.NoError(t, err)
	testutil.AssertLogged(t, logs, slog.LevelWarn, "initial load failed")

	status, _ := getJSON(t, "http://"+ln.Addr().String()+"/api/health")
	assert.Equal(t, http.StatusOK, status)

	require.NoError(t, app.Stop(context.Background()))
	select {
	case err, ok := <-errCh:
		if ok {
			assert.NoError(t, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	_, err = http.Get("http://" + ln.Addr().String() + "/api/health")
	assert.Error(t, err)
}
