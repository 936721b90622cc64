// Package app wires travelboard together and manages its lifecycle.
//
// NewApplication builds every component from a config.Config: telemetry,
// the workbook source, the dataset store, the WebSocket hub, the services and
// the chi router. Start loads the dataset when configured to, starts the hub
// and the periodic reload, and serves HTTP; Stop drains the server and stops
// the background goroutines. Run does both around SIGINT/SIGTERM.
//
// A failed initial load is not fatal. The server starts and reports NoData
// until a later reload succeeds.
package app
