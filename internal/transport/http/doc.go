// Package http implements the HTTP surface of travelboard: the JSON travel
// API, CSV/XLSX exports, the server-rendered pages, health and metrics
// endpoints, and the WebSocket endpoint that announces dataset reloads.
//
// Handlers are thin. They decode and validate parameters, call the service
// layer, and render the result. Errors are rendered as RFC 7807 problems
// through apierrors.ErrorHandler:
//
//	malformed filter input   400 INVALID_INPUT
//	unknown view             404 NOT_FOUND
//	no dataset loaded        503 NO_DATA (exports and reloads only)
//
// JSON view queries answer 200 with "no_data": true while no dataset is
// published, so an empty dataset stays distinguishable from an empty result.
//
// # Routes
//
//	GET       /api/travel/{view}            trips, upcoming, present, last-completed
//	GET       /api/travel/{view}/export     ?format=csv|xlsx
//	GET       /api/travel/years
//	GET       /api/travel/status
//	POST      /api/travel/reload
//	GET/POST  /  /upcoming  /in-country     filter form
//	GET       /last-travel
//	GET       /update-data                  reload, then redirect back
//	GET       /api/health  /api/health/ready  /api/version
//	GET       /metrics  /api/metrics/system
//	GET       /ws
package http
