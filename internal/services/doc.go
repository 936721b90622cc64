// Package services sits between the HTTP transport and the travel dataset.
//
// TravelService answers view queries against the store's current snapshot,
// applying the default year and recording query metrics. It also drives
// reloads and reports dataset status. HealthService answers liveness,
// readiness and version probes.
//
// Services take their collaborators through constructors and never read
// global state, so tests build them with a fixed clock and an in-memory
// source.
package services
