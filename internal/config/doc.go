// Package config provides configuration loading for travelboard.
//
// # Configuration Sources
//
// Configuration is layered in the following order, later sources winning:
//
//	1. Default values (Default)
//	2. A YAML file: $TRAVELBOARD_CONFIG, config.yaml or configs/config.yaml
//	3. Environment variables, after applying an optional .env file
//
// # Environment Variables
//
// All environment variables are namespaced TRAVELBOARD_<SECTION>_<FIELD>:
//
//	TRAVELBOARD_SERVER_PORT=8080
//	TRAVELBOARD_SOURCE_PATH="/srv/hr/Visiting Employees Tracker.xlsx"
//	TRAVELBOARD_SOURCE_RELOAD_INTERVAL=10m
//	TRAVELBOARD_SOURCE_S3_BUCKET=hr-data
//	TRAVELBOARD_SOURCE_S3_KEY=tracker.xlsx
//	TRAVELBOARD_LOGGING_LEVEL=debug
//	TRAVELBOARD_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Validation
//
// LoadFile rejects out-of-range ports, non-positive timeouts, a missing
// workbook source and unknown exporters. Logging format and output fall back
// to json and console when unrecognized.
package config
