// Package logger builds the service's structured logger on top of log/slog:
// JSON records in production (what Cloud Logging and similar collectors
// parse), human-readable text elsewhere.
package logger
