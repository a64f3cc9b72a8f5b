// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels, a request-scoped logger carried in the context, and a
// handler that stamps every record with the trace ID of the request that produced it.
package logger
