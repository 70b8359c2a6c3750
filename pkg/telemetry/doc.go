// Package telemetry wires the observability stack: structured logging with
// zerolog, Prometheus metrics for runs and identity mutations, and optional
// OpenTelemetry spans around reconciliation passes.
package telemetry
