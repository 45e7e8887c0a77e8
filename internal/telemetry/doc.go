// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - tracing.go — трассировка OpenTelemetry (stdout или OTLP/gRPC)
//
// Метрики Prometheus объявляются в пакетах, которые их пишут
// (runner, lock, api), и отдаются на /metrics.
package telemetry
