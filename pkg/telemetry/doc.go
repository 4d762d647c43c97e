// Package telemetry provides OpenTelemetry integration for distributed
// tracing and metrics over a pipeline run's lifecycle:
//   - Distributed tracing with a root span per run and a child span per
//     node, linked via TelemetryObserver (pkg/observer.Observer)
//   - Prometheus metrics for run and node execution statistics, exported
//     by Provider
//   - HTTP call metrics for outbound requests a component makes (see
//     pkg/demo's http_fetch component)
package telemetry
