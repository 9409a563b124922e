// Package production provides integrations around the engine: snapshot
// persistence, transition publishing, DOT/JSON visualization, Prometheus
// metrics and OpenTelemetry tracing. Everything except the persisters plugs
// into a Machine as a core.Observer.
package production
