// Package app wires the GDP waterfall service together and manages its
// lifecycle.
//
// NewApplication loads configuration-derived components in order:
//
//  1. OpenTelemetry providers and the chart metrics
//  2. the data source and the chart service, loading the dataset once
//  3. the websocket hub, subscribed to dataset reloads
//  4. health service, handlers and the chi router
//
// Run serves HTTP and, when data.watch is set for a file source, reloads the
// dataset on change. It returns after SIGINT, SIGTERM or context
// cancellation once the server, the hub and the telemetry providers have
// shut down.
package app
