// Package services holds the chart service, which owns the published GDP
// dataset snapshot and builds waterfall charts from it, and the health
// service behind the readiness and liveness endpoints.
//
// Handlers depend on small interfaces satisfied by these types, so the
// transport packages never see the dataset directly.
package services
