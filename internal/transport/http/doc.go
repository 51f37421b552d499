// Package http implements the JSON API consumed by the chart front end.
//
// Handlers stay thin: they bind and validate path and query parameters,
// call the chart or health service and render the result. Every failure is
// handed to errors.ErrorHandler, which answers with RFC 7807 problem details.
//
// Routes, relative to the /api mount point:
//
//	GET  /countries                              sorted country list
//	GET  /countries/{country}/waterfall          waterfall chart (200 also for no_data)
//	GET  /countries/{country}/waterfall/export   CSV or XLSX download (?format=csv|xlsx)
//	GET  /health, /health/ready, /health/live    health probes
//	GET  /version                                build and dataset information
//	POST /client-log                             front end log forwarding
package http
