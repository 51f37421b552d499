// Package cli implements the gdpwaterfall command line: offline listing,
// printing and exporting of country waterfalls, and the serve command that
// runs the HTTP application.
//
// Exit codes: 0 on success, 1 when the table cannot be loaded, holds no
// usable rows or the country is unknown, 2 for usage and configuration
// errors.
package cli
