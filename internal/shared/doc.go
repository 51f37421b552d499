// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides a capturing slog handler and the small
// GDP tables that parser, service and handler tests share.
package shared
