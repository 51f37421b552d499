package config

import "time"

// Application constants
const (
	AppName = "GDP Waterfall"

	// EnvPrefix namespaces every environment variable, e.g. GDPW_SERVER_PORT
	EnvPrefix = "GDPW"

	// ConfigFileEnv names the variable that points at a YAML config file
	ConfigFileEnv = "GDPW_CONFIG"

	DefaultDelimiter    = ";"
	DefaultFetchTimeout = 30 * time.Second
	DefaultWatchDelay   = 500 * time.Millisecond

	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second
)

// Source types
const (
	SourceFile   = "file"
	SourceHTTP   = "http"
	SourceSheets = "sheets"
)

// Input formats
const (
	FormatAuto = "auto"
	FormatDSV  = "dsv"
	FormatXLSX = "xlsx"
)
