// Package config loads the service configuration.
//
// Values come from three layers, later layers winning:
//
//  1. Default()
//  2. a YAML file (the path passed to Load, $GDPW_CONFIG, ./config.yaml or ./configs/config.yaml)
//  3. GDPW_* environment variables, e.g. GDPW_SERVER_PORT or GDPW_DATA_COLUMNS_GDP
//
// The merged result is validated with go-playground/validator before use.
package config
