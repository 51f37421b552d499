package http

import (
	"context"

	"gdpwaterfall/internal/services"
	"gdpwaterfall/pkg/contracts/domain"
)

// ChartServiceInterface defines the chart operations the handlers need
type ChartServiceInterface interface {
	Countries(ctx context.Context) (domain.CountryList, error)
	Waterfall(ctx context.Context, country string) (*domain.WaterfallChart, error)
	ExportableWaterfall(ctx context.Context, country string) (*domain.WaterfallChart, error)
	RecordExport(ctx context.Context, format string)
}

// HealthServiceInterface defines the health operations the handlers need
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
