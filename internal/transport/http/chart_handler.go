package http

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "gdpwaterfall/internal/errors"
	"gdpwaterfall/internal/exporter"
	"gdpwaterfall/internal/infrastructure"
	"gdpwaterfall/internal/middleware"
)

type ctxKey string

const countryCtxKey ctxKey = "country"

// countryParams is the bound {country} path parameter
type countryParams struct {
	Country string `json:"country" validate:"required,max=128,country"`
}

// exportQuery is the bound query of the export endpoint
type exportQuery struct {
	Format string `json:"format" validate:"omitempty,oneof=csv xlsx"`
}

// ChartHandler serves country lists, waterfall charts and their downloads
type ChartHandler struct {
	service      ChartServiceInterface
	validator    *middleware.Validator
	exportOpts   exporter.Options
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewChartHandler creates a new chart handler
func NewChartHandler(service ChartServiceInterface, exportOpts exporter.Options, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ChartHandler {
	return &ChartHandler{
		service:      service,
		validator:    middleware.NewValidator(),
		exportOpts:   exportOpts,
		logger:       infrastructure.WithComponent(logger, "chart_handler"),
		errorHandler: errorHandler,
	}
}

// Routes returns the chart routes, mounted under /api/countries
func (h *ChartHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/", h.ListCountries)

	r.Route("/{country}", func(r chi.Router) {
		r.Use(h.CountryCtx)
		r.With(render.SetContentType(render.ContentTypeJSON)).Get("/waterfall", h.GetWaterfall)
		r.Get("/waterfall/export", h.ExportWaterfall)
	})

	return r
}

// CountryCtx decodes and validates the {country} parameter
func (h *ChartHandler) CountryCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "country")
		country, err := url.PathUnescape(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("country", "country is not a valid path segment"))
			return
		}

		params := countryParams{Country: strings.TrimSpace(country)}
		if err := h.validator.ValidateStruct(params); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), countryCtxKey, params.Country)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func countryFromContext(ctx context.Context) string {
	country, _ := ctx.Value(countryCtxKey).(string)
	return country
}

// ListCountries handles GET /api/countries
func (h *ChartHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Countries(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, list)
}

// GetWaterfall handles GET /api/countries/{country}/waterfall.
// A country without valid values is answered with 200 and state no_data.
func (h *ChartHandler) GetWaterfall(w http.ResponseWriter, r *http.Request) {
	country := countryFromContext(r.Context())

	chart, err := h.service.Waterfall(r.Context(), country)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "waterfall served",
		slog.String("country", chart.Country),
		slog.String("state", string(chart.State)),
		slog.Int("items", len(chart.Items)))
	render.JSON(w, r, chart)
}

// ExportWaterfall handles GET /api/countries/{country}/waterfall/export
func (h *ChartHandler) ExportWaterfall(w http.ResponseWriter, r *http.Request) {
	query := exportQuery{Format: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))}
	if err := h.validator.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	format, err := exporter.ParseFormat(query.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}

	chart, err := h.service.ExportableWaterfall(r.Context(), countryFromContext(r.Context()))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	// Buffer the file so a write failure can still become a problem response
	var buf bytes.Buffer
	if err := exporter.Write(&buf, format, chart, h.exportOpts); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("export %s: %w", format, err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.Filename(chart.Country)))
	size := buf.Len()
	w.Header().Set("Content-Length", strconv.Itoa(size))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted", slog.String("error", err.Error()))
		return
	}

	h.service.RecordExport(r.Context(), string(format))
	h.logger.InfoContext(r.Context(), "waterfall exported",
		slog.String("country", chart.Country),
		slog.String("format", string(format)),
		slog.Int("bytes", size))
}
