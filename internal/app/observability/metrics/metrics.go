// Package metrics holds the application's metric instruments.
package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// AppMetrics holds the instruments for the generation pipeline and the HTTP
// surface in front of it.
type AppMetrics struct {
	HTTPRequestsTotal       metric.Int64Counter
	HTTPRequestDuration     metric.Float64Histogram
	GenerationRequestsTotal metric.Int64Counter
	GeneratedIdeasTotal     metric.Int64Counter
	ModelFailoversTotal     metric.Int64Counter
	VenueLookupsTotal       metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global instruments once, from the globally
// configured MeterProvider.
func InitAppMetrics(logger *zap.Logger) {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("decisionjar-backend")
		m := &AppMetrics{}

		var err error
		if m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		); err != nil {
			logger.Fatal("Failed to create http_requests_total", zap.Error(err))
		}

		if m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		); err != nil {
			logger.Fatal("Failed to create http_request_duration_seconds", zap.Error(err))
		}

		if m.GenerationRequestsTotal, err = meter.Int64Counter(
			"generation_requests_total",
			metric.WithDescription("Total number of bulk-generation requests completed"),
			metric.WithUnit("{request}"),
		); err != nil {
			logger.Fatal("Failed to create generation_requests_total", zap.Error(err))
		}

		if m.GeneratedIdeasTotal, err = meter.Int64Counter(
			"generated_ideas_total",
			metric.WithDescription("Total number of ideas produced by generation or lookup"),
			metric.WithUnit("{idea}"),
		); err != nil {
			logger.Fatal("Failed to create generated_ideas_total", zap.Error(err))
		}

		if m.ModelFailoversTotal, err = meter.Int64Counter(
			"model_failovers_total",
			metric.WithDescription("Total number of single-model attempt failures that triggered failover"),
			metric.WithUnit("{attempt}"),
		); err != nil {
			logger.Fatal("Failed to create model_failovers_total", zap.Error(err))
		}

		if m.VenueLookupsTotal, err = meter.Int64Counter(
			"venue_lookups_total",
			metric.WithDescription("Total number of venue-lookup invocations"),
			metric.WithUnit("{lookup}"),
		); err != nil {
			logger.Fatal("Failed to create venue_lookups_total", zap.Error(err))
		}

		appMetrics = m
	})
}

// Get returns the globally initialized instruments, or nil before
// InitAppMetrics has run (tests, early startup). Callers must nil-check.
func Get() *AppMetrics {
	return appMetrics
}

// RecordGeneration counts one completed bulk-generation request.
func RecordGeneration(ctx context.Context, ideaCount int, preview bool) {
	m := Get()
	if m == nil {
		return
	}
	m.GenerationRequestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("preview", preview),
	))
	m.GeneratedIdeasTotal.Add(ctx, int64(ideaCount))
}

// RecordModelFailover counts one failed single-model attempt.
func RecordModelFailover(ctx context.Context, model string) {
	m := Get()
	if m == nil {
		return
	}
	m.ModelFailoversTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
	))
}

// RecordVenueLookup counts one venue-lookup invocation.
func RecordVenueLookup(ctx context.Context, tool string, results int) {
	m := Get()
	if m == nil {
		return
	}
	m.VenueLookupsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.Bool("empty", results == 0),
	))
}
