package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shalbulov/zentro-risk-prediction/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
)

const meterName = "zentro-risk-prediction"

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "auth.request.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)
	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

// AuthMetrics carries the instruments for the auth flows. A nil receiver
// is a no-op so tests can pass nil without wiring a provider.
type AuthMetrics struct {
	flowCounter metric.Int64Counter
	mailCounter metric.Int64Counter
	reqDuration metric.Float64Histogram
}

func NewAuthMetrics() (*AuthMetrics, error) {
	meter := otel.Meter(meterName)

	flowCounter, err := meter.Int64Counter(
		"auth.flow.events",
		metric.WithDescription("Outcomes of auth flow operations"),
	)
	if err != nil {
		return nil, err
	}
	mailCounter, err := meter.Int64Counter(
		"mail.delivery.events",
		metric.WithDescription("Outcomes of verification email deliveries"),
	)
	if err != nil {
		return nil, err
	}
	reqDuration, err := meter.Float64Histogram(
		"auth.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of auth endpoint requests in seconds"),
	)
	if err != nil {
		return nil, err
	}

	return &AuthMetrics{
		flowCounter: flowCounter,
		mailCounter: mailCounter,
		reqDuration: reqDuration,
	}, nil
}

// Record counts one auth operation. The outcome must come from a closed
// set of labels; free-form error text would explode cardinality.
func (m *AuthMetrics) Record(ctx context.Context, flow, outcome string) {
	if m == nil {
		return
	}
	m.flowCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("outcome", outcome),
	))
	if outcome == "delivery_failed" {
		m.mailCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("flow", flow),
			attribute.String("outcome", "error"),
		))
	}
}

func (m *AuthMetrics) RecordDuration(ctx context.Context, endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.reqDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.Int("status", status),
	))
}
