package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/hostbill/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Metrics exposes application-level instruments for the order pipeline.
type Metrics struct {
	ordersPlaced     metric.Int64Counter
	ordersRejected   metric.Int64Counter
	paymentsDeclined metric.Int64Counter
	actionRequired   metric.Int64Counter
	orderDuration    metric.Float64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Metrics.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.Metrics.Exporter, cfg.Metrics.Endpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down meter provider")
			return provider.Shutdown(ctx)
		},
	})

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.Metrics.Endpoint),
		zap.String("protocol", cfg.Metrics.Exporter),
	)
	return provider, nil
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http":
		return otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "", "grpc":
		return otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported metrics exporter protocol %q", protocol)
	}
}

// NewMetrics builds the instruments used by the order orchestrator.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter("hostbill")

	ordersPlaced, err := meter.Int64Counter("orders_placed_total")
	if err != nil {
		return nil, err
	}
	ordersRejected, err := meter.Int64Counter("orders_rejected_total")
	if err != nil {
		return nil, err
	}
	paymentsDeclined, err := meter.Int64Counter("payments_declined_total")
	if err != nil {
		return nil, err
	}
	actionRequired, err := meter.Int64Counter("payments_action_required_total")
	if err != nil {
		return nil, err
	}
	orderDuration, err := meter.Float64Histogram("order_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ordersPlaced:     ordersPlaced,
		ordersRejected:   ordersRejected,
		paymentsDeclined: paymentsDeclined,
		actionRequired:   actionRequired,
		orderDuration:    orderDuration,
	}, nil
}

func (m *Metrics) RecordOrderPlaced(ctx context.Context, planSlug string, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("plan", planSlug))
	m.ordersPlaced.Add(ctx, 1, attrs)
	m.orderDuration.Record(ctx, seconds, attrs)
}

func (m *Metrics) RecordOrderRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.ordersRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) RecordPaymentDeclined(ctx context.Context) {
	if m == nil {
		return
	}
	m.paymentsDeclined.Add(ctx, 1)
}

func (m *Metrics) RecordPaymentActionRequired(ctx context.Context) {
	if m == nil {
		return
	}
	m.actionRequired.Add(ctx, 1)
}

var Module = fx.Module("observability.metrics",
	fx.Provide(NewProvider),
	fx.Provide(NewMetrics),
)
