package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

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

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	platformFetches      metric.Int64Counter
	refreshCoalesced     metric.Int64Counter
	snapshotWrites       metric.Int64Counter
	notificationsEmitted metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "encore"
	}
	meter := provider.Meter(name)

	platformFetches, err := meter.Int64Counter("encore_platform_fetches_total")
	if err != nil {
		return nil, err
	}
	refreshCoalesced, err := meter.Int64Counter("encore_refresh_coalesced_total")
	if err != nil {
		return nil, err
	}
	snapshotWrites, err := meter.Int64Counter("encore_snapshot_writes_total")
	if err != nil {
		return nil, err
	}
	notificationsEmitted, err := meter.Int64Counter("encore_notifications_emitted_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		platformFetches:      platformFetches,
		refreshCoalesced:     refreshCoalesced,
		snapshotWrites:       snapshotWrites,
		notificationsEmitted: notificationsEmitted,
	}, nil
}

// RecordPlatformFetch counts one upstream fetch attempt by outcome.
func (m *Metrics) RecordPlatformFetch(ctx context.Context, platform, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("platform", strings.TrimSpace(platform)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.platformFetches.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRefreshCoalesced counts a refresh that piggybacked on an in-flight fetch.
func (m *Metrics) RecordRefreshCoalesced(ctx context.Context, platform string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("platform", strings.TrimSpace(platform)))
	m.refreshCoalesced.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSnapshotWrite counts snapshot rows by data-source tier.
func (m *Metrics) RecordSnapshotWrite(ctx context.Context, platform, provenance string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("platform", strings.TrimSpace(platform)),
		attribute.String("provenance", strings.TrimSpace(provenance)),
	)
	m.snapshotWrites.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordNotification counts emitted notifications by category.
func (m *Metrics) RecordNotification(ctx context.Context, category, priority string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("category", strings.TrimSpace(category)),
		attribute.String("priority", strings.TrimSpace(priority)),
	)
	m.notificationsEmitted.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"platform":    {},
	"outcome":     {},
	"provenance":  {},
	"category":    {},
	"priority":    {},
	"endpoint":    {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
// Usernames and profile ids never become labels.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
