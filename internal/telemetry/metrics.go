package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cuihairu/keeperhub/internal/ingest"
	"github.com/cuihairu/keeperhub/internal/parser"
)

const (
	ArtifactKey   = attribute.Key("ingest.artifact")
	ResultKey     = attribute.Key("ingest.result")
	ParserModeKey = attribute.Key("parser.mode")
	EventTypeKey  = attribute.Key("event.type")
)

// IngestMetrics implements ingest.Metrics on OpenTelemetry instruments.
type IngestMetrics struct {
	results        metric.Int64Counter
	parserDuration metric.Float64Histogram
	events         metric.Int64Counter
}

func NewIngestMetrics(meter metric.Meter) (*IngestMetrics, error) {
	results, err := meter.Int64Counter("keeperhub.ingest.results",
		metric.WithDescription("Upload outcomes by artifact kind and result"),
		metric.WithUnit("{upload}"),
	)
	if err != nil {
		return nil, err
	}
	parserDuration, err := meter.Float64Histogram("keeperhub.parser.duration",
		metric.WithDescription("Wall time of external parser runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	events, err := meter.Int64Counter("keeperhub.events.recorded",
		metric.WithDescription("Game events stored by type"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}
	return &IngestMetrics{results: results, parserDuration: parserDuration, events: events}, nil
}

func (m *IngestMetrics) Result(ctx context.Context, a ingest.Artifact, result string) {
	m.results.Add(ctx, 1, metric.WithAttributes(ArtifactKey.String(a.String()), ResultKey.String(result)))
}

func (m *IngestMetrics) ParserDuration(ctx context.Context, mode parser.Mode, d time.Duration) {
	m.parserDuration.Record(ctx, d.Seconds(), metric.WithAttributes(ParserModeKey.String(mode.String())))
}

// EventRecorded counts one stored game event.
func (m *IngestMetrics) EventRecorded(ctx context.Context, eventType string) {
	m.events.Add(ctx, 1, metric.WithAttributes(EventTypeKey.String(eventType)))
}

var _ ingest.Metrics = (*IngestMetrics)(nil)
