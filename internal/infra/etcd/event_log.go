package etcd

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/rs/xid"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ha-bridge/internal/domain"
	"ha-bridge/internal/metrics"
)

const (
	// EventLogDir is the etcd prefix of the append-only event log.
	EventLogDir = "/ha/eq/"
)

type eventLogPublisher struct {
	client *clientv3.Client
	logger *slog.Logger
	tracer trace.Tracer
}

// NewEventLogPublisher creates the event-log publisher appending
// categorized payloads under /ha/eq/{category}/.
func NewEventLogPublisher(client *clientv3.Client, logger *slog.Logger) domain.EventLogPublisher {
	return &eventLogPublisher{
		client: client,
		logger: logger.With("component", "event-log-publisher"),
		tracer: otel.Tracer("ha-bridge-etcd-event-log"),
	}
}

// Publish appends the payload under the category's prefix. The entry
// key is a fresh xid, so entries sort in publish order; the etcd
// header revision of the put serves as the cluster-wide monotonic
// sequence offset.
func (p *eventLogPublisher) Publish(ctx context.Context, category string, payload []byte) (int64, error) {
	ctx, span := p.tracer.Start(ctx, "eventlog.etcd.Publish")
	defer span.End()

	key := path.Join(EventLogDir, category, xid.New().String())
	span.SetAttributes(
		attribute.String("event.category", category),
		attribute.String("etcd.key", key),
		attribute.Int("payload_size", len(payload)),
	)

	resp, err := p.client.Put(ctx, key, string(payload))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to append event to etcd")
		return 0, fmt.Errorf("failed to append %s event to the log: %w", category, err)
	}

	metrics.EventLogPublishTotal.WithLabelValues(category).Inc()
	offset := resp.Header.Revision
	span.SetAttributes(attribute.Int64("event.offset", offset))
	p.logger.Debug("event published", "category", category, "offset", offset)
	return offset, nil
}
