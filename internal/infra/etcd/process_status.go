package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ha-bridge/internal/domain"
)

const (
	// ProcessStatusDir is the etcd prefix holding per-process status.
	ProcessStatusDir = "/ha/processes/"
)

type processStatusClient struct {
	client *clientv3.Client
	logger *slog.Logger
	tracer trace.Tracer
}

// NewProcessStatusClient creates the coordination-service client
// recording process lifecycle status in etcd.
func NewProcessStatusClient(client *clientv3.Client, logger *slog.Logger) domain.CoordinationClient {
	return &processStatusClient{
		client: client,
		logger: logger.With("component", "process-status-client"),
		tracer: otel.Tracer("ha-bridge-etcd-process-status"),
	}
}

// UpdateProcessStatus persists the event under /ha/processes/{fid}.
// An etcd failure is returned as-is; the caller owns the retry policy.
func (c *processStatusClient) UpdateProcessStatus(ctx context.Context, evt domain.ProcessStatusEvent) error {
	ctx, span := c.tracer.Start(ctx, "coordination.etcd.UpdateProcessStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("process.fid", evt.Fid.String()),
		attribute.String("event.type", string(evt.Type)),
	)

	statusJSON, err := json.Marshal(evt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal process status event")
		return fmt.Errorf("failed to marshal process status event for %s: %w", evt.Fid, err)
	}

	key := path.Join(ProcessStatusDir, evt.Fid.String())
	span.SetAttributes(attribute.String("etcd.key", key))

	if _, err := c.client.Put(ctx, key, string(statusJSON)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to put process status to etcd")
		return fmt.Errorf("failed to update process status for %s: %w", evt.Fid, err)
	}
	c.logger.Debug("process status updated", "key", key, "event", string(evt.Type))
	return nil
}
