package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strconv"

	"github.com/rs/xid"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ha-bridge/internal/domain"
)

const (
	// StateDir holds the last broadcast HA state of every process.
	StateDir = "/ha/states/"
	// EntrypointInfoDir holds the cluster info served to entrypoint requesters.
	EntrypointInfoDir = "/ha/entrypoint/info/"
	// EntrypointReplyDir is where entrypoint replies are delivered.
	EntrypointReplyDir = "/ha/entrypoint/replies/"
	// NvecReplyDir is where note-vector replies are delivered, keyed
	// by exchange id.
	NvecReplyDir = "/ha/nvec/"
)

type haLink struct {
	client *clientv3.Client
	logger *slog.Logger
	tracer trace.Tracer
}

// NewHALink creates the etcd-backed link towards the native runtime
// side: broadcasts mirror process states into the cluster state
// directory, replies are delivered under well-known prefixes.
func NewHALink(client *clientv3.Client, logger *slog.Logger) domain.HALink {
	return &haLink{
		client: client,
		logger: logger.With("component", "ha-link"),
		tracer: otel.Tracer("ha-bridge-etcd-link"),
	}
}

type entrypointReply struct {
	RequestID  string            `json:"request_id"`
	ProcessFid domain.Fid        `json:"process_fid"`
	Cluster    map[string]string `json:"cluster"`
}

// SendEntrypointReply answers an entrypoint request with the cluster
// info currently published under the entrypoint info directory.
func (l *haLink) SendEntrypointReply(ctx context.Context, req domain.EntrypointRequest) error {
	ctx, span := l.tracer.Start(ctx, "link.etcd.SendEntrypointReply")
	defer span.End()
	span.SetAttributes(
		attribute.String("process.fid", req.ProcessFid.String()),
		attribute.String("request.id", req.RequestID),
	)

	resp, err := l.client.Get(ctx, EntrypointInfoDir, clientv3.WithPrefix())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read entrypoint info")
		return fmt.Errorf("failed to read entrypoint info for %s: %w", req.ProcessFid, err)
	}

	info := make(map[string]string, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		info[path.Base(string(kv.Key))] = string(kv.Value)
	}

	reply := entrypointReply{
		RequestID:  req.RequestID,
		ProcessFid: req.ProcessFid,
		Cluster:    info,
	}
	replyJSON, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal entrypoint reply for %s: %w", req.ProcessFid, err)
	}

	key := path.Join(EntrypointReplyDir, req.RequestID)
	if _, err := l.client.Put(ctx, key, string(replyJSON)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deliver entrypoint reply")
		return fmt.Errorf("failed to deliver entrypoint reply for %s: %w", req.ProcessFid, err)
	}
	l.logger.Debug("entrypoint reply delivered", "key", key)
	return nil
}

// SendNvecReply resolves the requested fids against the broadcast
// state directory and publishes the note vector under the exchange id.
// Fids with no recorded state report as unknown.
func (l *haLink) SendNvecReply(ctx context.Context, ev domain.NvecGetEvent) error {
	ctx, span := l.tracer.Start(ctx, "link.etcd.SendNvecReply")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("nvec.id", int64(ev.ID)),
		attribute.Int("nvec.fids", len(ev.Fids)),
	)

	notes := make([]domain.HAState, 0, len(ev.Fids))
	for _, fid := range ev.Fids {
		resp, err := l.client.Get(ctx, path.Join(StateDir, fid.String()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to read process state")
			return fmt.Errorf("failed to read state for %s: %w", fid, err)
		}

		st := domain.HAState{Fid: fid, Status: domain.HAStatusUnknown}
		if len(resp.Kvs) > 0 {
			if err := json.Unmarshal(resp.Kvs[0].Value, &st); err != nil {
				l.logger.Warn("failed to unmarshal recorded state, reporting unknown",
					"fid", fid, "error", err)
				st = domain.HAState{Fid: fid, Status: domain.HAStatusUnknown}
			}
		}
		notes = append(notes, st)
	}

	nvecJSON, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("failed to marshal note vector %d: %w", ev.ID, err)
	}

	key := path.Join(NvecReplyDir, strconv.FormatUint(ev.ID, 10))
	if _, err := l.client.Put(ctx, key, string(nvecJSON)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deliver nvec reply")
		return fmt.Errorf("failed to deliver note vector %d: %w", ev.ID, err)
	}
	l.logger.Debug("note vector delivered", "key", key, "notes", len(notes))
	return nil
}

// BroadcastStates mirrors each state into the cluster state directory
// and mints one correlation id per delivery.
func (l *haLink) BroadcastStates(ctx context.Context, states []domain.HAState) ([]domain.MessageID, error) {
	ctx, span := l.tracer.Start(ctx, "link.etcd.BroadcastStates")
	defer span.End()
	span.SetAttributes(attribute.Int("broadcast.states", len(states)))

	ids := make([]domain.MessageID, 0, len(states))
	for _, st := range states {
		stateJSON, err := json.Marshal(st)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal state for %s: %w", st.Fid, err)
		}

		key := path.Join(StateDir, st.Fid.String())
		if _, err := l.client.Put(ctx, key, string(stateJSON)); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to broadcast state")
			return nil, fmt.Errorf("failed to broadcast state for %s: %w", st.Fid, err)
		}
		ids = append(ids, domain.MessageID(xid.New().String()))
	}

	l.logger.Debug("HA states broadcast", "states", len(states))
	return ids, nil
}
