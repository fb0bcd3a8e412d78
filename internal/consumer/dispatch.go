package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ha-bridge/internal/domain"
)

// StobIoqCategory is the fixed event-log category for storage I/O
// queue errors.
const StobIoqCategory = "stob-ioq"

// kindOf names a message variant for logs and metrics.
func kindOf(msg domain.Message) string {
	switch msg.(type) {
	case domain.EntrypointRequest:
		return "entrypoint-request"
	case domain.ProcessEvent:
		return "process-event"
	case domain.NvecGetEvent:
		return "nvec-get"
	case domain.BroadcastHAStates:
		return "broadcast-ha-states"
	case domain.StobIoqError:
		return "stob-ioq-error"
	case domain.SnsRepairStatusRequest:
		return "sns-repair-status"
	default:
		return "unsupported"
	}
}

// dispatch routes a message to its handling action. The switch is
// total over the closed message set; anything else lands in the
// default arm, which warns and takes no action.
func (c *Consumer) dispatch(msg domain.Message) error {
	ctx, span := c.tracer.Start(context.Background(), "consumer.Dispatch",
		trace.WithAttributes(attribute.String("message.kind", kindOf(msg))))
	defer span.End()

	switch m := msg.(type) {
	case domain.EntrypointRequest:
		c.logger.Debug("replying to entrypoint request",
			"process_fid", m.ProcessFid, "request_id", m.RequestID)
		// Not retried: on failure the requesting process sees a
		// transient error and re-issues the request itself.
		if err := m.Link.SendEntrypointReply(ctx, m); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "entrypoint reply failed")
			return fmt.Errorf("entrypoint reply for %s failed: %w", m.ProcessFid, err)
		}

	case domain.ProcessEvent:
		attempts := c.retryer.Do(ctx, "update-process-status", func(ctx context.Context) error {
			return c.coord.UpdateProcessStatus(ctx, m.Evt)
		})
		span.SetAttributes(attribute.Int("attempts", attempts))
		c.logger.Debug("process status updated",
			"process_fid", m.Evt.Fid, "event", string(m.Evt.Type), "attempts", attempts)

	case domain.NvecGetEvent:
		attempts := c.retryer.Do(ctx, "nvec-reply", func(ctx context.Context) error {
			return m.Link.SendNvecReply(ctx, m)
		})
		span.SetAttributes(attribute.Int("attempts", attempts))

	case domain.BroadcastHAStates:
		c.logger.Info("broadcasting HA states", "states", len(m.States))
		ids, err := c.link.BroadcastStates(ctx, m.States)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "broadcast failed")
			return fmt.Errorf("broadcast of %d states failed: %w", len(m.States), err)
		}
		if m.ReplyTo != nil {
			m.ReplyTo.Deliver(ids)
		}

	case domain.StobIoqError:
		c.logger.Info("stob I/O queue error reported", "fid", m.Fid)
		payload, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to serialize stob ioq error for %s: %w", m.Fid, err)
		}
		offset, err := c.eventLog.Publish(ctx, StobIoqCategory, payload)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "event log publish failed")
			return fmt.Errorf("failed to publish stob ioq error for %s: %w", m.Fid, err)
		}
		c.logger.Debug("stob ioq error published", "offset", offset)

	case domain.SnsRepairStatusRequest:
		c.logger.Info("requesting SNS repair status")
		// TODO: query the repair subsystem for real progress instead
		// of the fixed placeholder below.
		c.sleep(c.repairStatusDelay)
		c.logger.Info("SNS repair status received")
		m.ReplyTo.Deliver([]domain.RepairStatusItem{{
			Fid:      domain.Fid{Container: 0x7200000000000001, Key: 0xdeadbeef},
			Progress: 25,
			Status:   "M0_CMS_ACTIVE",
		}})

	default:
		c.logger.Warn("unsupported message kind received", "type", fmt.Sprintf("%T", msg))
	}
	return nil
}
