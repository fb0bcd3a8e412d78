// Package health periodically refreshes this node's HA state.
package health

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"ha-bridge/internal/domain"
	"ha-bridge/internal/mailbox"
)

// Broadcaster enqueues a BroadcastHAStates message for the local node
// on a cron schedule. Going through the mailbox keeps the periodic
// refresh on the same strictly ordered path as on-demand broadcasts.
type Broadcaster struct {
	cron    *cron.Cron
	mbox    *mailbox.Mailbox
	nodeFid domain.Fid
	spec    string
	logger  *slog.Logger
}

func NewBroadcaster(mbox *mailbox.Mailbox, nodeFid domain.Fid, spec string, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		cron:    cron.New(cron.WithSeconds()),
		mbox:    mbox,
		nodeFid: nodeFid,
		spec:    spec,
		logger:  logger.With("component", "health-broadcaster"),
	}
}

func (b *Broadcaster) Start() error {
	job := &refreshJob{
		mbox:    b.mbox,
		nodeFid: b.nodeFid,
		logger:  b.logger,
	}
	if _, err := b.cron.AddJob(b.spec, job); err != nil {
		return fmt.Errorf("failed to schedule health broadcast: %w", err)
	}
	b.cron.Start()
	b.logger.Info("health broadcaster started", "schedule", b.spec)
	return nil
}

// Stop halts the schedule and waits for an in-flight enqueue to finish.
func (b *Broadcaster) Stop() {
	stopCtx := b.cron.Stop()
	<-stopCtx.Done()
	b.logger.Info("health broadcaster stopped")
}

// refreshJob is called by the cron library. Its only job is to enqueue
// the local node's state; no reply channel, fire-and-forget.
type refreshJob struct {
	mbox    *mailbox.Mailbox
	nodeFid domain.Fid
	logger  *slog.Logger
}

func (j *refreshJob) Run() {
	msg := domain.BroadcastHAStates{
		States: []domain.HAState{{Fid: j.nodeFid, Status: domain.HAStatusOnline}},
	}
	if err := j.mbox.Enqueue(msg); err != nil {
		j.logger.Warn("failed to enqueue health broadcast", "error", err)
		return
	}
	j.logger.Debug("health broadcast enqueued", "node_fid", j.nodeFid)
}
