// Package consumer runs the single dispatch loop bridging the mailbox
// to the native runtime, the coordination service and the event log.
package consumer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"ha-bridge/internal/domain"
	"ha-bridge/internal/mailbox"
	"ha-bridge/internal/metrics"
)

// State is the consumer's lifecycle phase.
type State int32

const (
	StateWaiting State = iota
	StateDispatching
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateDispatching:
		return "dispatching"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const (
	defaultPollInterval      = 200 * time.Millisecond
	defaultRetryInterval     = 5 * time.Second
	defaultRepairStatusDelay = 5 * time.Second
)

// Options wires the consumer's collaborators and timing.
type Options struct {
	Mailbox      *mailbox.Mailbox
	Runtime      domain.NativeRuntime
	Link         domain.HALink
	Coordination domain.CoordinationClient
	EventLog     domain.EventLogPublisher
	Logger       *slog.Logger

	// PollInterval is the wait between empty mailbox checks; the stop
	// signal is only observed after such a wait.
	PollInterval time.Duration
	// RetryInterval is the fixed wait of the indefinite retry policy.
	RetryInterval time.Duration
	// RepairStatusDelay is the fixed delay of the repair-status stub.
	RepairStatusDelay time.Duration
}

// Consumer is the single goroutine draining the mailbox. It is the
// only consumer, so messages are handled strictly in enqueue order and
// one at a time; a message picked up before a stop request always runs
// to completion, retries included.
type Consumer struct {
	mbox              *mailbox.Mailbox
	runtime           domain.NativeRuntime
	link              domain.HALink
	coord             domain.CoordinationClient
	eventLog          domain.EventLogPublisher
	retryer           *Retryer
	pollInterval      time.Duration
	repairStatusDelay time.Duration

	stopRequested atomic.Bool
	state         atomic.Int32
	done          chan struct{}

	logger *slog.Logger
	tracer trace.Tracer

	// wait suspends the loop between empty mailbox checks; sleep backs
	// the repair-status stub delay. Both overridable in tests.
	wait  func(time.Duration)
	sleep func(time.Duration)
}

func New(opts Options) *Consumer {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	if opts.RepairStatusDelay <= 0 {
		opts.RepairStatusDelay = defaultRepairStatusDelay
	}

	logger := opts.Logger.With("component", "consumer")
	return &Consumer{
		mbox:              opts.Mailbox,
		runtime:           opts.Runtime,
		link:              opts.Link,
		coord:             opts.Coordination,
		eventLog:          opts.EventLog,
		retryer:           NewRetryer(opts.RetryInterval, opts.Logger),
		pollInterval:      opts.PollInterval,
		repairStatusDelay: opts.RepairStatusDelay,
		done:              make(chan struct{}),
		logger:            logger,
		tracer:            otel.Tracer("ha-bridge-consumer"),
		wait:              time.Sleep,
		sleep:             time.Sleep,
	}
}

// Run executes the dispatch loop on the calling goroutine until a stop
// request is observed. The goroutine is adopted by the native runtime
// for the whole lifetime of the loop and released on the way out.
func (c *Consumer) Run() error {
	defer close(c.done)

	if err := c.runtime.AdoptThread(); err != nil {
		c.state.Store(int32(StateStopped))
		return fmt.Errorf("failed to adopt native runtime thread: %w", err)
	}
	c.logger.Info("consumer loop started")

	for {
		c.state.Store(int32(StateWaiting))
		metrics.MailboxDepth.Set(float64(c.mbox.Len()))

		msg, err := c.mbox.Dequeue()
		if err != nil {
			if errors.Is(err, domain.ErrMailboxClosed) {
				break
			}
			if !errors.Is(err, mailbox.ErrEmpty) {
				c.logger.Error("mailbox dequeue failed", "error", err)
			}
			// Empty: wait one interval, then honour a pending stop
			// before polling again. A message enqueued during this
			// final wait stays in the mailbox.
			c.wait(c.pollInterval)
			if c.stopRequested.Load() {
				break
			}
			continue
		}

		// A dequeued message is dispatched even if a stop arrived in
		// the meantime; stop means "no new work", not "abort work".
		c.state.Store(int32(StateDispatching))
		c.dispatchContained(msg)
	}

	c.state.Store(int32(StateStopping))
	c.logger.Info("consumer loop stopping")
	c.runtime.ReleaseThread()
	c.state.Store(int32(StateStopped))
	c.logger.Info("consumer loop stopped")
	return nil
}

// Stop requests cooperative termination. It never interrupts the
// message currently being dispatched.
func (c *Consumer) Stop() {
	c.stopRequested.Store(true)
}

// Done is closed once the loop has fully exited and the native runtime
// thread has been released.
func (c *Consumer) Done() <-chan struct{} {
	return c.done
}

func (c *Consumer) State() State {
	return State(c.state.Load())
}

// dispatchContained shields the loop from a failing handler: the error
// (or panic) is logged with its context, the message is dropped, and
// the loop moves on to the next message. Nothing escalates past here.
func (c *Consumer) dispatchContained(msg domain.Message) {
	kind := kindOf(msg)
	defer func() {
		if rec := recover(); rec != nil {
			metrics.MessagesDispatchedTotal.WithLabelValues(kind, "failed").Inc()
			metrics.MessagesDroppedTotal.WithLabelValues(kind).Inc()
			c.logger.Error("panic while dispatching message, message dropped",
				"kind", kind, "panic", rec)
		}
	}()

	if err := c.dispatch(msg); err != nil {
		metrics.MessagesDispatchedTotal.WithLabelValues(kind, "failed").Inc()
		metrics.MessagesDroppedTotal.WithLabelValues(kind).Inc()
		c.logger.Error("failed to dispatch message, message dropped",
			"kind", kind, "error", err)
		return
	}
	metrics.MessagesDispatchedTotal.WithLabelValues(kind, "success").Inc()
}
