package domain

import "context"

// HALink delivers replies and state broadcasts towards the native
// runtime side of the bridge.
type HALink interface {
	// SendEntrypointReply answers an entrypoint request. A failure is
	// not retried: the requesting process observes a transient error
	// and re-issues the request itself.
	SendEntrypointReply(ctx context.Context, req EntrypointRequest) error
	// SendNvecReply publishes the note vector for the fids named in
	// the event.
	SendNvecReply(ctx context.Context, ev NvecGetEvent) error
	// BroadcastStates broadcasts the given states cluster-wide and
	// returns one correlation id per delivery.
	BroadcastStates(ctx context.Context, states []HAState) ([]MessageID, error)
}

// CoordinationClient is the boundary to the cluster coordination
// service. Calls may fail transiently and are safe to repeat.
type CoordinationClient interface {
	UpdateProcessStatus(ctx context.Context, evt ProcessStatusEvent) error
}

// EventLogPublisher appends categorized payloads to the external
// append-only event log and returns the sequence offset of the entry.
type EventLogPublisher interface {
	Publish(ctx context.Context, category string, payload []byte) (int64, error)
}

// NativeRuntime brackets the thread-affinity contract of the native
// storage runtime: the consumer goroutine must be adopted before any
// native call and released exactly once during shutdown.
type NativeRuntime interface {
	AdoptThread() error
	ReleaseThread()
}
