package domain

import "time"

// Message is the closed set of commands understood by the consumer
// loop. Variants are immutable records; the marker method keeps the
// set closed so the dispatch switch stays exhaustive.
type Message interface {
	isMessage()
}

// MessageID correlates a broadcast delivery with its acknowledgement
// from the native runtime side. Opaque to the dispatch logic.
type MessageID string

// HAStatus is the reported health of a process.
type HAStatus string

const (
	HAStatusUnknown   HAStatus = "unknown"
	HAStatusOnline    HAStatus = "online"
	HAStatusOffline   HAStatus = "offline"
	HAStatusTransient HAStatus = "transient"
	HAStatusFailed    HAStatus = "failed"
)

// HAState pairs a process fid with its reported health.
type HAState struct {
	Fid    Fid      `json:"fid"`
	Status HAStatus `json:"status"`
}

// ProcessEventType describes a process lifecycle transition.
type ProcessEventType string

const (
	ProcessStarting ProcessEventType = "starting"
	ProcessStarted  ProcessEventType = "started"
	ProcessStopping ProcessEventType = "stopping"
	ProcessStopped  ProcessEventType = "stopped"
)

// ProcessStatusEvent is a lifecycle transition to be recorded in the
// coordination service.
type ProcessStatusEvent struct {
	Fid  Fid              `json:"fid"`
	Type ProcessEventType `json:"type"`
	At   time.Time        `json:"at"`
}

// RepairStatusItem is one unit of repair progress reported back to a
// repair-status requester.
type RepairStatusItem struct {
	Fid      Fid    `json:"fid"`
	Progress int    `json:"progress"`
	Status   string `json:"status"`
}

// EntrypointRequest asks for a cluster entrypoint reply to be sent to
// the requesting process over the embedded link.
type EntrypointRequest struct {
	Link       HALink
	ProcessFid Fid
	RequestID  string
}

// ProcessEvent carries a process lifecycle transition for the
// coordination service.
type ProcessEvent struct {
	Evt ProcessStatusEvent
}

// NvecGetEvent asks for the current note vector (the HA states of the
// listed fids) to be replied over the embedded link under the given
// exchange id.
type NvecGetEvent struct {
	Link HALink
	ID   uint64
	Fids []Fid
}

// BroadcastHAStates asks for the states to be broadcast cluster-wide.
// ReplyTo, when non-nil, receives the correlation ids of the
// deliveries; when nil the broadcast is fire-and-forget.
type BroadcastHAStates struct {
	States  []HAState
	ReplyTo *Reply[[]MessageID]
}

// StobIoqError reports a storage I/O queue error raised by the native
// runtime. It is published verbatim to the event log.
type StobIoqError struct {
	Fid     Fid   `json:"fid"`
	SdevFid Fid   `json:"sdev_fid"`
	Opcode  int   `json:"opcode"`
	RC      int   `json:"rc"`
	Offset  int64 `json:"offset"`
	Size    int64 `json:"size"`
}

// SnsRepairStatusRequest asks for the current repair progress to be
// delivered to the attached reply channel.
type SnsRepairStatusRequest struct {
	ReplyTo *Reply[[]RepairStatusItem]
}

func (EntrypointRequest) isMessage()      {}
func (ProcessEvent) isMessage()           {}
func (NvecGetEvent) isMessage()           {}
func (BroadcastHAStates) isMessage()      {}
func (StobIoqError) isMessage()           {}
func (SnsRepairStatusRequest) isMessage() {}
