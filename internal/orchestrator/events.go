package orchestrator

import "github.com/breeze-rmm/streamcore/internal/transport"

// EventKind identifies which TransportEvent variant occurred.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventError
	EventStatsUpdate
)

// Event is the user-visible signal the orchestrator emits on its Events
// channel; higher layers choose how to present it.
type Event struct {
	Kind   EventKind
	Addr   string // set on EventConnected
	Reason string // set on EventDisconnected
	Err    error  // set on EventError
	Stats  transport.Stats
}
