// Package transport provides the reliable connection abstraction the
// orchestrator sends and receives wire.Message values over. QUIC is the
// primary backend (quic.go in this package); a WebRTC data
// channel backend exists as an alternate substrate for environments where
// QUIC is blocked. A raw-UDP backend is not implemented — without a
// stream abstraction it would need the reliability layer wired in front
// of it, which no caller here currently does.
package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/breeze-rmm/streamcore/internal/wire"
)

// ErrUnsupportedProtocol is returned when a Config names a protocol with
// no backend implementation.
var ErrUnsupportedProtocol = errors.New("transport: unsupported protocol")

// ErrClosed is returned by Send/Receive after Close.
var ErrClosed = errors.New("transport: connection closed")

// ErrProtocolViolation is returned when a peer violates the wire
// contract — currently, a single stream/message exceeding the mtu*10
// receive bound. It is fatal to the connection: the caller should treat
// it the same as a disconnect, not retry the read.
var ErrProtocolViolation = errors.New("transport: protocol violation")

// State tracks a Connection's lifecycle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stats is a point-in-time snapshot of a Connection's traffic counters,
// guarded by its own mutex since it's read from the orchestrator's
// metrics loop and written from the send/receive path.
type Stats struct {
	mu sync.Mutex

	messagesSent     uint64
	messagesReceived uint64
	bytesSent        uint64
	bytesReceived    uint64
	lastRTT          time.Duration
}

func (s *Stats) recordSend(n int) {
	s.mu.Lock()
	s.messagesSent++
	s.bytesSent += uint64(n)
	s.mu.Unlock()
}

func (s *Stats) recordReceive(n int) {
	s.mu.Lock()
	s.messagesReceived++
	s.bytesReceived += uint64(n)
	s.mu.Unlock()
}

func (s *Stats) recordRTT(rtt time.Duration) {
	s.mu.Lock()
	s.lastRTT = rtt
	s.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		messagesSent:     s.messagesSent,
		messagesReceived: s.messagesReceived,
		bytesSent:        s.bytesSent,
		bytesReceived:    s.bytesReceived,
		lastRTT:          s.lastRTT,
	}
}

// MessagesSent returns the number of messages successfully sent.
func (s *Stats) MessagesSent() uint64 { s.mu.Lock(); defer s.mu.Unlock(); return s.messagesSent }

// MessagesReceived returns the number of messages successfully received.
func (s *Stats) MessagesReceived() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesReceived
}

// BytesSent returns the cumulative serialized bytes sent.
func (s *Stats) BytesSent() uint64 { s.mu.Lock(); defer s.mu.Unlock(); return s.bytesSent }

// BytesReceived returns the cumulative serialized bytes received.
func (s *Stats) BytesReceived() uint64 { s.mu.Lock(); defer s.mu.Unlock(); return s.bytesReceived }

// LastRTT returns the most recent RTT sample, if any.
func (s *Stats) LastRTT() time.Duration { s.mu.Lock(); defer s.mu.Unlock(); return s.lastRTT }

// defaultMTU is the assumed path MTU used to bound per-stream/per-message
// receives (mtu*10) when Config.MTU is left unset.
const defaultMTU = 1200

// Config parameterizes a Connection.
type Config struct {
	Protocol           Protocol
	ListenAddr         string
	DialAddr           string
	KeepAlive          time.Duration
	IdleTimeout        time.Duration
	InsecureDevTLS     bool // accept a self-signed peer cert; development only
	MTU                int  // bounds a single receive to MTU*10 bytes; 0 means defaultMTU
}

func (c Config) mtu() int {
	if c.MTU <= 0 {
		return defaultMTU
	}
	return c.MTU
}

// Protocol selects a transport backend.
type Protocol int

const (
	ProtocolQUIC Protocol = iota
	ProtocolWebRTC
	ProtocolUDP // not yet implemented
)

func (p Protocol) String() string {
	switch p {
	case ProtocolQUIC:
		return "quic"
	case ProtocolWebRTC:
		return "webrtc"
	case ProtocolUDP:
		return "udp"
	default:
		return "unknown"
	}
}

// Connection is the transport contract the orchestrator drives: one
// message per call, opaque to the underlying stream/datagram substrate.
type Connection interface {
	Connect(ctx context.Context, addr string) error
	Accept(ctx context.Context) (string, error) // returns peer address
	Send(ctx context.Context, msg wire.Message) error
	Receive(ctx context.Context) (wire.Message, error)
	Close() error
	State() State
	Stats() Stats
}

// New constructs a Connection for cfg.Protocol.
func New(cfg Config) (Connection, error) {
	switch cfg.Protocol {
	case ProtocolQUIC:
		return newQUICConnection(cfg), nil
	case ProtocolWebRTC:
		return newWebRTCConnection(cfg), nil
	default:
		return nil, ErrUnsupportedProtocol
	}
}
