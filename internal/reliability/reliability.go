// Package reliability implements sequence-numbered, ACK-driven
// retransmission with out-of-order buffering, wrapped conceptually around
// each transport stream. Over the QUIC and WebRTC substrates the stream
// itself already provides ordered reliable delivery, so the orchestrator
// uses only the sequence, ACK/RTT and in-flight bookkeeping here; the
// retransmission and reorder paths serve a raw-UDP substrate where nothing
// else guarantees ordering.
package reliability

import (
	"time"
)

const defaultRTO = 100 * time.Millisecond

type sentPacket struct {
	data       []byte
	sentAt     time.Time
	retryCount uint32
}

type receivedPacket struct {
	data       []byte
	receivedAt time.Time
}

// Retransmission is one entry returned by GetRetransmissions.
type Retransmission struct {
	Sequence uint64
	Data     []byte
}

// Layer tracks in-flight sends awaiting ACK and buffers out-of-order
// receives until they can be delivered contiguously. Not safe for
// concurrent use without external synchronization — callers own a Layer
// per connection and drive it from a single goroutine.
type Layer struct {
	nextSequence uint64
	sentPackets  map[uint64]*sentPacket
	receiveBuf   map[uint64]*receivedPacket
	nextExpected uint64
	maxRetries   uint32
	rto          time.Duration

	now func() time.Time // overridable for deterministic tests
}

// New returns a Layer with the given retry budget and the default 100ms
// RTO; sequence numbering starts at 0.
func New(maxRetries uint32) *Layer {
	return &Layer{
		sentPackets: make(map[uint64]*sentPacket),
		receiveBuf:  make(map[uint64]*receivedPacket),
		maxRetries:  maxRetries,
		rto:         defaultRTO,
		now:         time.Now,
	}
}

// NextSequence allocates and increments the send sequence counter. Strictly
// increasing and never reused within a connection.
func (l *Layer) NextSequence() uint64 {
	seq := l.nextSequence
	l.nextSequence++
	return seq
}

// TrackSent records that data was sent under sequence at the current time.
func (l *Layer) TrackSent(sequence uint64, data []byte) {
	l.sentPackets[sequence] = &sentPacket{data: data, sentAt: l.now()}
}

// ProcessAck removes the in-flight entry for sequence and returns the
// elapsed RTT it measured, or false if no such entry exists (late or
// duplicate ACK).
func (l *Layer) ProcessAck(sequence uint64) (time.Duration, bool) {
	p, ok := l.sentPackets[sequence]
	if !ok {
		return 0, false
	}
	delete(l.sentPackets, sequence)
	return l.now().Sub(p.sentAt), true
}

// GetRetransmissions returns every in-flight packet whose RTO has elapsed
// and whose retry budget isn't exhausted, bumping retry_count and resetting
// sent_at as a side effect. Packets that reach max_retries are left in
// sentPackets, are listed by Exhausted, and are never retried again.
func (l *Layer) GetRetransmissions() []Retransmission {
	now := l.now()
	var out []Retransmission
	for seq, p := range l.sentPackets {
		if now.Sub(p.sentAt) > l.rto && p.retryCount < l.maxRetries {
			p.retryCount++
			p.sentAt = now
			out = append(out, Retransmission{Sequence: seq, Data: p.data})
		}
	}
	return out
}

// Exhausted reports the sequences whose retry budget has been used up.
// internal/orchestrator does not call it (nor GetRetransmissions).
func (l *Layer) Exhausted() []uint64 {
	var out []uint64
	for seq, p := range l.sentPackets {
		if p.retryCount >= l.maxRetries {
			out = append(out, seq)
		}
	}
	return out
}

// ProcessReceived stores an inbound packet in the reorder buffer and
// greedily drains every contiguous sequence starting at next_expected,
// returning the delivered payloads in order.
func (l *Layer) ProcessReceived(sequence uint64, data []byte) [][]byte {
	l.receiveBuf[sequence] = &receivedPacket{data: data, receivedAt: l.now()}

	var delivered [][]byte
	for {
		p, ok := l.receiveBuf[l.nextExpected]
		if !ok {
			break
		}
		delivered = append(delivered, p.data)
		delete(l.receiveBuf, l.nextExpected)
		l.nextExpected++
	}
	return delivered
}

// UpdateRTO recomputes the retransmission timeout as rtt * 1.5.
func (l *Layer) UpdateRTO(rtt time.Duration) {
	l.rto = time.Duration(float64(rtt) * 1.5)
}

// RTO returns the current retransmission timeout.
func (l *Layer) RTO() time.Duration {
	return l.rto
}

// InFlight returns the number of unacknowledged sent packets.
func (l *Layer) InFlight() int {
	return len(l.sentPackets)
}
