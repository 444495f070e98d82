package reliability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSequenceStrictlyIncreasing(t *testing.T) {
	l := New(3)
	assert.Equal(t, uint64(0), l.NextSequence())
	assert.Equal(t, uint64(1), l.NextSequence())
	assert.Equal(t, uint64(2), l.NextSequence())
}

func TestTrackSentAndProcessAck(t *testing.T) {
	l := New(3)
	seq := l.NextSequence()
	l.TrackSent(seq, []byte("payload"))
	assert.Equal(t, 1, l.InFlight())

	rtt, ok := l.ProcessAck(seq)
	require.True(t, ok)
	assert.GreaterOrEqual(t, rtt, time.Duration(0))
	assert.Equal(t, 0, l.InFlight())

	// Duplicate/late ACK on a removed sequence.
	_, ok = l.ProcessAck(seq)
	assert.False(t, ok)
}

// S4 — reorder buffer.
func TestProcessReceivedReorderBuffer(t *testing.T) {
	l := New(3)

	d1 := l.ProcessReceived(2, []byte("2"))
	assert.Empty(t, d1)

	d2 := l.ProcessReceived(0, []byte("0"))
	assert.Equal(t, [][]byte{[]byte("0")}, d2)

	d3 := l.ProcessReceived(1, []byte("1"))
	assert.Equal(t, [][]byte{[]byte("1"), []byte("2")}, d3)
}

func TestGetRetransmissionsRespectsRTOAndMaxRetries(t *testing.T) {
	l := New(1)
	now := time.Now()
	l.now = func() time.Time { return now }

	seq := l.NextSequence()
	l.TrackSent(seq, []byte("x"))

	// Not yet past RTO.
	assert.Empty(t, l.GetRetransmissions())

	now = now.Add(200 * time.Millisecond)
	retrans := l.GetRetransmissions()
	require.Len(t, retrans, 1)
	assert.Equal(t, seq, retrans[0].Sequence)

	// retry_count is now 1 == max_retries; a further RTO elapse yields no more retransmissions.
	now = now.Add(200 * time.Millisecond)
	assert.Empty(t, l.GetRetransmissions())
	assert.Equal(t, []uint64{seq}, l.Exhausted())
}

func TestUpdateRTO(t *testing.T) {
	l := New(3)
	l.UpdateRTO(100 * time.Millisecond)
	assert.Equal(t, 150*time.Millisecond, l.RTO())
}
