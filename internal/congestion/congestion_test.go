package congestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewControllerDefaults(t *testing.T) {
	c := New(AIMD)
	assert.Equal(t, 10, c.Cwnd())
	assert.True(t, c.CanSend(5))
	assert.False(t, c.CanSend(10))
}

func TestAIMDSlowStartThenCongestionAvoidance(t *testing.T) {
	c := New(AIMD).(*controller)
	c.ssthresh = 12

	c.OnAck(0)
	c.OnAck(0)
	assert.Equal(t, 12, c.Cwnd())
	assert.False(t, c.slowStart) // exited slow start once cwnd >= ssthresh

	before := c.cwnd
	c.OnAck(0)
	assert.InDelta(t, before+1.0/before, c.cwnd, 1e-9)
}

func TestAIMDOnLossHalvesWindow(t *testing.T) {
	c := New(AIMD).(*controller)
	c.cwnd = 20
	c.OnLoss()
	assert.Equal(t, 10.0, c.ssthresh)
	assert.Equal(t, 10.0, c.cwnd)
}

func TestBBRTracksBandwidthAndIgnoresLoss(t *testing.T) {
	c := New(BBR).(*controller)
	c.UpdateRTT(50 * time.Millisecond)
	c.OnAck(150_000) // 150KB acked over 50ms rtt

	assert.Greater(t, c.bandwidth, 0.0)
	cwndAfterAck := c.cwnd

	c.OnLoss() // BBR ignores loss for cwnd purposes
	assert.Equal(t, cwndAfterAck, c.cwnd)
}

func TestCubicOnLossReducesTo80Percent(t *testing.T) {
	c := New(CUBIC).(*controller)
	c.cwnd = 100
	c.OnLoss()
	assert.Equal(t, 80.0, c.ssthresh)
	assert.Equal(t, 80.0, c.cwnd)
}

func TestPacingRateFallsBackToCwndOverRTT(t *testing.T) {
	c := New(AIMD).(*controller)
	c.UpdateRTT(100 * time.Millisecond)
	rate := c.PacingRate()
	assert.Greater(t, rate, 0.0)
}

func TestPacingRatePrefersBandwidthWithHeadroom(t *testing.T) {
	c := New(BBR).(*controller)
	c.bandwidth = 1_000_000
	require.InDelta(t, 1_250_000, c.PacingRate(), 1)
}

func TestCanSendGatesOnCwnd(t *testing.T) {
	c := New(AIMD)
	assert.True(t, c.CanSend(9))
	assert.False(t, c.CanSend(10))
	assert.False(t, c.CanSend(11))
}
