package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pion/webrtc/v3"

	"github.com/breeze-rmm/streamcore/internal/obslog"
	"github.com/breeze-rmm/streamcore/internal/wire"
)

var webrtcLog = obslog.L("transport.webrtc")

// sdpEnvelope is the tiny JSON handshake exchanged over a plain TCP
// rendezvous connection to bootstrap the WebRTC offer/answer. It replaces
// the signaling server a browser peer would normally talk to; here both
// ends are streamcore processes so a direct TCP dial suffices.
type sdpEnvelope struct {
	SDP  string `json:"sdp"`
	Type string `json:"type"`
}

// webrtcConnection tunnels the same wire.Message framing used by the QUIC
// backend over a single ordered, reliable WebRTC DataChannel. It exists
// for environments where UDP/QUIC egress is firewalled but browser-style
// WebRTC (which can fall back to TURN) gets through.
type webrtcConnection struct {
	cfg Config

	mu    sync.Mutex
	state State
	stats Stats

	pc      *webrtc.PeerConnection
	dc      *webrtc.DataChannel
	inbound chan []byte
	closed  chan struct{}
}

func newWebRTCConnection(cfg Config) *webrtcConnection {
	return &webrtcConnection{
		cfg:     cfg,
		state:   StateIdle,
		inbound: make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
}

func (c *webrtcConnection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *webrtcConnection) Stats() Stats { return c.stats.Snapshot() }

func newPeerConnection() (*webrtc.PeerConnection, error) {
	return webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}},
	})
}

func (c *webrtcConnection) wireDataChannel(dc *webrtc.DataChannel) {
	c.mu.Lock()
	c.dc = dc
	c.mu.Unlock()

	dc.OnOpen(func() {
		c.mu.Lock()
		c.state = StateConnected
		c.mu.Unlock()
		webrtcLog.Info("webrtc data channel open")
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		limit := c.cfg.mtu() * 10
		if len(msg.Data) > limit {
			webrtcLog.Warn("oversize data channel message, closing connection", "size", len(msg.Data), "limit", limit)
			c.mu.Lock()
			c.state = StateFailed
			c.mu.Unlock()
			select {
			case c.inbound <- nil:
			case <-c.closed:
			}
			return
		}
		select {
		case c.inbound <- msg.Data:
			c.stats.recordReceive(len(msg.Data))
		case <-c.closed:
		}
	})
	dc.OnClose(func() {
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()
	})
}

// Connect dials addr as a plain TCP rendezvous connection, exchanges SDP
// as the offering side, then waits for the data channel to open.
func (c *webrtcConnection) Connect(ctx context.Context, addr string) error {
	c.mu.Lock()
	c.state = StateConnecting
	c.mu.Unlock()

	rendezvous, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("transport/webrtc: rendezvous dial %s: %w", addr, err)
	}
	defer rendezvous.Close()

	pc, err := newPeerConnection()
	if err != nil {
		return fmt.Errorf("transport/webrtc: new peer connection: %w", err)
	}
	c.mu.Lock()
	c.pc = pc
	c.mu.Unlock()

	dc, err := pc.CreateDataChannel("streamcore", nil)
	if err != nil {
		return fmt.Errorf("transport/webrtc: create data channel: %w", err)
	}
	c.wireDataChannel(dc)

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("transport/webrtc: create offer: %w", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("transport/webrtc: set local description: %w", err)
	}
	<-webrtc.GatheringCompletePromise(pc)

	if err := sendSDP(rendezvous, *pc.LocalDescription()); err != nil {
		return err
	}
	answer, err := recvSDP(rendezvous)
	if err != nil {
		return err
	}
	if err := pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("transport/webrtc: set remote description: %w", err)
	}

	return c.waitConnected(ctx)
}

// Accept listens for a single TCP rendezvous connection, answers the SDP
// offer it receives, and waits for the resulting data channel.
func (c *webrtcConnection) Accept(ctx context.Context) (string, error) {
	c.mu.Lock()
	c.state = StateConnecting
	c.mu.Unlock()

	ln, err := net.Listen("tcp", c.cfg.ListenAddr)
	if err != nil {
		return "", fmt.Errorf("transport/webrtc: rendezvous listen %s: %w", c.cfg.ListenAddr, err)
	}
	defer ln.Close()

	rendezvous, err := ln.Accept()
	if err != nil {
		return "", fmt.Errorf("transport/webrtc: rendezvous accept: %w", err)
	}
	defer rendezvous.Close()

	pc, err := newPeerConnection()
	if err != nil {
		return "", fmt.Errorf("transport/webrtc: new peer connection: %w", err)
	}
	c.mu.Lock()
	c.pc = pc
	c.mu.Unlock()

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		c.wireDataChannel(dc)
	})

	offer, err := recvSDP(rendezvous)
	if err != nil {
		return "", err
	}
	if err := pc.SetRemoteDescription(offer); err != nil {
		return "", fmt.Errorf("transport/webrtc: set remote description: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("transport/webrtc: create answer: %w", err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		return "", fmt.Errorf("transport/webrtc: set local description: %w", err)
	}
	<-webrtc.GatheringCompletePromise(pc)

	if err := sendSDP(rendezvous, *pc.LocalDescription()); err != nil {
		return "", err
	}

	peer := rendezvous.RemoteAddr().String()
	if err := c.waitConnected(ctx); err != nil {
		return "", err
	}
	return peer, nil
}

func (c *webrtcConnection) waitConnected(ctx context.Context) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		if c.State() == StateConnected {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *webrtcConnection) Send(ctx context.Context, msg wire.Message) error {
	c.mu.Lock()
	dc := c.dc
	state := c.state
	c.mu.Unlock()
	if state == StateClosed || dc == nil {
		return ErrClosed
	}

	buf, err := wire.Serialize(msg)
	if err != nil {
		return fmt.Errorf("transport/webrtc: serialize: %w", err)
	}
	if err := dc.Send(buf); err != nil {
		return fmt.Errorf("transport/webrtc: send: %w", err)
	}
	c.stats.recordSend(len(buf))
	return nil
}

func (c *webrtcConnection) Receive(ctx context.Context) (wire.Message, error) {
	select {
	case buf, ok := <-c.inbound:
		if !ok {
			return wire.Message{}, ErrClosed
		}
		if buf == nil {
			return wire.Message{}, fmt.Errorf("transport/webrtc: message exceeds %d bytes: %w", c.cfg.mtu()*10, ErrProtocolViolation)
		}
		msg, err := wire.Deserialize(buf)
		if err != nil {
			return wire.Message{}, fmt.Errorf("transport/webrtc: deserialize: %w", err)
		}
		return msg, nil
	case <-c.closed:
		return wire.Message{}, ErrClosed
	case <-ctx.Done():
		return wire.Message{}, ctx.Err()
	}
}

func (c *webrtcConnection) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosed
	pc := c.pc
	c.mu.Unlock()

	close(c.closed)
	if pc != nil {
		return pc.Close()
	}
	return nil
}

func sendSDP(w io.Writer, desc webrtc.SessionDescription) error {
	env := sdpEnvelope{SDP: desc.SDP, Type: desc.Type.String()}
	enc := json.NewEncoder(w)
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("transport/webrtc: send sdp: %w", err)
	}
	return nil
}

func recvSDP(r io.Reader) (webrtc.SessionDescription, error) {
	var env sdpEnvelope
	dec := json.NewDecoder(r)
	if err := dec.Decode(&env); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("transport/webrtc: recv sdp: %w", err)
	}
	var typ webrtc.SDPType
	switch env.Type {
	case "offer":
		typ = webrtc.SDPTypeOffer
	case "answer":
		typ = webrtc.SDPTypeAnswer
	default:
		return webrtc.SessionDescription{}, fmt.Errorf("transport/webrtc: unknown sdp type %q", env.Type)
	}
	return webrtc.SessionDescription{Type: typ, SDP: env.SDP}, nil
}
