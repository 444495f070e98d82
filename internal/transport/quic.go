package transport

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/breeze-rmm/streamcore/internal/obslog"
	"github.com/breeze-rmm/streamcore/internal/wire"
)

var quicLog = obslog.L("transport.quic")

// quicConnection sends and receives one wire.Message per QUIC stream.
// Send opens a bidirectional stream (OpenStreamSync) and Receive accepts
// one (AcceptStream); only the opener's direction carries data, and
// unidirectional streams are not used. A single connection multiplexes
// every stream; ordering
// between independently-opened streams is not guaranteed by QUIC, which
// is why sequence numbers live in the wire format rather than relying on
// stream arrival order.
type quicConnection struct {
	cfg Config

	mu     sync.Mutex
	state  State
	conn   quic.Connection
	listen *quic.Listener
	stats  Stats

	heartbeatStop chan struct{}
}

func newQUICConnection(cfg Config) *quicConnection {
	return &quicConnection{cfg: cfg, state: StateIdle}
}

func (c *quicConnection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *quicConnection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *quicConnection) Stats() Stats { return c.stats.Snapshot() }

func (c *quicConnection) Connect(ctx context.Context, addr string) error {
	c.setState(StateConnecting)

	tlsConf := &tls.Config{
		InsecureSkipVerify: c.cfg.InsecureDevTLS,
		NextProtos:         []string{"streamcore"},
	}
	quicConf := &quic.Config{
		KeepAlivePeriod: c.cfg.KeepAlive,
		MaxIdleTimeout:  c.cfg.IdleTimeout,
	}

	conn, err := quic.DialAddr(ctx, addr, tlsConf, quicConf)
	if err != nil {
		c.setState(StateIdle)
		return fmt.Errorf("transport/quic: dial %s: %w", addr, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	quicLog.Info("quic connected", "peer", addr)
	c.startHeartbeat()
	return nil
}

func (c *quicConnection) Accept(ctx context.Context) (string, error) {
	c.setState(StateConnecting)

	tlsConf, err := generateSelfSignedTLSConfig()
	if err != nil {
		c.setState(StateIdle)
		return "", fmt.Errorf("transport/quic: generate dev cert: %w", err)
	}
	quicConf := &quic.Config{
		KeepAlivePeriod: c.cfg.KeepAlive,
		MaxIdleTimeout:  c.cfg.IdleTimeout,
	}

	ln, err := quic.ListenAddr(c.cfg.ListenAddr, tlsConf, quicConf)
	if err != nil {
		c.setState(StateIdle)
		return "", fmt.Errorf("transport/quic: listen %s: %w", c.cfg.ListenAddr, err)
	}
	c.mu.Lock()
	c.listen = ln
	c.mu.Unlock()

	conn, err := ln.Accept(ctx)
	if err != nil {
		c.setState(StateIdle)
		return "", fmt.Errorf("transport/quic: accept: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	peer := conn.RemoteAddr().String()
	quicLog.Info("quic accepted", "peer", peer)
	c.startHeartbeat()
	return peer, nil
}

func (c *quicConnection) Send(ctx context.Context, msg wire.Message) error {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()
	if state == StateClosed || conn == nil {
		return ErrClosed
	}

	buf, err := wire.Serialize(msg)
	if err != nil {
		return fmt.Errorf("transport/quic: serialize: %w", err)
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return fmt.Errorf("transport/quic: open stream: %w", err)
	}
	if _, err := stream.Write(buf); err != nil {
		stream.Close()
		return fmt.Errorf("transport/quic: write: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("transport/quic: close stream: %w", err)
	}

	c.stats.recordSend(len(buf))
	return nil
}

func (c *quicConnection) Receive(ctx context.Context) (wire.Message, error) {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()
	if state == StateClosed || conn == nil {
		return wire.Message{}, ErrClosed
	}

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		return wire.Message{}, fmt.Errorf("transport/quic: accept stream: %w", err)
	}
	defer stream.Close()

	limit := int64(c.cfg.mtu()) * 10
	buf, err := io.ReadAll(io.LimitReader(stream, limit+1))
	if err != nil {
		return wire.Message{}, fmt.Errorf("transport/quic: read: %w", err)
	}
	if int64(len(buf)) > limit {
		c.setState(StateFailed)
		return wire.Message{}, fmt.Errorf("transport/quic: stream exceeds %d bytes: %w", limit, ErrProtocolViolation)
	}

	msg, err := wire.Deserialize(buf)
	if err != nil {
		return wire.Message{}, fmt.Errorf("transport/quic: deserialize: %w", err)
	}

	c.stats.recordReceive(len(buf))
	return msg, nil
}

func (c *quicConnection) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosed
	conn := c.conn
	ln := c.listen
	hb := c.heartbeatStop
	c.heartbeatStop = nil
	c.mu.Unlock()

	if hb != nil {
		close(hb)
	}

	var errs []error
	if conn != nil {
		if err := conn.CloseWithError(0, "closing"); err != nil {
			errs = append(errs, err)
		}
	}
	if ln != nil {
		if err := ln.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *quicConnection) startHeartbeat() {
	if c.cfg.KeepAlive <= 0 {
		return
	}
	stop := make(chan struct{})
	c.mu.Lock()
	c.heartbeatStop = stop
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.cfg.KeepAlive)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				msg := wire.NewHeartbeat(uint64(now.UnixMilli()))
				if err := c.Send(ctx, msg); err != nil {
					quicLog.Warn("heartbeat send failed", "error", err)
				}
				cancel()
			}
		}
	}()
}

// generateSelfSignedTLSConfig builds an ephemeral RSA key and self-signed
// certificate for the listening side of a dev/LAN deployment. Production
// deployments should supply a real certificate via a future Config field
// rather than rely on this path.
func generateSelfSignedTLSConfig() (*tls.Config, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return nil, err
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{Organization: []string{"streamcore"}, CommonName: "streamcore-dev"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IsCA:         true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}

	cert := tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"streamcore"},
	}, nil
}
