// transport terminates mutually authenticated TLS on accepted TCP
// connections. It owns the server-side TLS configuration and nothing
// else: blocklists, rate limits and identity checks live above it.
package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

var (
	// ErrDisconnected is returned on any read/write failure that is not
	// a would-block condition.
	ErrDisconnected = errors.New("connection is dead")

	// ErrNoPeerCertificate is returned when a required client
	// certificate is absent after the handshake.
	ErrNoPeerCertificate = errors.New("no peer certificate")
)

// Config carries the credential paths and handshake policy.
type Config struct {
	CertFile           string
	KeyFile            string
	CAFile             string
	RequireClientCerts bool
	HandshakeTimeout   time.Duration
}

// Channel accepts raw TCP connections and upgrades them to TLS 1.2+.
// Initialize must succeed before Accept or Secure are used.
type Channel struct {
	config    Config
	tlsConfig *tls.Config
}

// NewChannel makes an uninitialized channel.
func NewChannel(config Config) *Channel {
	return &Channel{config: config}
}

// Initialize loads the certificate, private key and, when client
// certificates are required, the CA bundle. Credential file problems
// are reported with the offending path.
func (c *Channel) Initialize() error {
	cert, err := tls.LoadX509KeyPair(c.config.CertFile, c.config.KeyFile)
	if err != nil {
		return fmt.Errorf("cannot load key pair (cert=%s, key=%s): %w",
			c.config.CertFile, c.config.KeyFile, err)
	}

	tlsConfig := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
	}

	if c.config.RequireClientCerts {
		caPEM, err := os.ReadFile(c.config.CAFile)
		if err != nil {
			return fmt.Errorf("cannot read ca bundle %s: %w", c.config.CAFile, err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return fmt.Errorf("ca bundle %s has no usable certificates", c.config.CAFile)
		}

		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	}

	c.tlsConfig = tlsConfig

	return nil
}

// Accept takes the next raw connection from the listener and upgrades
// it. On any failure the raw connection is closed; no half-initialized
// session ever escapes.
func (c *Channel) Accept(listener net.Listener) (*Conn, error) {
	raw, err := listener.Accept()
	if err != nil {
		return nil, fmt.Errorf("cannot accept a connection: %w", err)
	}

	return c.Secure(raw)
}

// Secure performs the TLS handshake over an already accepted
// connection and verifies the peer certificate when required. The raw
// connection is closed on every failure path.
func (c *Channel) Secure(raw net.Conn) (*Conn, error) {
	if c.tlsConfig == nil {
		raw.Close()

		return nil, errors.New("channel is not initialized")
	}

	if c.config.HandshakeTimeout > 0 {
		raw.SetDeadline(time.Now().Add(c.config.HandshakeTimeout)) //nolint: errcheck
	}

	tlsConn := tls.Server(raw, c.tlsConfig)

	if err := tlsConn.Handshake(); err != nil {
		tlsConn.Close()

		return nil, fmt.Errorf("tls handshake failed: %w", err)
	}

	if c.config.RequireClientCerts && len(tlsConn.ConnectionState().PeerCertificates) == 0 {
		tlsConn.Close()

		return nil, ErrNoPeerCertificate
	}

	raw.SetDeadline(time.Time{}) //nolint: errcheck

	return &Conn{Conn: tlsConn}, nil
}

// Conn wraps a TLS session as an opaque owned handle. A would-block
// condition on the record layer is reported as zero bytes transferred
// with a nil error so the caller can retry at its own cadence; every
// other I/O failure is a disconnection. Closing releases the TLS
// session and the underlying socket together.
type Conn struct {
	*tls.Conn
}

// Read reads from the TLS record layer.
func (c *Conn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if err == nil {
		return n, nil
	}

	if isWouldBlock(err) {
		return n, nil
	}

	return n, fmt.Errorf("%w: %v", ErrDisconnected, err)
}

// Write writes to the TLS record layer.
func (c *Conn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	if err == nil {
		return n, nil
	}

	if isWouldBlock(err) {
		return n, nil
	}

	return n, fmt.Errorf("%w: %v", ErrDisconnected, err)
}

// State returns the TLS connection state after the handshake.
func (c *Conn) State() tls.ConnectionState {
	return c.Conn.ConnectionState()
}

// isWouldBlock matches transient timeout conditions on non-blocking
// reads and writes.
func isWouldBlock(err error) bool {
	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
