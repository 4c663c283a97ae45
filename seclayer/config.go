package seclayer

import (
	"fmt"
	"time"

	"github.com/perimetr/gatekeeper/membuf"
)

// maxSecretLen is the longest HMAC shared secret accepted (bytes).
const maxSecretLen = 64

// SecurityConfig carries the credential paths, the broadcast secret and
// the admission limits shared by every component of the layer. Treat it
// as immutable once it is handed to NewSecureNetworkLayer: components
// keep a reference, not a copy.
type SecurityConfig struct {
	// CertFile is a path to the PEM server certificate.
	CertFile string

	// KeyFile is a path to the PEM private key.
	KeyFile string

	// CAFile is a path to the PEM CA bundle used to verify client
	// certificates.
	CAFile string

	// MaxConnectionsPerIP caps connections per source address.
	MaxConnectionsPerIP uint32

	// RateLimitTokensPerSecond is the per-client token budget per
	// second.
	RateLimitTokensPerSecond uint32

	// SessionTimeout bounds session lifetime since creation.
	SessionTimeout time.Duration

	// RequireClientCerts makes the TLS handshake demand and verify a
	// client certificate.
	RequireClientCerts bool

	secret *membuf.BoundedString
}

// NewSecurityConfig returns a config with production defaults:
// 10 connections per IP, 1000 tokens/sec, 1 hour sessions, client
// certificates required.
func NewSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		MaxConnectionsPerIP:      DefaultMaxConnectionsPerIP,
		RateLimitTokensPerSecond: DefaultRateLimitTokensPerSecond,
		SessionTimeout:           DefaultSessionTimeout,
		RequireClientCerts:       true,
		secret:                   membuf.NewBoundedString(maxSecretLen + 1),
	}
}

// SetHMACSecret stores the broadcast shared secret. Secrets longer
// than 64 bytes are rejected.
func (c *SecurityConfig) SetHMACSecret(secret []byte) error {
	if err := c.secret.Assign(secret); err != nil {
		return fmt.Errorf("cannot store hmac secret: %w", err)
	}

	return nil
}

// HMACSecret returns a view of the shared secret. Empty until
// SetHMACSecret is called.
func (c *SecurityConfig) HMACSecret() []byte {
	return c.secret.Bytes()
}
