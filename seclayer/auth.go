package seclayer

import (
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// sessionTokenBytes gives 32 hex characters per token.
const sessionTokenBytes = 16

type session struct {
	clientID   string
	createdAt  time.Time
	lastAccess time.Time
}

// Authenticator establishes client identities from TLS certificates or
// pre-provisioned API keys and manages the session lifecycle. A session
// is valid while its age since creation stays under the configured
// timeout; validating refreshes the last-access time.
type Authenticator struct {
	sessionTimeout time.Duration
	clock          clock.Clock

	mutex    sync.Mutex
	sessions map[string]*session
	apiKeys  map[string]string
}

// NewAuthenticator makes an authenticator with the given session
// timeout and API-key provisioning (key -> client id, may be nil). A
// nil clk uses the wall clock.
func NewAuthenticator(sessionTimeout time.Duration, apiKeys map[string]string, clk clock.Clock) *Authenticator {
	if clk == nil {
		clk = clock.New()
	}

	keys := make(map[string]string, len(apiKeys))
	for k, v := range apiKeys {
		keys[k] = v
	}

	return &Authenticator{
		sessionTimeout: sessionTimeout,
		clock:          clk,
		sessions:       make(map[string]*session),
		apiKeys:        keys,
	}
}

// AuthenticateCertificate extracts the client identity from the peer
// certificate's subject common name. It fails when the handshake
// produced no peer certificate or the common name is empty.
func (a *Authenticator) AuthenticateCertificate(state tls.ConnectionState) (string, error) {
	if len(state.PeerCertificates) == 0 {
		return "", ErrNoPeerCertificate
	}

	clientID := state.PeerCertificates[0].Subject.CommonName
	if clientID == "" {
		return "", fmt.Errorf("certificate has no common name: %w", ErrNoPeerCertificate)
	}

	return clientID, nil
}

// ValidateAPIKey resolves a pre-provisioned API key to a client id.
func (a *Authenticator) ValidateAPIKey(key string) (string, error) {
	a.mutex.Lock()
	clientID, ok := a.apiKeys[key]
	a.mutex.Unlock()

	if !ok {
		return "", ErrUnknownAPIKey
	}

	return clientID, nil
}

// CreateSession issues a random session token bound to the client id.
func (a *Authenticator) CreateSession(clientID string) (string, error) {
	raw := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("cannot generate session token: %w", err)
	}

	token := hex.EncodeToString(raw)
	now := a.clock.Now()

	a.mutex.Lock()
	a.sessions[token] = &session{
		clientID:   clientID,
		createdAt:  now,
		lastAccess: now,
	}
	a.mutex.Unlock()

	return token, nil
}

// ValidateSession checks a token. An expired session is evicted on the
// spot and stays invalid afterwards; a live one gets its last-access
// time refreshed.
func (a *Authenticator) ValidateSession(token string) (string, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	sess, ok := a.sessions[token]
	if !ok {
		return "", ErrSessionInvalid
	}

	now := a.clock.Now()
	if now.Sub(sess.createdAt) > a.sessionTimeout {
		delete(a.sessions, token)

		return "", ErrSessionInvalid
	}

	sess.lastAccess = now

	return sess.clientID, nil
}

// InvalidateSession removes a token unconditionally.
func (a *Authenticator) InvalidateSession(token string) {
	a.mutex.Lock()
	delete(a.sessions, token)
	a.mutex.Unlock()
}

// CleanupExpiredSessions sweeps every session older than the timeout,
// regardless of access pattern, and returns how many were evicted.
func (a *Authenticator) CleanupExpiredSessions() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	now := a.clock.Now()
	evicted := 0

	for token, sess := range a.sessions {
		if now.Sub(sess.createdAt) > a.sessionTimeout {
			delete(a.sessions, token)
			evicted++
		}
	}

	return evicted
}

// ActiveSessions returns the number of live sessions.
func (a *Authenticator) ActiveSessions() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return len(a.sessions)
}
