// broadcast signs market-data payloads with an HMAC-SHA-256 over a
// shared secret and multicasts them over UDP, so receivers can verify
// origin and integrity without a per-packet handshake.
//
// Wire frame, big endian:
//
//	sequence uint64 | macLength uint32 | payload | mac
//
// The MAC covers the payload alone. Sequence numbers start at 1 and
// strictly increase per sender; the verifier rejects anything it has
// already seen or passed.
package broadcast

import (
	"crypto/hmac"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	sha256 "github.com/minio/sha256-simd"

	"github.com/perimetr/gatekeeper/membuf"
)

const (
	// headerLen is sequence (8) plus mac length (4).
	headerLen = 12

	// macLen is the HMAC-SHA-256 output size.
	macLen = sha256.Size

	// MaxFrameSize bounds an assembled frame: the sender's scratch
	// buffer is exactly this large and oversized payloads are rejected.
	MaxFrameSize = 8192
)

var (
	// ErrEmptySecret is returned when a sender or verifier is built
	// without a shared secret.
	ErrEmptySecret = errors.New("shared secret is empty")

	// ErrBadFrame is returned for frames too short or internally
	// inconsistent to parse.
	ErrBadFrame = errors.New("malformed frame")

	// ErrBadMAC is returned when the recomputed MAC does not match the
	// transmitted one.
	ErrBadMAC = errors.New("mac mismatch")

	// ErrReplayedFrame is returned for frames whose sequence does not
	// advance or whose digest was seen before.
	ErrReplayedFrame = errors.New("replayed frame")
)

// ReplayCache remembers frame digests. A nil cache disables the digest
// check; the sequence check always applies.
type ReplayCache interface {
	SeenBefore(digest []byte) bool
}

func computeMAC(secret, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload) //nolint: errcheck

	return mac.Sum(nil)
}

// Sender signs and multicasts frames. Safe for concurrent use; each
// send grabs a pooled scratch buffer and a transient UDP socket.
type Sender struct {
	secret   []byte
	sequence atomic.Uint64
	scratch  sync.Pool
}

// NewSender makes a sender. Fails on an empty secret.
func NewSender(secret []byte) (*Sender, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	s := &Sender{
		secret: append([]byte(nil), secret...),
	}
	s.scratch.New = func() interface{} {
		return membuf.NewFixedBuffer(MaxFrameSize)
	}

	return s, nil
}

// Send signs payload and multicasts the frame to group:port. The
// socket is transient and closed whatever the send outcome. A payload
// that would not fit the scratch buffer fails with an overflow error
// before any network work.
func (s *Sender) Send(payload []byte, group string, port int) error {
	if len(payload) > MaxFrameSize-headerLen-macLen {
		return fmt.Errorf("payload of %d bytes does not fit a frame: %w",
			len(payload), membuf.ErrBufferOverflow)
	}

	mac := computeMAC(s.secret, payload)

	var header [headerLen]byte

	binary.BigEndian.PutUint64(header[:8], s.sequence.Add(1))
	binary.BigEndian.PutUint32(header[8:], uint32(len(mac)))

	frame := s.scratch.Get().(*membuf.FixedBuffer) //nolint: forcetypeassert
	defer func() {
		frame.Reset()
		s.scratch.Put(frame)
	}()

	if err := frame.Write(header[:]); err != nil {
		return fmt.Errorf("cannot assemble frame header: %w", err)
	}

	if err := frame.Append(payload); err != nil {
		return fmt.Errorf("cannot assemble frame payload: %w", err)
	}

	if err := frame.Append(mac); err != nil {
		return fmt.Errorf("cannot assemble frame mac: %w", err)
	}

	conn, err := net.Dial("udp", net.JoinHostPort(group, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("cannot open multicast socket: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Write(frame.Bytes()); err != nil {
		return fmt.Errorf("cannot send frame: %w", err)
	}

	return nil
}

// Sequence returns the last sequence number issued.
func (s *Sender) Sequence() uint64 {
	return s.sequence.Load()
}

// Verifier authenticates received frames against the same shared
// secret. It is stateful on purpose: a frame whose sequence does not
// exceed the highest one seen is rejected to resist replay, and an
// optional digest cache catches duplicates arriving out of order.
type Verifier struct {
	secret []byte
	cache  ReplayCache

	mutex   sync.Mutex
	lastSeq uint64
}

// NewVerifier makes a verifier. Fails on an empty secret.
func NewVerifier(secret []byte, cache ReplayCache) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	return &Verifier{
		secret: append([]byte(nil), secret...),
		cache:  cache,
	}, nil
}

// Verify parses a frame, checks its MAC and replay state, and returns
// the payload.
func (v *Verifier) Verify(frame []byte) ([]byte, error) {
	if len(frame) < headerLen {
		return nil, fmt.Errorf("frame of %d bytes is too short: %w", len(frame), ErrBadFrame)
	}

	sequence := binary.BigEndian.Uint64(frame[:8])
	macLength := int(binary.BigEndian.Uint32(frame[8:headerLen]))

	if macLength != macLen || len(frame) < headerLen+macLength {
		return nil, fmt.Errorf("frame declares %d mac bytes: %w", macLength, ErrBadFrame)
	}

	payload := frame[headerLen : len(frame)-macLength]
	mac := frame[len(frame)-macLength:]

	if !hmac.Equal(mac, computeMAC(v.secret, payload)) {
		return nil, ErrBadMAC
	}

	v.mutex.Lock()
	if sequence <= v.lastSeq {
		v.mutex.Unlock()

		return nil, fmt.Errorf("sequence %d does not advance past %d: %w",
			sequence, v.lastSeq, ErrReplayedFrame)
	}
	v.lastSeq = sequence
	v.mutex.Unlock()

	if v.cache != nil && v.cache.SeenBefore(mac) {
		return nil, fmt.Errorf("frame digest seen before: %w", ErrReplayedFrame)
	}

	return payload, nil
}
