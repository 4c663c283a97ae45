package broadcast_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/perimetr/gatekeeper/membuf"
	"github.com/perimetr/gatekeeper/seclayer/internal/broadcast"
)

// frameFor assembles a frame the way the sender does, without the
// network step, so the verifier can be exercised in isolation.
func frameFor(sequence uint64, payload, mac []byte) []byte {
	frame := make([]byte, 0, 12+len(payload)+len(mac))
	frame = binary.BigEndian.AppendUint64(frame, sequence)
	frame = binary.BigEndian.AppendUint32(frame, uint32(len(mac)))
	frame = append(frame, payload...)
	frame = append(frame, mac...)

	return frame
}

func macFor(secret, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload) //nolint: errcheck

	return mac.Sum(nil)
}

func listenUDP(t *testing.T) *net.UDPConn {
	t.Helper()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)

	return conn
}

type memoryCache struct {
	seen map[string]bool
}

func (m *memoryCache) SeenBefore(digest []byte) bool {
	if m.seen[string(digest)] {
		return true
	}

	m.seen[string(digest)] = true

	return false
}

type BroadcastTestSuite struct {
	suite.Suite

	secret   []byte
	sender   *broadcast.Sender
	verifier *broadcast.Verifier
}

func (suite *BroadcastTestSuite) SetupTest() {
	suite.secret = []byte("0123456789abcdef0123456789abcdef")

	sender, err := broadcast.NewSender(suite.secret)
	suite.Require().NoError(err)

	verifier, err := broadcast.NewVerifier(suite.secret, nil)
	suite.Require().NoError(err)

	suite.sender = sender
	suite.verifier = verifier
}

// sign produces a valid frame under the suite's secret with an
// explicit sequence number.
func (suite *BroadcastTestSuite) sign(sequence uint64, payload []byte) []byte {
	return frameFor(sequence, payload, macFor(suite.secret, payload))
}

func (suite *BroadcastTestSuite) TestEmptySecret() {
	_, err := broadcast.NewSender(nil)
	suite.ErrorIs(err, broadcast.ErrEmptySecret)

	_, err = broadcast.NewVerifier(nil, nil)
	suite.ErrorIs(err, broadcast.ErrEmptySecret)
}

func (suite *BroadcastTestSuite) TestRoundtrip() {
	payload := []byte(`{"symbol":"EURUSD","bid":10867,"ask":10869}`)

	got, err := suite.verifier.Verify(suite.sign(1, payload))

	suite.NoError(err)
	suite.Equal(payload, got)
}

func (suite *BroadcastTestSuite) TestEmptyPayload() {
	got, err := suite.verifier.Verify(suite.sign(1, nil))

	suite.NoError(err)
	suite.Empty(got)
}

func (suite *BroadcastTestSuite) TestWrongSecret() {
	intruder, err := broadcast.NewVerifier([]byte("some other secret"), nil)
	suite.Require().NoError(err)

	_, err = intruder.Verify(suite.sign(1, []byte("tick")))
	suite.ErrorIs(err, broadcast.ErrBadMAC)
}

func (suite *BroadcastTestSuite) TestTamperedPayload() {
	frame := suite.sign(1, []byte("tick"))
	frame[12] ^= 0x01

	_, err := suite.verifier.Verify(frame)
	suite.ErrorIs(err, broadcast.ErrBadMAC)
}

func (suite *BroadcastTestSuite) TestTamperedMAC() {
	frame := suite.sign(1, []byte("tick"))
	frame[len(frame)-1] ^= 0x01

	_, err := suite.verifier.Verify(frame)
	suite.ErrorIs(err, broadcast.ErrBadMAC)
}

func (suite *BroadcastTestSuite) TestTooShort() {
	_, err := suite.verifier.Verify([]byte{1, 2, 3})
	suite.ErrorIs(err, broadcast.ErrBadFrame)
}

func (suite *BroadcastTestSuite) TestBogusMACLength() {
	frame := suite.sign(1, []byte("tick"))

	binary.BigEndian.PutUint32(frame[8:12], 4)

	_, err := suite.verifier.Verify(frame)
	suite.ErrorIs(err, broadcast.ErrBadFrame)
}

func (suite *BroadcastTestSuite) TestDuplicateSequenceRejected() {
	frame := suite.sign(1, []byte("tick"))

	_, err := suite.verifier.Verify(frame)
	suite.NoError(err)

	_, err = suite.verifier.Verify(frame)
	suite.ErrorIs(err, broadcast.ErrReplayedFrame)
}

func (suite *BroadcastTestSuite) TestStaleSequenceRejected() {
	_, err := suite.verifier.Verify(suite.sign(5, []byte("tick")))
	suite.NoError(err)

	_, err = suite.verifier.Verify(suite.sign(3, []byte("earlier tick")))
	suite.ErrorIs(err, broadcast.ErrReplayedFrame)
}

func (suite *BroadcastTestSuite) TestSequenceGapsAreFine() {
	_, err := suite.verifier.Verify(suite.sign(1, []byte("a")))
	suite.NoError(err)

	// Lost datagrams are normal for UDP.
	_, err = suite.verifier.Verify(suite.sign(10, []byte("b")))
	suite.NoError(err)
}

func (suite *BroadcastTestSuite) TestDigestCache() {
	verifier, err := broadcast.NewVerifier(suite.secret,
		&memoryCache{seen: map[string]bool{}})
	suite.Require().NoError(err)

	_, err = verifier.Verify(suite.sign(1, []byte("tick")))
	suite.NoError(err)

	// The same payload re-signed under a higher sequence: the sequence
	// check passes, the digest check does not.
	_, err = verifier.Verify(suite.sign(2, []byte("tick")))
	suite.ErrorIs(err, broadcast.ErrReplayedFrame)
}

func (suite *BroadcastTestSuite) TestSendReceiveVerify() {
	conn := listenUDP(suite.T())
	defer conn.Close()

	port := conn.LocalAddr().(*net.UDPAddr).Port //nolint: forcetypeassert
	payload := []byte(`{"symbol":"EURUSD","bid":10867}`)

	suite.EqualValues(0, suite.sender.Sequence())
	suite.Require().NoError(suite.sender.Send(payload, "127.0.0.1", port))
	suite.EqualValues(1, suite.sender.Sequence())

	buf := make([]byte, broadcast.MaxFrameSize)

	suite.Require().NoError(conn.SetReadDeadline(time.Now().Add(time.Second)))

	n, err := conn.Read(buf)
	suite.Require().NoError(err)

	got, err := suite.verifier.Verify(buf[:n])
	suite.NoError(err)
	suite.Equal(payload, got)
}

func (suite *BroadcastTestSuite) TestOversizedPayload() {
	payload := make([]byte, broadcast.MaxFrameSize)

	err := suite.sender.Send(payload, "127.0.0.1", 9999)
	suite.ErrorIs(err, membuf.ErrBufferOverflow)

	// The rejection happened before a sequence number was taken.
	suite.EqualValues(0, suite.sender.Sequence())
}

func TestBroadcast(t *testing.T) {
	t.Parallel()
	suite.Run(t, &BroadcastTestSuite{})
}
