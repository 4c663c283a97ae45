package seclayer

import (
	"context"
	"net"
	"sync/atomic"
)

// trafficFlushThreshold is how many accumulated bytes trigger an
// EventTraffic emission. Batching keeps the event stream off the hot
// read/write path.
const trafficFlushThreshold uint64 = 32 * 1024

// ClientConn is an admitted, authenticated client connection. Reads
// and writes go through the secure transport wrapper and feed the
// traffic accounting events.
type ClientConn struct {
	net.Conn

	streamID string
	clientID string
	remoteIP net.IP
	stream   EventStream
	ctx      context.Context

	// Pointer-based accumulators: ClientConn is shared across handler
	// goroutines by reference, the counters must be too.
	readAcc  *atomic.Uint64
	writeAcc *atomic.Uint64
}

func newClientConn(ctx context.Context, conn net.Conn, streamID, clientID string,
	remoteIP net.IP, stream EventStream,
) *ClientConn {
	return &ClientConn{
		Conn:     conn,
		streamID: streamID,
		clientID: clientID,
		remoteIP: remoteIP,
		stream:   stream,
		ctx:      ctx,
		readAcc:  &atomic.Uint64{},
		writeAcc: &atomic.Uint64{},
	}
}

// StreamID returns the opaque stream identifier used in events and
// logs.
func (c *ClientConn) StreamID() string {
	return c.streamID
}

// ClientID returns the authenticated identity of the peer.
func (c *ClientConn) ClientID() string {
	return c.clientID
}

// RemoteIP returns the peer address.
func (c *ClientConn) RemoteIP() net.IP {
	return c.remoteIP
}

func (c *ClientConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)

	if n > 0 {
		if accumulated := c.readAcc.Add(uint64(n)); accumulated >= trafficFlushThreshold {
			c.readAcc.Store(0)
			c.stream.Send(c.ctx, NewEventTraffic(c.streamID, uint(accumulated), true))
		}
	}

	return n, err //nolint: wrapcheck
}

func (c *ClientConn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)

	if n > 0 {
		if accumulated := c.writeAcc.Add(uint64(n)); accumulated >= trafficFlushThreshold {
			c.writeAcc.Store(0)
			c.stream.Send(c.ctx, NewEventTraffic(c.streamID, uint(accumulated), false))
		}
	}

	return n, err //nolint: wrapcheck
}

// FlushTraffic emits whatever traffic is still accumulated.
func (c *ClientConn) FlushTraffic() {
	if r := c.readAcc.Swap(0); r > 0 {
		c.stream.Send(c.ctx, NewEventTraffic(c.streamID, uint(r), true))
	}

	if w := c.writeAcc.Swap(0); w > 0 {
		c.stream.Send(c.ctx, NewEventTraffic(c.streamID, uint(w), false))
	}
}

// Close flushes accumulated traffic and closes the TLS session with
// its underlying socket.
func (c *ClientConn) Close() error {
	c.FlushTraffic()

	return c.Conn.Close() //nolint: wrapcheck
}
