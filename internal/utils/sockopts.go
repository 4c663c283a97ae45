package utils

import (
	"fmt"
	"net"
	"time"
)

const tcpKeepAlivePeriod = 30 * time.Second

// SetClientSocketOptions tunes a client TCP socket for a
// latency-sensitive workload: Nagle off, keepalive on, plus the
// platform extras.
func SetClientSocketOptions(conn net.Conn) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	if err := tcpConn.SetNoDelay(true); err != nil {
		return fmt.Errorf("cannot set TCP_NODELAY: %w", err)
	}

	if err := tcpConn.SetKeepAlive(true); err != nil {
		return fmt.Errorf("cannot enable TCP keepalive: %w", err)
	}

	if err := tcpConn.SetKeepAlivePeriod(tcpKeepAlivePeriod); err != nil {
		return fmt.Errorf("cannot set time period of TCP keepalive probes: %w", err)
	}

	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		return fmt.Errorf("cannot get underlying raw connection: %w", err)
	}

	if err := setLowLatencySocketOptions(rawConn); err != nil {
		return fmt.Errorf("cannot set low latency options: %w", err)
	}

	return nil
}
