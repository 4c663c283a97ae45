//go:build !windows

package utils

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// socketBufferSize is generous on purpose: market data is bursty.
const socketBufferSize = 256 * 1024

func setLowLatencySocketOptions(conn syscall.RawConn) error {
	var err error

	conn.Control(func(fd uintptr) { //nolint: errcheck
		err = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if err != nil {
			err = fmt.Errorf("cannot set SO_REUSEADDR: %w", err)

			return
		}

		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, socketBufferSize)  //nolint: errcheck
		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, socketBufferSize)  //nolint: errcheck
	})

	return err
}
