//go:build windows

package utils

import "syscall"

func setLowLatencySocketOptions(_ syscall.RawConn) error {
	return nil
}
