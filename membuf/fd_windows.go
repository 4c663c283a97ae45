//go:build windows

package membuf

import "syscall"

func closeFD(fd int) error {
	return syscall.Close(syscall.Handle(fd)) //nolint: wrapcheck
}
