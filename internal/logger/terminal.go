//go:build !windows

package logger

import (
	"syscall"
	"unsafe"
)

// isTerminal reports whether fd refers to a terminal on Unix systems.
func isTerminal(fd uintptr) bool {
	var termios syscall.Termios
	_, _, err := syscall.Syscall6(
		syscall.SYS_IOCTL,
		fd,
		ioctlReadTermios,
		uintptr(unsafe.Pointer(&termios)),
		0, 0, 0,
	)
	return err == 0
}
