//go:build windows

package tools

import (
	"os"
	"syscall"
)

// isProcessRunning checks if a process with given PID is running on Windows
func isProcessRunning(pid int) bool {
	// syscall.Kill doesn't exist on Windows and FindProcess succeeds for any
	// PID there, so check by opening a process handle instead.
	const da = syscall.STANDARD_RIGHTS_READ | syscall.PROCESS_QUERY_INFORMATION | syscall.SYNCHRONIZE

	h, err := syscall.OpenProcess(da, false, uint32(pid))
	if err != nil {
		return false
	}
	syscall.CloseHandle(h)

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	proc.Release()

	return true
}
