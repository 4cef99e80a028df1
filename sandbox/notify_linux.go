//go:build linux

package sandbox

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// notifyChannel is a pair of one-shot eventfd semaphores used for the
// parent<->child rendezvous described in §4.1. Each end supports
// atomic 8-byte read/write; writing a token unblocks exactly one
// reader.
type notifyChannel struct {
	parentEnd *os.File // child writes "ready", parent reads
	childEnd  *os.File // parent writes "go", child reads
}

// newNotifyChannel creates both eventfd ends. Neither end is
// close-on-exec: both must survive into the re-exec'd child.
func newNotifyChannel() (*notifyChannel, error) {
	parentFd, err := unix.Eventfd(0, 0)
	if err != nil {
		return nil, fmt.Errorf("sandbox: eventfd(parent_end): %w", err)
	}
	childFd, err := unix.Eventfd(0, 0)
	if err != nil {
		unix.Close(parentFd)
		return nil, fmt.Errorf("sandbox: eventfd(child_end): %w", err)
	}
	return &notifyChannel{
		parentEnd: os.NewFile(uintptr(parentFd), "sandbox-notify-parent"),
		childEnd:  os.NewFile(uintptr(childFd), "sandbox-notify-child"),
	}, nil
}

// Close releases both ends. Safe to call multiple times.
func (n *notifyChannel) Close() {
	if n == nil {
		return
	}
	if n.parentEnd != nil {
		n.parentEnd.Close()
		n.parentEnd = nil
	}
	if n.childEnd != nil {
		n.childEnd.Close()
		n.childEnd = nil
	}
}

// readToken performs the atomic 8-byte eventfd read. It blocks until a
// writer posts a token. Reading a file that is already closed returns
// an error; closing the fd, or the writer exiting, while a read is
// blocked does not wake the reader.
func readToken(f *os.File) error {
	var buf [8]byte
	n, err := f.Read(buf[:])
	if err != nil {
		return fmt.Errorf("sandbox: notify read: %w", err)
	}
	if n != 8 {
		return fmt.Errorf("sandbox: notify read: short read (%d bytes)", n)
	}
	return nil
}

// writeToken performs the atomic 8-byte eventfd write, unblocking
// exactly one reader.
func writeToken(f *os.File) error {
	var buf [8]byte
	buf[0] = 1
	n, err := f.Write(buf[:])
	if err != nil {
		return fmt.Errorf("sandbox: notify write: %w", err)
	}
	if n != 8 {
		return fmt.Errorf("sandbox: notify write: short write (%d bytes)", n)
	}
	return nil
}
