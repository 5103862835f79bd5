package unit

import (
	"errors"
	"time"
)

var (
	// ErrTimeout is returned when a process, pipe or socket read does not finish in time.
	ErrTimeout = errors.New("operation timed out")

	// ErrClosed is returned by a Pipe after Close.
	ErrClosed = errors.New("pipe closed")
)

// IO is the transport every unit talks through. It is owned by the control
// unit manager and shared by reference with all units.
type IO interface {
	// Run executes argv and returns its stdout. A non-zero exit or timeout is
	// an error even if output was captured. With recvBySocket the returned
	// bytes are what arrived on the socket opened by CreateSocket.
	Run(argv []string, recvBySocket bool, timeout time.Duration) ([]byte, error)

	// CreateSocket opens a listening socket on host and returns its port.
	CreateSocket(host string) (int, error)

	// CloseSocket releases the socket opened by CreateSocket, if any.
	CloseSocket()

	// Interactive starts argv as a long lived child with piped stdio.
	Interactive(argv []string) (Pipe, error)
}

// Pipe is a persistent bidirectional session with a child process.
type Pipe interface {
	Write(p []byte) (int, error)

	// Read returns whatever output is available, waiting up to timeout for
	// at least one byte.
	Read(timeout time.Duration) ([]byte, error)

	// ReadUntil returns the output up to and including delim.
	ReadUntil(delim byte, timeout time.Duration) ([]byte, error)

	Close() error
}
