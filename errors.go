package dgram

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

var (
	// ErrAlreadyBound is returned when binding a transport that already has
	// a local address.
	ErrAlreadyBound = errors.New("transport already bound")

	// ErrAlreadyConnected is returned when connecting a transport that
	// already has a peer, and when sending to an explicit address other
	// than the connected peer.
	ErrAlreadyConnected = errors.New("transport already connected")

	// ErrNotConnected is returned by peer-directed operations on a
	// transport with no connected peer.
	ErrNotConnected = errors.New("transport not connected")

	// ErrClosed is returned by all operations on a closed transport,
	// including a second close.
	ErrClosed = errors.New("transport closed")

	// ErrAddrInUse is returned when binding to an address that is already
	// taken.
	ErrAddrInUse = errors.New("address in use")

	// ErrResourceExhausted is returned when the system cannot allocate a
	// socket.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrTimeout is returned by blocking receives when the configured read
	// timeout expires before a datagram arrives.
	ErrTimeout = errors.New("read timed out")
)

// translateBindErr maps OS level bind failures onto the transport error
// taxonomy, keeping the cause in the chain.
func translateBindErr(err error) error {
	if errors.Is(err, syscall.EADDRINUSE) {
		return fmt.Errorf("%w: %v", ErrAddrInUse, err)
	}
	if errors.Is(err, syscall.EMFILE) || errors.Is(err, syscall.ENFILE) {
		return fmt.Errorf("%w: %v", ErrResourceExhausted, err)
	}
	return err
}

// translateIOErr maps read/write failures onto the transport error taxonomy.
// Closing the underlying socket surfaces from in flight reads as
// net.ErrClosed, which callers should see as ErrClosed.
func translateIOErr(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
