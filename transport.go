// Package dgram provides a connectable datagram (UDP) transport.
//
// A Transport wraps a single UDP socket and tracks its lifecycle through
// the states unbound, bound, connected and closed. Connecting fixes a
// single remote peer: after that all sends are restricted to the peer and
// datagrams from other senders are discarded, matching connected UDP
// socket semantics.
package dgram

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/andydunstall/dgram/internal/netutil"
	"go.uber.org/zap"
)

type state int

const (
	stateUnbound state = iota
	stateBound
	stateConnected
	stateClosed
)

// Transport is a datagram endpoint backed by a single UDP socket.
//
// The zero value is not usable; create transports with Open. A Transport
// is intended to be driven by a single goroutine, though Close may be
// called from another goroutine to unblock a pending receive.
type Transport struct {
	mu    sync.Mutex
	conn  *net.UDPConn
	state state
	peer  *net.UDPAddr

	network         string
	readTimeout     time.Duration
	maxDatagramSize int
	logger          *zap.Logger
}

// Open creates a new unbound transport.
//
// The socket itself is allocated on the first bind, which may be implicit:
// Connect, WriteTo and ReadFrom all bind to a system assigned port if the
// transport is still unbound.
func Open(options ...Option) *Transport {
	opts := defaultOptions()
	for _, opt := range options {
		opt(opts)
	}

	return &Transport{
		state:           stateUnbound,
		network:         opts.Network,
		readTimeout:     opts.ReadTimeout,
		maxDatagramSize: opts.MaxDatagramSize,
		logger:          opts.Logger,
	}
}

// Bind binds the transport to the given local address. Use a port of 0 to
// let the system assign a free port, which can then be read with BindAddr.
//
// Returns ErrAlreadyBound if the transport already has a local address,
// ErrAddrInUse if the address is taken and ErrClosed after Close.
func (t *Transport) Bind(addr string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case stateClosed:
		return ErrClosed
	case stateBound, stateConnected:
		return ErrAlreadyBound
	}
	return t.bindLocked(addr)
}

// Connect fixes the remote peer of the transport. If the transport is
// unbound it is first bound to a system assigned port.
//
// Returns ErrAlreadyConnected if a peer is already set and ErrClosed after
// Close. On failure the transport keeps its previous state.
func (t *Transport) Connect(addr string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case stateClosed:
		return ErrClosed
	case stateConnected:
		return ErrAlreadyConnected
	}

	peer, err := netutil.ResolveUDP(t.network, addr)
	if err != nil {
		return err
	}

	if t.state == stateUnbound {
		if err := t.bindLocked(":0"); err != nil {
			return err
		}
	}

	t.peer = peer
	t.state = stateConnected

	t.logger.Debug(
		"transport connected",
		zap.String("local", t.conn.LocalAddr().String()),
		zap.String("peer", peer.String()),
	)
	return nil
}

// WriteTo sends a datagram to an explicit destination address.
//
// On a connected transport the destination must be the connected peer;
// sending to any other address fails with ErrAlreadyConnected without
// transmitting. If the transport is unbound it is first bound to a system
// assigned port.
func (t *Transport) WriteTo(b []byte, addr string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == stateClosed {
		return 0, ErrClosed
	}

	dest, err := netutil.ResolveUDP(t.network, addr)
	if err != nil {
		return 0, err
	}

	if t.state == stateConnected && !netutil.SameAddr(dest, t.peer) {
		return 0, fmt.Errorf("%w: cannot send to %s", ErrAlreadyConnected, dest)
	}

	if t.state == stateUnbound {
		if err := t.bindLocked(":0"); err != nil {
			return 0, err
		}
	}

	n, err := t.conn.WriteToUDP(b, dest)
	if err != nil {
		return n, translateIOErr(err)
	}
	return n, nil
}

// Write sends a datagram to the connected peer. Returns ErrNotConnected if
// no peer is set and ErrClosed after Close.
func (t *Transport) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == stateClosed {
		return 0, ErrClosed
	}
	if t.state != stateConnected {
		return 0, ErrNotConnected
	}

	n, err := t.conn.WriteToUDP(b, t.peer)
	if err != nil {
		return n, translateIOErr(err)
	}
	return n, nil
}

// ReadFrom blocks until a datagram arrives, filling b and returning the
// number of bytes read and the sender address. If the transport is unbound
// it is first bound to a system assigned port.
//
// On a connected transport only datagrams from the connected peer are
// returned; datagrams from other senders are silently discarded.
func (t *Transport) ReadFrom(b []byte) (int, net.Addr, error) {
	conn, peer, err := t.receiveConn()
	if err != nil {
		return 0, nil, err
	}
	return t.readMatch(conn, peer, b)
}

// Read blocks until a datagram arrives from the connected peer, filling b
// and returning the number of bytes read. Datagrams from other senders are
// silently discarded. Returns ErrNotConnected if no peer is set.
func (t *Transport) Read(b []byte) (int, error) {
	t.mu.Lock()
	if t.state == stateClosed {
		t.mu.Unlock()
		return 0, ErrClosed
	}
	if t.state != stateConnected {
		t.mu.Unlock()
		return 0, ErrNotConnected
	}
	conn := t.conn
	peer := t.peer
	t.mu.Unlock()

	n, _, err := t.readMatch(conn, peer, b)
	return n, err
}

// BindAddr returns the address the transport socket is bound to. Note this
// may be different from the configured bind addr if the system chooses the
// addr (such as using a port of 0). Returns an empty string before the
// transport is bound.
func (t *Transport) BindAddr() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return ""
	}
	return t.conn.LocalAddr().String()
}

// LocalAddr returns the bound local address, or nil before the transport
// is bound.
func (t *Transport) LocalAddr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr()
}

// RemoteAddr returns the connected peer address. Returns ErrNotConnected
// if no peer is set and ErrClosed after Close.
func (t *Transport) RemoteAddr() (net.Addr, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == stateClosed {
		return nil, ErrClosed
	}
	if t.state != stateConnected {
		return nil, ErrNotConnected
	}
	return t.peer, nil
}

// Close releases the transport socket. Any blocked receive is unblocked
// and fails with ErrClosed. A second close fails with ErrClosed.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == stateClosed {
		return ErrClosed
	}
	t.state = stateClosed

	t.logger.Debug("transport closed")

	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

// receiveConn returns the socket to receive on, binding first if the
// transport is unbound, plus the connected peer to filter on (nil when
// unconnected).
func (t *Transport) receiveConn() (*net.UDPConn, *net.UDPAddr, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == stateClosed {
		return nil, nil, ErrClosed
	}
	if t.state == stateUnbound {
		if err := t.bindLocked(":0"); err != nil {
			return nil, nil, err
		}
	}

	var peer *net.UDPAddr
	if t.state == stateConnected {
		peer = t.peer
	}
	return t.conn, peer, nil
}

// readMatch does blocking reads on conn until a datagram from the given
// peer arrives, or from anyone if peer is nil. Must be called without
// holding the mutex so a concurrent Close can unblock the read.
func (t *Transport) readMatch(conn *net.UDPConn, peer *net.UDPAddr, b []byte) (int, net.Addr, error) {
	for {
		if t.readTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
				return 0, nil, translateIOErr(err)
			}
		}

		n, from, err := conn.ReadFromUDP(b)
		if err != nil {
			return 0, nil, translateIOErr(err)
		}

		if peer != nil && !netutil.SameAddr(from, peer) {
			t.logger.Debug(
				"discarding datagram from non-peer sender",
				zap.String("from", from.String()),
				zap.String("peer", peer.String()),
			)
			continue
		}
		return n, from, nil
	}
}

// bindLocked allocates and binds the socket. Must be called with the mutex
// held and the transport unbound. On failure the transport keeps its
// previous state.
func (t *Transport) bindLocked(addr string) error {
	udpAddr, err := netutil.ResolveUDP(t.network, addr)
	if err != nil {
		return err
	}

	conn, err := net.ListenUDP(t.network, udpAddr)
	if err != nil {
		return translateBindErr(err)
	}

	t.conn = conn
	t.state = stateBound

	t.logger.Debug("transport bound", zap.String("addr", conn.LocalAddr().String()))
	return nil
}
