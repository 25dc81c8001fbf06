package tests

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/andydunstall/dgram"
	multierror "github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Pair manages a pair of transports driving a connect scenario: a passive
// endpoint bound to an ephemeral port and an active endpoint that connects
// to it.
type Pair struct {
	Active  *dgram.Transport
	Passive *dgram.Transport
}

func NewPair() (*Pair, error) {
	passive := dgram.Open(
		dgram.WithLogger(zap.NewNop()),
		// Bound receives so a lost datagram fails the run instead of
		// hanging it.
		dgram.WithReadTimeout(time.Second*3),
	)
	// Use a port of 0 to let the system assign a free port.
	if err := passive.Bind("127.0.0.1:0"); err != nil {
		return nil, err
	}

	active := dgram.Open(
		dgram.WithLogger(zap.NewNop()),
		dgram.WithReadTimeout(time.Second*3),
	)

	return &Pair{
		Active:  active,
		Passive: passive,
	}, nil
}

// Stop tears down both transports, which unblocks any pending receive.
// Used as the group stop function when one role fails.
func (p *Pair) Stop() {
	p.Active.Close()
	p.Passive.Close()
}

func (p *Pair) Close() error {
	var errs error
	for _, transport := range []*dgram.Transport{p.Active, p.Passive} {
		err := transport.Close()
		// Stop may already have closed the transports.
		if err != nil && !errors.Is(err, dgram.ErrClosed) {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

// RunActive drives the active role: connect to the peer, send the payload,
// prove an explicit send to a different destination is rejected without
// transmitting, then read the echoed reply.
func (p *Pair) RunActive(peerAddr string, payload []byte) error {
	if err := p.Active.Connect(peerAddr); err != nil {
		return err
	}

	if _, err := p.Active.Write(payload); err != nil {
		return err
	}

	other, err := otherDestination(peerAddr)
	if err != nil {
		return err
	}
	if _, err := p.Active.WriteTo(payload, other); !errors.Is(err, dgram.ErrAlreadyConnected) {
		return fmt.Errorf("send to %s while connected must be rejected; got %v", other, err)
	}

	buf := make([]byte, 256)
	n, err := p.Active.Read(buf)
	if err != nil {
		return err
	}
	if !bytes.Equal(buf[:n], payload) {
		return fmt.Errorf("unexpected reply: %q", buf[:n])
	}
	return nil
}

// RunPassive drives the passive role: receive the payload from any sender,
// connect back to the source and echo it.
func (p *Pair) RunPassive(payload []byte) error {
	d, err := p.Passive.Receive()
	if err != nil {
		return err
	}
	if !bytes.Equal(d.Buf, payload) {
		return fmt.Errorf("unexpected message: %q", d.Buf)
	}

	if err := p.Passive.Connect(d.From.String()); err != nil {
		return err
	}
	if _, err := p.Passive.Write(d.Buf); err != nil {
		return err
	}
	return nil
}

// otherDestination returns an address on the same host as addr but with a
// different port.
func otherDestination(addr string) (string, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", err
	}

	other := port - 1
	if other < 1 {
		other = port + 1
	}
	return net.JoinHostPort(host, strconv.Itoa(other)), nil
}
