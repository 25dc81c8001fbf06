package dgram

import (
	"net"
	"time"
)

// Datagram is a single received datagram along with some metadata about
// its sender.
type Datagram struct {
	// Buf has the raw contents of the datagram.
	Buf []byte

	// From has the address of the sender. This is an actual net.Addr so we
	// can expose some concrete details about incoming datagrams.
	From net.Addr

	// Timestamp is the time when the datagram was received. This is taken
	// as close as possible to the actual receipt time.
	Timestamp time.Time
}

// Receive blocks until a datagram arrives and returns it in an owned
// buffer sized by the MaxDatagramSize option. Semantics otherwise match
// ReadFrom: any sender before connecting, only the connected peer after.
func (t *Transport) Receive() (*Datagram, error) {
	buf := make([]byte, t.maxDatagramSize)
	n, from, err := t.ReadFrom(buf)
	if err != nil {
		return nil, err
	}
	return &Datagram{
		Buf:       buf[:n],
		From:      from,
		Timestamp: time.Now(),
	}, nil
}
