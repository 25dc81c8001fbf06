package tests

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/andydunstall/dgram"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// Tests the full connect scenario: the passive endpoint binds to an
// ephemeral port, the active endpoint connects and sends "hello", the
// passive endpoint receives it, connects back to the source and echoes,
// and the active endpoint reads the echo. The active role also proves an
// explicit send to a different destination is rejected while connected.
func TestConnect_RoundTrip(t *testing.T) {
	pair, err := NewPair()
	assert.Nil(t, err)
	defer pair.Close()

	payload := []byte("hello")

	g := dgram.NewGroup(pair.Stop)
	g.Go(func() error {
		return pair.RunActive(pair.Passive.BindAddr(), payload)
	})
	g.Go(func() error {
		return pair.RunPassive(payload)
	})
	assert.Nil(t, g.Wait())

	// After the exchange both endpoints must be connected to each other.
	// The active transport was implicitly bound to the wildcard address,
	// so only its port is comparable with the address the passive endpoint
	// learned.
	activePeer, err := pair.Active.RemoteAddr()
	assert.Nil(t, err)
	assert.Equal(t, pair.Passive.BindAddr(), activePeer.String())

	passivePeer, err := pair.Passive.RemoteAddr()
	assert.Nil(t, err)
	_, wantPort, err := net.SplitHostPort(pair.Active.BindAddr())
	assert.Nil(t, err)
	_, gotPort, err := net.SplitHostPort(passivePeer.String())
	assert.Nil(t, err)
	assert.Equal(t, wantPort, gotPort)
}

// Tests a failed role tears down its sibling: the passive role fails
// immediately, which must unblock the active role's receive and surface
// the original failure from the group.
func TestConnect_FailurePropagatesToSibling(t *testing.T) {
	pair, err := NewPair()
	assert.Nil(t, err)
	defer pair.Close()

	failure := errors.New("role failed")

	g := dgram.NewGroup(pair.Stop)
	g.Go(func() error {
		if err := pair.Active.Connect(pair.Passive.BindAddr()); err != nil {
			return err
		}
		// Block waiting for a reply that never comes; teardown must
		// unblock this.
		_, err := pair.Active.Receive()
		return err
	})
	g.Go(func() error {
		return failure
	})

	assert.Equal(t, failure, g.Wait())
}

// Tests a silent peer surfaces as a timeout rather than a hang when a read
// timeout is configured.
func TestConnect_SilentPeerTimesOut(t *testing.T) {
	passive := dgram.Open(dgram.WithLogger(zap.NewNop()))
	defer passive.Close()
	assert.Nil(t, passive.Bind("127.0.0.1:0"))

	active := dgram.Open(
		dgram.WithLogger(zap.NewNop()),
		dgram.WithReadTimeout(time.Millisecond*100),
	)
	defer active.Close()
	assert.Nil(t, active.Connect(passive.BindAddr()))

	g := dgram.NewGroup(func() {
		active.Close()
		passive.Close()
	})
	g.Go(func() error {
		_, err := active.Receive()
		return err
	})

	assert.ErrorIs(t, g.Wait(), dgram.ErrTimeout)
}
