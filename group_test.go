package dgram

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGroup_AllSucceed(t *testing.T) {
	g := NewGroup(nil)
	g.Go(func() error { return nil })
	g.Go(func() error { return nil })

	assert.Nil(t, g.Wait())
}

func TestGroup_FirstFailurePropagated(t *testing.T) {
	failure := errors.New("boom")

	var stopped int32
	g := NewGroup(func() {
		atomic.StoreInt32(&stopped, 1)
	})
	g.Go(func() error { return nil })
	g.Go(func() error { return failure })

	assert.Equal(t, failure, g.Wait())
	assert.Equal(t, int32(1), atomic.LoadInt32(&stopped))
}

func TestGroup_StopNotInvokedOnSuccess(t *testing.T) {
	var stopped int32
	g := NewGroup(func() {
		atomic.StoreInt32(&stopped, 1)
	})
	g.Go(func() error { return nil })

	assert.Nil(t, g.Wait())
	assert.Equal(t, int32(0), atomic.LoadInt32(&stopped))
}

// Tests the stop function tearing down a transport unblocks a role stuck
// in a blocking receive, so the group drains after a sibling failure.
func TestGroup_StopUnblocksBlockedRole(t *testing.T) {
	tr := Open(WithLogger(zap.NewNop()))
	assert.Nil(t, tr.Bind("127.0.0.1:0"))

	failure := errors.New("boom")

	g := NewGroup(func() {
		tr.Close()
	})
	g.Go(func() error {
		_, err := tr.Receive()
		return err
	})
	g.Go(func() error {
		time.Sleep(time.Millisecond * 50)
		return failure
	})

	// The first recorded failure must be the explicit one, not the
	// ErrClosed from the receiver being torn down.
	assert.Equal(t, failure, g.Wait())
}
