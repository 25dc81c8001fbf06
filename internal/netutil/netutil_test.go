package netutil

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoopback_SelectsHostForNetwork(t *testing.T) {
	assert.Equal(t, "127.0.0.1", Loopback("udp"))
	assert.Equal(t, "127.0.0.1", Loopback("udp4"))
	assert.Equal(t, "::1", Loopback("udp6"))
}

func TestJoinLoopback_FormatsHostPort(t *testing.T) {
	assert.Equal(t, "127.0.0.1:3333", JoinLoopback("udp4", 3333))
	assert.Equal(t, "[::1]:3333", JoinLoopback("udp6", 3333))
	assert.Equal(t, "127.0.0.1:0", JoinLoopback("udp", 0))
}

func TestResolveUDP_ResolvesLoopback(t *testing.T) {
	addr, err := ResolveUDP("udp", "127.0.0.1:8119")
	assert.Nil(t, err)
	assert.Equal(t, 8119, addr.Port)
	assert.True(t, addr.IP.Equal(net.IPv4(127, 0, 0, 1)))
}

func TestResolveUDP_InvalidAddr(t *testing.T) {
	_, err := ResolveUDP("udp", "not-an-addr")
	assert.NotNil(t, err)
}

func TestSameAddr_MatchesEndpoint(t *testing.T) {
	a := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 3333}
	b := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 3333}
	c := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 3332}

	assert.True(t, SameAddr(a, b))
	assert.False(t, SameAddr(a, c))
	assert.False(t, SameAddr(a, nil))
	assert.False(t, SameAddr(nil, b))
}
