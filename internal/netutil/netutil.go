package netutil

import (
	"fmt"
	"net"
	"strconv"
)

// ResolveUDP resolves addr as a UDP address on the given network ("udp",
// "udp4" or "udp6").
func ResolveUDP(network string, addr string) (*net.UDPAddr, error) {
	udpAddr, err := net.ResolveUDPAddr(network, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s address %s: %v", network, addr, err)
	}
	return udpAddr, nil
}

// Loopback returns the loopback host for the given network: the IPv6
// loopback for "udp6", otherwise the IPv4 loopback.
func Loopback(network string) string {
	if network == "udp6" {
		return "::1"
	}
	return "127.0.0.1"
}

// JoinLoopback returns the loopback host:port address for the given network.
// A port of 0 requests a system assigned port when bound.
func JoinLoopback(network string, port int) string {
	return net.JoinHostPort(Loopback(network), strconv.Itoa(port))
}

// SameAddr reports whether a and b identify the same UDP endpoint. Either
// being nil reports false.
func SameAddr(a *net.UDPAddr, b *net.UDPAddr) bool {
	if a == nil || b == nil {
		return false
	}
	return a.IP.Equal(b.IP) && a.Port == b.Port && a.Zone == b.Zone
}
