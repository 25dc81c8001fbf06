package dgram

import (
	"time"

	"go.uber.org/zap"
)

const (
	DefaultNetwork         = "udp"
	DefaultMaxDatagramSize = 65536
)

type Options struct {
	// Network is the address family the transport uses: "udp", "udp4" or
	// "udp6". If not set defaults to "udp".
	Network string

	// ReadTimeout bounds each blocking receive. If a datagram does not
	// arrive within the timeout the receive fails with ErrTimeout. If not
	// set receives block until a datagram arrives or the transport is
	// closed.
	ReadTimeout time.Duration

	// MaxDatagramSize is the buffer size used when receiving into an owned
	// buffer. Datagrams larger than this are truncated by the system. If
	// not set defaults to 65536 bytes.
	MaxDatagramSize int

	Logger *zap.Logger
}

type Option func(*Options)

func WithNetwork(network string) Option {
	return func(opts *Options) {
		opts.Network = network
	}
}

func WithReadTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.ReadTimeout = timeout
	}
}

func WithMaxDatagramSize(size int) Option {
	return func(opts *Options) {
		opts.MaxDatagramSize = size
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

func defaultOptions() *Options {
	l, _ := zap.NewDevelopment()
	return &Options{
		Network:         DefaultNetwork,
		ReadTimeout:     0,
		MaxDatagramSize: DefaultMaxDatagramSize,
		Logger:          l,
	}
}
