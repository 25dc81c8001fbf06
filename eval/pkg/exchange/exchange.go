package exchange

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/andydunstall/dgram"
	"github.com/google/uuid"
	multierror "github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Pair drives one connect exchange between two transports on loopback: the
// passive endpoint binds to a system assigned port, the active endpoint
// connects to it, sends a payload, proves an explicit send to a different
// destination is rejected, and the passive endpoint echoes the payload
// back over a reverse connect.
type Pair struct {
	ID      string
	Active  *dgram.Transport
	Passive *dgram.Transport

	logger *zap.Logger
}

func NewPair() (*Pair, error) {
	id := uuid.New().String()[:7]
	logger, _ := zap.NewDevelopment()
	logger = logger.With(zap.String("pair-id", id))

	passive := dgram.Open(
		dgram.WithLogger(logger),
		dgram.WithReadTimeout(time.Second*10),
	)
	if err := passive.Bind("127.0.0.1:0"); err != nil {
		return nil, err
	}

	active := dgram.Open(
		dgram.WithLogger(logger),
		dgram.WithReadTimeout(time.Second*10),
	)

	return &Pair{
		ID:      id,
		Active:  active,
		Passive: passive,
		logger:  logger,
	}, nil
}

// Run drives both roles concurrently and returns the first failure, or nil
// once both complete.
func (p *Pair) Run() error {
	g := dgram.NewGroup(p.stop)
	g.Go(p.runActive)
	g.Go(p.runPassive)
	return g.Wait()
}

func (p *Pair) Close() error {
	var errs error
	for _, transport := range []*dgram.Transport{p.Active, p.Passive} {
		err := transport.Close()
		if err != nil && !errors.Is(err, dgram.ErrClosed) {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

func (p *Pair) runActive() error {
	// The pair ID doubles as the payload so crossed replies between pairs
	// would be caught as content mismatches.
	payload := []byte(p.ID)
	peerAddr := p.Passive.BindAddr()

	p.logger.Info("active connecting", zap.String("peer", peerAddr))
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
	p.logger.Info("active probing rejected destination", zap.String("addr", other))
	if _, err := p.Active.WriteTo(payload, other); !errors.Is(err, dgram.ErrAlreadyConnected) {
		return fmt.Errorf("send to %s while connected must be rejected; got %v", other, err)
	}

	p.logger.Info("active waiting for reply")
	buf := make([]byte, 256)
	n, err := p.Active.Read(buf)
	if err != nil {
		return err
	}
	if !bytes.Equal(buf[:n], payload) {
		return fmt.Errorf("unexpected reply: %q", buf[:n])
	}

	p.logger.Info("active finished")
	return nil
}

func (p *Pair) runPassive() error {
	p.logger.Info("passive waiting to receive")
	d, err := p.Passive.Receive()
	if err != nil {
		return err
	}
	if !bytes.Equal(d.Buf, []byte(p.ID)) {
		return fmt.Errorf("unexpected message: %q", d.Buf)
	}

	p.logger.Info("passive connecting back", zap.String("peer", d.From.String()))
	if err := p.Passive.Connect(d.From.String()); err != nil {
		return err
	}
	if _, err := p.Passive.Write(d.Buf); err != nil {
		return err
	}

	p.logger.Info("passive finished")
	return nil
}

func (p *Pair) stop() {
	p.Active.Close()
	p.Passive.Close()
}

// Run creates n pairs and runs their exchanges concurrently, returning all
// failures.
func Run(n int) error {
	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)

	for i := 0; i != n; i++ {
		pair, err := NewPair()
		if err != nil {
			mu.Lock()
			errs = multierror.Append(errs, err)
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer pair.Close()

			if err := pair.Run(); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("pair %s: %w", pair.ID, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errs
}

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
