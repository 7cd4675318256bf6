package application

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"endpoint-resolver/resolver/domain"
)

// countingPool é um semáforo de canal que conta vagas em uso.
type countingPool struct {
	sem  chan struct{}
	held atomic.Int64
}

func newCountingPool(max int) *countingPool {
	return &countingPool{sem: make(chan struct{}, max)}
}

func (p *countingPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		p.held.Add(1)
		var once sync.Once
		return func() {
			once.Do(func() {
				p.held.Add(-1)
				<-p.sem
			})
		}, true
	case <-ctx.Done():
		return nil, false
	}
}

// singlePermitPool concede uma única vaga; os demais esperam até ctx encerrar.
type singlePermitPool struct {
	granted atomic.Bool
	held    atomic.Int64
}

func (p *singlePermitPool) Acquire(ctx context.Context) (func(), bool) {
	if p.granted.CompareAndSwap(false, true) {
		p.held.Add(1)
		return func() { p.held.Add(-1) }, true
	}
	<-ctx.Done()
	return nil, false
}

// fakeLookup responde a partir de um mapa e mede lookups simultâneos.
type fakeLookup struct {
	addrs map[string][]netip.Addr
	delay func(host string) time.Duration

	inFlight atomic.Int64
	peak     atomic.Int64
	calls    atomic.Int64
}

var errNoSuchHost = errors.New("no such host")

func (l *fakeLookup) LookupNetIP(ctx context.Context, host string) ([]netip.Addr, error) {
	l.calls.Add(1)
	n := l.inFlight.Add(1)
	defer l.inFlight.Add(-1)
	for {
		peak := l.peak.Load()
		if n <= peak || l.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if l.delay != nil {
		time.Sleep(l.delay(host))
	}
	addrs, ok := l.addrs[host]
	if !ok {
		return nil, errNoSuchHost
	}
	return addrs, nil
}

type recordingStats struct {
	mu     sync.Mutex
	events []domain.LookupEvent
}

func (s *recordingStats) Record(_ context.Context, ev domain.LookupEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingStats) snapshot() []domain.LookupEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LookupEvent(nil), s.events...)
}

func addrs(ss ...string) []netip.Addr {
	out := make([]netip.Addr, 0, len(ss))
	for _, s := range ss {
		out = append(out, netip.MustParseAddr(s))
	}
	return out
}

// blockingStats segura cada Record até unblock fechar ou ctx encerrar.
type blockingStats struct {
	entered chan struct{}
	unblock chan struct{}
	once    sync.Once
}

func newBlockingStats() *blockingStats {
	return &blockingStats{entered: make(chan struct{}), unblock: make(chan struct{})}
}

func (s *blockingStats) Record(ctx context.Context, _ domain.LookupEvent) error {
	s.once.Do(func() { close(s.entered) })
	select {
	case <-s.unblock:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
