package infra

import (
	"context"
	"sync"

	"endpoint-resolver/resolver/domain"
)

type Counters struct {
	Resolved int64
	Failed   int64
	Addrs    int64
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e para a CLI.
//
// Não faz expiração e não é indicada para produção com muitos hosts.
type MemoryStatsStore struct {
	mu     sync.Mutex
	total  Counters
	gated  Counters
	byHost map[string]Counters

	trackHosts bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackHosts(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackHosts = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byHost: make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.LookupEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total = s.total.add(ev)
	if ev.Gated {
		s.gated = s.gated.add(ev)
	}
	if s.trackHosts {
		s.byHost[ev.Host] = s.byHost[ev.Host].add(ev)
	}
	return nil
}

func (c Counters) add(ev domain.LookupEvent) Counters {
	if ev.Resolved {
		c.Resolved++
		c.Addrs += int64(ev.Addrs)
	} else {
		c.Failed++
	}
	return c
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Gated devolve apenas os lookups que passaram pelo portão de admissão.
func (s *MemoryStatsStore) Gated() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gated
}

func (s *MemoryStatsStore) ByHost() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byHost))
	for k, v := range s.byHost {
		out[k] = v
	}
	return out
}

// MultiStatsStore repassa cada evento para todos os stores, juntando os erros.
type MultiStatsStore []domain.StatsStore

func (m MultiStatsStore) Record(ctx context.Context, ev domain.LookupEvent) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return joinErrors(errs)
}
