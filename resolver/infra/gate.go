package infra

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultCapacity é o número padrão de lookups simultâneos permitidos.
const DefaultCapacity = 100

// Gate é um semáforo contador com capacidade fixa e atendimento FIFO:
// quem bloqueou primeiro é o primeiro a receber a vaga liberada.
// Implementa domain.SlotPool.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int
	inFlight atomic.Int64
	metrics  *Metrics
}

type GateOption func(*Gate)

// WithGateMetrics publica ocupação e espera do portão nas métricas dadas.
func WithGateMetrics(m *Metrics) GateOption {
	return func(g *Gate) { g.metrics = m }
}

// NewGate cria um portão com capacidade `max` (DefaultCapacity se max <= 0).
// A capacidade não muda depois de criado.
func NewGate(max int, opts ...GateOption) *Gate {
	if max <= 0 {
		max = DefaultCapacity
	}
	g := &Gate{
		sem:      semaphore.NewWeighted(int64(max)),
		capacity: max,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.metrics != nil {
		g.metrics.GateCapacity.Set(float64(max))
	}
	return g
}

func (g *Gate) Capacity() int { return g.capacity }

// InFlight devolve quantas vagas estão ocupadas agora.
func (g *Gate) InFlight() int { return int(g.inFlight.Load()) }

// Acquire bloqueia até obter uma vaga ou até ctx encerrar.
// A função de release é idempotente e nunca bloqueia.
func (g *Gate) Acquire(ctx context.Context) (func(), bool) {
	start := time.Now()
	if g.metrics != nil {
		g.metrics.GateWaiting.Inc()
		defer g.metrics.GateWaiting.Dec()
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		if g.metrics != nil {
			g.metrics.GateAbandonedTotal.Inc()
		}
		return nil, false
	}

	g.inFlight.Add(1)
	if g.metrics != nil {
		g.metrics.GateInFlight.Inc()
		g.metrics.GateWaitSeconds.Observe(time.Since(start).Seconds())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.inFlight.Add(-1)
			if g.metrics != nil {
				g.metrics.GateInFlight.Dec()
			}
			g.sem.Release(1)
		})
	}, true
}
