package domain

import (
	"context"
	"time"
)

// LookupEvent representa o resultado de uma resolução de nome.
//
// Observação: cuidado com cardinalidade ao persistir Host (ex.: Redis/Prometheus).
type LookupEvent struct {
	Host     string
	Resolved bool
	Addrs    int

	// Gated indica que o lookup passou pelo portão de admissão.
	Gated   bool
	Elapsed time.Duration

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas de resolução.
//
// O resolvedor trata erro como best-effort (não derruba a resolução).
type StatsStore interface {
	Record(ctx context.Context, ev LookupEvent) error
}
