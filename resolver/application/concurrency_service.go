package application

import (
	"context"
	"time"

	"endpoint-resolver/resolver/domain"
)

// ConcurrencyService concentra a regra de aquisição/liberação de vagas,
// sem saber nada sobre DNS ou HTTP.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir uma vaga.
// - Se `AcquireTimeout <= 0`, espera indefinidamente (até ctx cancelar).
// - Se `AcquireTimeout > 0`, espera até o timeout.
// Retorna (release, ok). Se ok=false, nenhuma vaga foi adquirida.
func (s ConcurrencyService) Acquire(ctx context.Context) (func(), bool) {
	if s.Pool == nil {
		return func() {}, true
	}

	if s.AcquireTimeout <= 0 {
		return s.Pool.Acquire(ctx)
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.AcquireTimeout)
	defer cancel()
	return s.Pool.Acquire(acqCtx)
}

// With executa fn segurando uma vaga. A vaga é devolvida em qualquer saída de fn,
// inclusive erro ou panic.
func (s ConcurrencyService) With(ctx context.Context, fn func() error) error {
	release, ok := s.Acquire(ctx)
	if !ok {
		if err := ctx.Err(); err != nil {
			return err
		}
		return context.DeadlineExceeded
	}
	defer release()
	return fn()
}
