package domain

import (
	"context"
	"net/netip"
)

// Lookup é a primitiva síncrona de resolução de nomes.
//
// Pode devolver zero, um ou vários endereços. Falhas devem satisfazer
// errors.Is(err, ErrUnknownHost).
type Lookup interface {
	LookupNetIP(ctx context.Context, host string) ([]netip.Addr, error)
}

// LookupFunc adapta uma função comum para Lookup.
type LookupFunc func(ctx context.Context, host string) ([]netip.Addr, error)

func (f LookupFunc) LookupNetIP(ctx context.Context, host string) ([]netip.Addr, error) {
	return f(ctx, host)
}

// LocalHost devolve o endereço da máquina local (identidade usada para anunciar o serviço).
// Falhas devem satisfazer errors.Is(err, ErrUnknownHost).
type LocalHost interface {
	CurrentHostAddress() (netip.Addr, error)
}
