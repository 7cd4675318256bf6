package infra

import (
	"context"
	"net"
	"net/netip"

	"endpoint-resolver/resolver/domain"
)

// SystemLookup resolve nomes com o resolvedor do sistema (net.Resolver),
// respeitando /etc/hosts e a configuração local de DNS.
type SystemLookup struct {
	resolver *net.Resolver
}

func NewSystemLookup() *SystemLookup {
	return &SystemLookup{resolver: net.DefaultResolver}
}

// NewSystemLookupWith usa um net.Resolver específico (ex: PreferGo ou Dial customizado).
func NewSystemLookupWith(r *net.Resolver) *SystemLookup {
	if r == nil {
		r = net.DefaultResolver
	}
	return &SystemLookup{resolver: r}
}

// LookupNetIP implementa domain.Lookup. Endereços IPv4 mapeados em IPv6 são desmapeados.
func (l *SystemLookup) LookupNetIP(ctx context.Context, host string) ([]netip.Addr, error) {
	addrs, err := l.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, domain.UnknownHost(host, err)
	}
	out := make([]netip.Addr, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.Unmap())
	}
	return out, nil
}
