package infra

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"endpoint-resolver/resolver/domain"

	"github.com/miekg/dns"
	"golang.org/x/time/rate"
)

// DNSLookup consulta diretamente um servidor DNS (registros A e AAAA), sem passar
// pelo resolvedor do sistema. Útil quando o serviço precisa de um nameserver dedicado.
type DNSLookup struct {
	server  string
	client  *dns.Client
	tcp     *dns.Client // repetição de respostas truncadas
	limiter *rate.Limiter
}

type DNSLookupOption func(*DNSLookup)

// WithQueryRate limita as consultas enviadas ao servidor (token bucket).
// qps <= 0 desliga o limite.
func WithQueryRate(qps float64, burst int) DNSLookupOption {
	return func(l *DNSLookup) {
		if qps <= 0 {
			l.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		l.limiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
}

// WithDNSClient troca o cliente (ex: Net "tcp" para consultar sempre via TCP).
// Respostas UDP truncadas são repetidas via TCP com os mesmos timeouts.
func WithDNSClient(c *dns.Client) DNSLookupOption {
	return func(l *DNSLookup) { l.client = c }
}

// NewDNSLookup cria um lookup contra server ("host" ou "host:port"; porta 53 por padrão).
func NewDNSLookup(server string, opts ...DNSLookupOption) *DNSLookup {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	l := &DNSLookup{
		server: server,
		client: &dns.Client{Net: "udp"},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.tcp = &dns.Client{
		Net:          "tcp",
		Dialer:       l.client.Dialer,
		Timeout:      l.client.Timeout,
		DialTimeout:  l.client.DialTimeout,
		ReadTimeout:  l.client.ReadTimeout,
		WriteTimeout: l.client.WriteTimeout,
	}
	return l
}

func (l *DNSLookup) Server() string { return l.server }

// LookupNetIP implementa domain.Lookup. IPs literais voltam sem consulta.
//
// São feitas duas consultas (A e AAAA). Respostas truncadas (TC) são repetidas via TCP.
// NXDOMAIN em qualquer uma delas vira ErrUnknownHost. Outras falhas (SERVFAIL, timeout)
// só derrubam o lookup se nenhuma das consultas trouxe endereços: um AAAA quebrado não
// invalida os registros A já obtidos. NOERROR sem respostas devolve zero endereços.
func (l *DNSLookup) LookupNetIP(ctx context.Context, host string) ([]netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{addr.Unmap()}, nil
	}
	if host == "" {
		return nil, domain.UnknownHost(host, errors.New("empty hostname"))
	}

	fqdn := dns.Fqdn(host)
	var (
		out      []netip.Addr
		firstErr error
	)
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		in, err := l.query(ctx, fqdn, qtype)
		if err == nil && in.Rcode != dns.RcodeSuccess {
			if in.Rcode == dns.RcodeNameError {
				return nil, domain.UnknownHost(host, fmt.Errorf("NXDOMAIN from %s", l.server))
			}
			err = fmt.Errorf("%s for %s from %s", dns.RcodeToString[in.Rcode], dns.TypeToString[qtype], l.server)
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		for _, rr := range in.Answer {
			switch v := rr.(type) {
			case *dns.A:
				if a, ok := netip.AddrFromSlice(v.A); ok {
					out = append(out, a.Unmap())
				}
			case *dns.AAAA:
				if a, ok := netip.AddrFromSlice(v.AAAA); ok {
					out = append(out, a)
				}
			}
		}
	}
	if firstErr != nil && len(out) == 0 {
		return nil, domain.UnknownHost(host, firstErr)
	}
	return out, nil
}

// query envia uma pergunta e, se a resposta vier truncada, repete via TCP.
func (l *DNSLookup) query(ctx context.Context, fqdn string, qtype uint16) (*dns.Msg, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	q := new(dns.Msg)
	q.SetQuestion(fqdn, qtype)
	q.RecursionDesired = true

	in, _, err := l.client.ExchangeContext(ctx, q, l.server)
	if err != nil {
		return nil, err
	}
	if !in.Truncated || l.client.Net == "tcp" || l.client.Net == "tcp-tls" {
		return in, nil
	}

	in, _, err = l.tcp.ExchangeContext(ctx, q, l.server)
	if err != nil {
		return nil, fmt.Errorf("tcp retry after truncated reply: %w", err)
	}
	return in, nil
}
