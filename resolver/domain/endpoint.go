package domain

import (
	"cmp"
	"net"
	"net/netip"
	"slices"
	"strconv"
)

// HostPort é um par (hostname, porta) ainda não resolvido.
type HostPort struct {
	Host string
	Port int
}

func (hp HostPort) String() string { return net.JoinHostPort(hp.Host, strconv.Itoa(hp.Port)) }

// WeightedHostPort acrescenta um peso ao HostPort.
//
// O peso é repassado sem validação: zero ou negativo é erro de quem chama.
type WeightedHostPort struct {
	Host   string
	Port   int
	Weight float64
}

// Endpoint é um endereço de rede + porta. É um tipo de valor comparável
// (pode ser chave de map).
//
//   - resolvido: Addr válido, Host vazio
//   - curinga: Addr é 0.0.0.0 (ou ::)
//   - não resolvido: Addr inválido, Host guarda o hostname literal
type Endpoint struct {
	Addr netip.Addr
	Port int
	Host string
}

// AnyEndpoint devolve o endpoint curinga (todas as interfaces) na porta dada.
// Porta 0 significa porta escolhida pelo sistema operacional.
func AnyEndpoint(port int) Endpoint {
	return Endpoint{Addr: netip.IPv4Unspecified(), Port: port}
}

// ResolvedEndpoint cria um endpoint a partir de um endereço já resolvido.
func ResolvedEndpoint(addr netip.Addr, port int) Endpoint {
	return Endpoint{Addr: addr.Unmap(), Port: port}
}

// UnresolvedEndpoint guarda o hostname sem resolvê-lo.
func UnresolvedEndpoint(host string, port int) Endpoint {
	return Endpoint{Host: host, Port: port}
}

func (e Endpoint) IsUnresolved() bool { return !e.Addr.IsValid() }

func (e Endpoint) IsUnspecified() bool { return e.Addr.IsValid() && e.Addr.IsUnspecified() }

func (e Endpoint) String() string {
	host := e.Host
	if !e.IsUnresolved() {
		host = e.Addr.String()
	}
	return net.JoinHostPort(host, strconv.Itoa(e.Port))
}

// WeightedEndpoint associa um endpoint resolvido ao peso da sua origem.
type WeightedEndpoint struct {
	Endpoint
	Weight float64
}

// EndpointSet é um conjunto de endpoints (duplicados colapsam).
type EndpointSet map[Endpoint]struct{}

func NewEndpointSet(eps ...Endpoint) EndpointSet {
	s := make(EndpointSet, len(eps))
	for _, ep := range eps {
		s.Add(ep)
	}
	return s
}

func (s EndpointSet) Add(ep Endpoint) { s[ep] = struct{}{} }

func (s EndpointSet) Contains(ep Endpoint) bool {
	_, ok := s[ep]
	return ok
}

func (s EndpointSet) Len() int { return len(s) }

// Sorted devolve os endpoints ordenados por endereço e porta (saída estável para logs/JSON).
func (s EndpointSet) Sorted() []Endpoint {
	out := make([]Endpoint, 0, len(s))
	for ep := range s {
		out = append(out, ep)
	}
	slices.SortFunc(out, compareEndpoints)
	return out
}

func compareEndpoints(a, b Endpoint) int {
	if c := a.Addr.Compare(b.Addr); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Port, b.Port); c != 0 {
		return c
	}
	return cmp.Compare(a.Host, b.Host)
}
