package infra

import (
	"context"
	"errors"
	"net/netip"
	"os"

	"endpoint-resolver/resolver/domain"

	sockaddr "github.com/hashicorp/go-sockaddr"
)

// HostnameLocalHost descobre o endereço local resolvendo o hostname da máquina.
type HostnameLocalHost struct {
	lookup   domain.Lookup
	hostname func() (string, error)
}

func NewHostnameLocalHost(lookup domain.Lookup) *HostnameLocalHost {
	return &HostnameLocalHost{lookup: lookup, hostname: os.Hostname}
}

// CurrentHostAddress implementa domain.LocalHost: primeiro endereço do hostname local.
func (h *HostnameLocalHost) CurrentHostAddress() (netip.Addr, error) {
	name, err := h.hostname()
	if err != nil {
		return netip.Addr{}, domain.UnknownHost("", err)
	}
	addrs, err := h.lookup.LookupNetIP(context.Background(), name)
	if err != nil {
		return netip.Addr{}, domain.UnknownHost(name, err)
	}
	if len(addrs) == 0 {
		return netip.Addr{}, domain.UnknownHost(name, errors.New("no addresses"))
	}
	return addrs[0], nil
}

// InterfaceLocalHost escolhe o endereço pelas interfaces de rede (go-sockaddr):
// primeiro um IP privado, senão um IP público.
type InterfaceLocalHost struct{}

func (InterfaceLocalHost) CurrentHostAddress() (netip.Addr, error) {
	ip, err := sockaddr.GetPrivateIP()
	if err != nil {
		return netip.Addr{}, domain.UnknownHost("", err)
	}
	if ip == "" {
		if ip, err = sockaddr.GetPublicIP(); err != nil {
			return netip.Addr{}, domain.UnknownHost("", err)
		}
	}
	if ip == "" {
		return netip.Addr{}, domain.UnknownHost("", errors.New("no usable interface address"))
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return netip.Addr{}, domain.UnknownHost(ip, err)
	}
	return addr.Unmap(), nil
}
