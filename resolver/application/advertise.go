package application

import (
	"net/netip"

	"endpoint-resolver/logger"
	"endpoint-resolver/resolver/domain"

	"github.com/sirupsen/logrus"
)

// Advertiser converte endpoints de bind em endpoints anunciáveis.
type Advertiser struct {
	Local domain.LocalHost
	Log   *logrus.Entry
}

// ToPublic troca o endereço curinga (0.0.0.0 / ::) pelo endereço da máquina local,
// mantendo a porta. Se a identidade local não puder ser determinada, usa loopback.
// Qualquer outro endpoint volta inalterado.
func (a Advertiser) ToPublic(ep domain.Endpoint) domain.Endpoint {
	if !ep.IsUnspecified() {
		return ep
	}

	log := a.log().WithField("port", ep.Port)
	addr, err := a.currentHostAddress()
	if err != nil {
		addr = loopbackFor(ep.Addr)
		log.WithError(err).Warnf("local host address unknown, advertising %s", addr)
		return domain.ResolvedEndpoint(addr, ep.Port)
	}

	log.WithField("addr", addr.String()).Debug("replaced wildcard bind address")
	return domain.ResolvedEndpoint(addr, ep.Port)
}

func (a Advertiser) currentHostAddress() (netip.Addr, error) {
	if a.Local == nil {
		return netip.Addr{}, domain.UnknownHost("localhost", nil)
	}
	addr, err := a.Local.CurrentHostAddress()
	if err != nil {
		return netip.Addr{}, domain.UnknownHost("localhost", err)
	}
	if !addr.IsValid() {
		return netip.Addr{}, domain.UnknownHost("localhost", nil)
	}
	return addr, nil
}

func loopbackFor(wildcard netip.Addr) netip.Addr {
	if wildcard.Is6() {
		return netip.IPv6Loopback()
	}
	return netip.AddrFrom4([4]byte{127, 0, 0, 1})
}

func (a Advertiser) log() *logrus.Entry {
	if a.Log != nil {
		return a.Log
	}
	return logger.Component("advertiser")
}
