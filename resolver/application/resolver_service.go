package application

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"endpoint-resolver/logger"
	"endpoint-resolver/resolver/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Service resolve especificações host:port em endpoints.
//
// Há dois caminhos com capacidades diferentes:
//   - ResolveHostPorts: síncrono e SEM portão (chamadores confiáveis, poucas entradas);
//   - ResolveWeightedHostPorts(Async): cada lookup ocupa uma vaga de Gate.Pool.
//
// Um lookup já emitido não é cancelado nem tem timeout aqui: um lookup travado
// segura sua vaga até terminar.
type Service struct {
	Gate   ConcurrencyService
	Lookup domain.Lookup
	Stats  domain.StatsStore
	Log    *logrus.Entry

	// StatsTimeout limita cada gravação em Stats (DefaultStatsTimeout se <= 0).
	// A gravação acontece depois que a vaga do portão foi devolvida.
	StatsTimeout time.Duration
}

// DefaultStatsTimeout é o prazo padrão de uma gravação de estatística.
const DefaultStatsTimeout = 2 * time.Second

// ResolveHostPorts resolve cada tupla para todos os seus endereços e une tudo em um
// conjunto. A primeira falha interrompe e é devolvida (ErrUnknownHost), sem resultado parcial.
func (s *Service) ResolveHostPorts(ctx context.Context, hps []domain.HostPort) (domain.EndpointSet, error) {
	set := domain.NewEndpointSet()
	for _, hp := range hps {
		res := s.lookup(ctx, hp.Host, false)
		s.record(ctx, res)
		if res.err != nil {
			return nil, res.err
		}
		for _, addr := range res.addrs {
			set.Add(domain.ResolvedEndpoint(addr, hp.Port))
		}
	}
	return set, nil
}

// ResolveWeightedHostPorts é a versão bloqueante de ResolveWeightedHostPortsAsync.
func (s *Service) ResolveWeightedHostPorts(ctx context.Context, triples []domain.WeightedHostPort) ([]domain.WeightedEndpoint, error) {
	return s.ResolveWeightedHostPortsAsync(ctx, triples).Wait()
}

// ResolveWeightedHostPortsAsync resolve as triplas sob o portão de admissão.
//
// As vagas são pedidas na ordem de entrada; cada lookup roda na sua goroutine e
// devolve a vaga ao terminar, com sucesso ou falha. O future agregado só completa
// depois que todas as triplas completaram. Se alguma falhou, o agregado falha
// (ErrUnknownHost) e os resultados das demais são descartados. Em caso de sucesso, a
// saída segue a ordem das triplas e, dentro de cada uma, a ordem dos endereços.
//
// ctx limita apenas a espera por vaga: uma tripla ainda na fila quando ctx encerra
// falha com o erro do contexto.
func (s *Service) ResolveWeightedHostPortsAsync(ctx context.Context, triples []domain.WeightedHostPort) *Future[[]domain.WeightedEndpoint] {
	if len(triples) == 0 {
		return Completed([]domain.WeightedEndpoint{}, nil)
	}

	log := s.log().WithFields(logrus.Fields{
		"batch":   uuid.NewString(),
		"triples": len(triples),
	})

	pending := make([]*Future[[]domain.WeightedEndpoint], len(triples))
	for i := range pending {
		pending[i] = newFuture[[]domain.WeightedEndpoint]()
	}
	go s.admit(ctx, triples, pending, log)

	all := Gather(pending)
	return Go(func() ([]domain.WeightedEndpoint, error) {
		parts, err := all.Wait()
		if err != nil {
			log.WithError(err).Debug("weighted batch failed")
			return nil, err
		}
		out := Flatten(parts)
		log.WithField("endpoints", len(out)).Debug("weighted batch resolved")
		return out, nil
	})
}

// admit pede uma vaga por tripla, em ordem, e dispara o lookup quando ela é concedida.
func (s *Service) admit(ctx context.Context, triples []domain.WeightedHostPort, pending []*Future[[]domain.WeightedEndpoint], log *logrus.Entry) {
	lookupCtx := context.WithoutCancel(ctx)
	for i, t := range triples {
		release, ok := s.Gate.Acquire(ctx)
		if !ok {
			err := ctx.Err()
			if err == nil {
				err = context.DeadlineExceeded
			}
			log.WithField("host", t.Host).WithError(err).Debug("gave up waiting for lookup slot")
			pending[i].complete(nil, fmt.Errorf("waiting for lookup slot for %s: %w", t.Host, err))
			continue
		}

		go func(f *Future[[]domain.WeightedEndpoint], t domain.WeightedHostPort) {
			res := func() lookupResult {
				defer release()
				return s.lookup(lookupCtx, t.Host, true)
			}()
			s.record(lookupCtx, res)
			f.complete(weighted(res, t))
		}(pending[i], t)
	}
}

func weighted(res lookupResult, t domain.WeightedHostPort) ([]domain.WeightedEndpoint, error) {
	if res.err != nil {
		return nil, res.err
	}
	out := make([]domain.WeightedEndpoint, 0, len(res.addrs))
	for _, addr := range res.addrs {
		out = append(out, domain.WeightedEndpoint{
			Endpoint: domain.ResolvedEndpoint(addr, t.Port),
			Weight:   t.Weight,
		})
	}
	return out, nil
}

// lookupResult é o desfecho de um lookup, guardado para a estatística ser gravada
// depois que a vaga do portão já voltou.
type lookupResult struct {
	host    string
	addrs   []netip.Addr
	err     error
	gated   bool
	start   time.Time
	elapsed time.Duration
}

func (s *Service) lookup(ctx context.Context, host string, gated bool) lookupResult {
	res := lookupResult{host: host, gated: gated, start: time.Now()}
	res.addrs, res.err = s.Lookup.LookupNetIP(ctx, host)
	res.elapsed = time.Since(res.start)
	if res.err != nil {
		res.addrs = nil
		res.err = domain.UnknownHost(host, res.err)
	}

	log := s.log().WithFields(logrus.Fields{"host": host, "addrs": len(res.addrs)})
	if res.err != nil {
		log.WithError(res.err).Debug("lookup failed")
	} else {
		log.Debug("lookup done")
	}
	return res
}

// record grava a estatística do lookup (best-effort, com prazo de StatsTimeout).
func (s *Service) record(ctx context.Context, res lookupResult) {
	if s.Stats == nil {
		return
	}
	timeout := s.StatsTimeout
	if timeout <= 0 {
		timeout = DefaultStatsTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ev := domain.LookupEvent{
		Host:     res.host,
		Resolved: res.err == nil,
		Addrs:    len(res.addrs),
		Gated:    res.gated,
		Elapsed:  res.elapsed,
		At:       res.start,
	}
	if err := s.Stats.Record(ctx, ev); err != nil {
		s.log().WithField("host", res.host).WithError(err).Debug("stats record failed")
	}
}

func (s *Service) log() *logrus.Entry {
	if s.Log != nil {
		return s.Log
	}
	return logger.Component("resolver")
}
