package resolver

import (
	"context"
	"time"

	"endpoint-resolver/logger"
	"endpoint-resolver/resolver/application"
	"endpoint-resolver/resolver/domain"
	"endpoint-resolver/resolver/infra"

	"github.com/sirupsen/logrus"
)

type (
	HostPort         = domain.HostPort
	WeightedHostPort = domain.WeightedHostPort
	Endpoint         = domain.Endpoint
	WeightedEndpoint = domain.WeightedEndpoint
	EndpointSet      = domain.EndpointSet
)

var (
	ErrMalformedSpec = domain.ErrMalformedSpec
	ErrUnknownHost   = domain.ErrUnknownHost
)

// Resolver é o ponto de entrada público. Cada instância tem o seu próprio portão
// de admissão; não há estado global compartilhado entre instâncias.
type Resolver struct {
	svc  *application.Service
	adv  application.Advertiser
	gate *infra.Gate
}

type options struct {
	capacity       int
	acquireTimeout time.Duration
	lookup         domain.Lookup
	local          domain.LocalHost
	stats          domain.StatsStore
	statsTimeout   time.Duration
	metrics        *infra.Metrics
	log            *logrus.Entry
}

type Option func(*options)

// WithCapacity define quantos lookups ponderados podem rodar ao mesmo tempo (padrão 100).
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithAcquireTimeout limita quanto tempo uma tripla espera na fila do portão.
// O padrão (0) é esperar até o ctx de quem chamou encerrar.
func WithAcquireTimeout(d time.Duration) Option {
	return func(o *options) { o.acquireTimeout = d }
}

func WithLookup(l domain.Lookup) Option {
	return func(o *options) { o.lookup = l }
}

func WithLocalHost(h domain.LocalHost) Option {
	return func(o *options) { o.local = h }
}

func WithStats(s domain.StatsStore) Option {
	return func(o *options) { o.stats = s }
}

// WithStatsTimeout limita cada gravação de estatística (padrão 2s).
func WithStatsTimeout(d time.Duration) Option {
	return func(o *options) { o.statsTimeout = d }
}

// WithMetrics instrumenta o portão e os lookups.
func WithMetrics(m *infra.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithLogger(e *logrus.Entry) Option {
	return func(o *options) { o.log = e }
}

func New(opts ...Option) *Resolver {
	o := options{capacity: infra.DefaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}

	if o.log == nil {
		o.log = logger.Component("resolver")
	}
	if o.lookup == nil {
		o.lookup = infra.NewSystemLookup()
	}
	if o.local == nil {
		o.local = infra.NewHostnameLocalHost(o.lookup)
	}
	var gateOpts []infra.GateOption
	if o.metrics != nil {
		gateOpts = append(gateOpts, infra.WithGateMetrics(o.metrics))
	}
	gate := infra.NewGate(o.capacity, gateOpts...)
	stats := o.stats
	if o.metrics != nil {
		stats = infra.MultiStatsStore{o.stats, o.metrics}
	}

	return &Resolver{
		svc: &application.Service{
			Gate:         application.ConcurrencyService{Pool: gate, AcquireTimeout: o.acquireTimeout},
			Lookup:       o.lookup,
			Stats:        stats,
			StatsTimeout: o.statsTimeout,
			Log:          o.log,
		},
		adv: application.Advertiser{
			Local: o.local,
			Log:   o.log.WithField("component", "advertiser"),
		},
		gate: gate,
	}
}

// ParseHostPorts interpreta "host:port" separados por espaço ou vírgula.
func ParseHostPorts(text string) ([]HostPort, error) { return domain.ParseHostPorts(text) }

// ParseHosts interpreta a especificação em endpoints sem resolver nomes (":*" = curinga).
func ParseHosts(text string) ([]Endpoint, error) { return domain.ParseHosts(text) }

// ParseWeightedHostPorts interpreta "host:port[:weight]".
func ParseWeightedHostPorts(text string) ([]WeightedHostPort, error) {
	return domain.ParseWeightedHostPorts(text)
}

// ToPublic troca o endereço curinga pelo endereço da máquina (loopback se desconhecido).
func (r *Resolver) ToPublic(ep Endpoint) Endpoint { return r.adv.ToPublic(ep) }

// ResolveHostPorts resolve sem passar pelo portão: use apenas com entradas pequenas
// e confiáveis. Para entradas grandes ou vindas de fora, use ResolveWeightedHostPorts.
func (r *Resolver) ResolveHostPorts(ctx context.Context, hps []HostPort) (EndpointSet, error) {
	return r.svc.ResolveHostPorts(ctx, hps)
}

// ResolveWeightedHostPorts resolve sob o portão e bloqueia até todas as triplas terminarem.
func (r *Resolver) ResolveWeightedHostPorts(ctx context.Context, triples []WeightedHostPort) ([]WeightedEndpoint, error) {
	return r.svc.ResolveWeightedHostPorts(ctx, triples)
}

// ResolveWeightedHostPortsAsync devolve imediatamente um future do lote.
func (r *Resolver) ResolveWeightedHostPortsAsync(ctx context.Context, triples []WeightedHostPort) *application.Future[[]WeightedEndpoint] {
	return r.svc.ResolveWeightedHostPortsAsync(ctx, triples)
}

// InFlight devolve quantos lookups ponderados seguram vaga no portão agora.
func (r *Resolver) InFlight() int { return r.gate.InFlight() }

// Capacity devolve a capacidade do portão de lookups.
func (r *Resolver) Capacity() int { return r.gate.Capacity() }
