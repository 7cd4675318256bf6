package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"endpoint-resolver/logger"
	"endpoint-resolver/resolver"
	"endpoint-resolver/resolver/domain"
	"endpoint-resolver/resolver/infra"

	"github.com/kelseyhightower/envconfig"
	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type config struct {
	ListenAddr    string `envconfig:"LISTEN_ADDR" default:":8080"`
	AdvertiseAddr string `envconfig:"ADVERTISE_ADDR"`

	LookupCapacity int           `envconfig:"LOOKUP_CAPACITY" default:"100"`
	LookupMode     string        `envconfig:"LOOKUP_MODE" default:"system"`
	DNSServer      string        `envconfig:"DNS_SERVER"`
	DNSNet         string        `envconfig:"DNS_NET" default:"udp"`
	PreferGo       bool          `envconfig:"SYSTEM_PREFER_GO" default:"false"`
	DNSQPS         float64       `envconfig:"DNS_QPS" default:"0"`
	DNSBurst       int           `envconfig:"DNS_BURST" default:"10"`
	QueueTimeout   time.Duration `envconfig:"QUEUE_TIMEOUT" default:"0"`

	LocalAddrSource string `envconfig:"LOCAL_ADDR_SOURCE" default:"hostname"`

	RateEnabled bool          `envconfig:"RATE_ENABLED" default:"true"`
	RateRPS     float64       `envconfig:"RATE_RPS" default:"10"`
	RateBurst   int           `envconfig:"RATE_BURST" default:"20"`
	RateHeader  string        `envconfig:"RATE_KEY_HEADER"`
	TrustXFF    bool          `envconfig:"TRUST_XFF" default:"false"`
	RetryAfter  time.Duration `envconfig:"RETRY_AFTER" default:"1s"`

	ConcurrencyMax     int           `envconfig:"CONCURRENCY_MAX" default:"100"`
	ConcurrencyTimeout time.Duration `envconfig:"CONCURRENCY_TIMEOUT" default:"0"`

	StatsEnabled       bool          `envconfig:"STATS_ENABLED" default:"false"`
	StatsRedisAddr     string        `envconfig:"STATS_REDIS_ADDR"`
	StatsRedisPassword string        `envconfig:"STATS_REDIS_PASSWORD"`
	StatsRedisDB       int           `envconfig:"STATS_REDIS_DB" default:"0"`
	StatsPrefix        string        `envconfig:"STATS_PREFIX" default:"resolver:stats"`
	StatsTTL           time.Duration `envconfig:"STATS_TTL" default:"24h"`
	StatsBucket        string        `envconfig:"STATS_BUCKET" default:"minute"`
	StatsTimeout       time.Duration `envconfig:"STATS_TIMEOUT" default:"2s"`
	StatsTrackHosts    bool          `envconfig:"STATS_TRACK_HOSTS" default:"false"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

func main() {
	cfg, err := readConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(2)
	}
	log := logger.Component("resolverd")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := infra.NewRegistry()
	metrics := infra.NewMetrics("")
	if err := metrics.Register(registry); err != nil {
		log.WithError(err).Fatal("metrics registration failed")
	}

	lookup := newLookup(cfg)
	opts := []resolver.Option{
		resolver.WithCapacity(cfg.LookupCapacity),
		resolver.WithAcquireTimeout(cfg.QueueTimeout),
		resolver.WithLookup(lookup),
		resolver.WithLocalHost(newLocalHost(cfg, lookup)),
		resolver.WithMetrics(metrics),
		resolver.WithStatsTimeout(cfg.StatsTimeout),
		resolver.WithLogger(logger.Component("resolver")),
	}

	if cfg.StatsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.StatsRedisAddr,
			Password: cfg.StatsRedisPassword,
			DB:       cfg.StatsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		pingCancel()
		if err != nil {
			log.WithError(err).Fatal("redis stats ping failed")
		}

		opts = append(opts, resolver.WithStats(infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.StatsPrefix),
			infra.WithStatsTTL(cfg.StatsTTL),
			infra.WithStatsBucket(cfg.StatsBucket),
			infra.WithStatsTrackHosts(cfg.StatsTrackHosts),
		)))
	}

	res := resolver.New(opts...)

	store := infra.NewStore(cfg.RateRPS, cfg.RateBurst)
	store.StartJanitor(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	api := resolver.NewHandler(res)
	api = resolver.ConcurrencyMiddleware(resolver.ConcurrencyOptions{
		Max:            cfg.ConcurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.ConcurrencyTimeout,
	})(api)
	if cfg.RateEnabled {
		api = resolver.RateLimitMiddleware(resolver.RateLimitOptions{
			Store:              store,
			KeyHeader:          cfg.RateHeader,
			TrustXForwardedFor: cfg.TrustXFF,
			RetryAfter:         cfg.RetryAfter,
		})(api)
	}
	mux.Handle("/v1/", api)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.WithField("inFlightLookups", res.InFlight()).Info("shutting down")
		_ = srv.Shutdown(shutdownCtx)
	}()

	advertised := advertise(res, cfg)
	log.WithFields(logrus.Fields{
		"listen":    cfg.ListenAddr,
		"advertise": advertised,
	}).Info("resolverd listening")
	log.WithFields(logrus.Fields{
		"capacity":     res.Capacity(),
		"mode":         cfg.LookupMode,
		"dnsServer":    cfg.DNSServer,
		"dnsNet":       cfg.DNSNet,
		"queueTimeout": cfg.QueueTimeout,
	}).Info("lookup gate")
	log.WithFields(logrus.Fields{
		"enabled":   cfg.RateEnabled,
		"rps":       cfg.RateRPS,
		"burst":     cfg.RateBurst,
		"keyHeader": cfg.RateHeader,
		"trustXFF":  cfg.TrustXFF,
	}).Info("rate limit")
	log.WithFields(logrus.Fields{
		"enabled":   cfg.StatsEnabled,
		"redisAddr": cfg.StatsRedisAddr,
		"ttl":       cfg.StatsTTL,
		"bucket":    cfg.StatsBucket,
	}).Info("lookup stats")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server error")
	}
}

func readConfig() (config, error) {
	var cfg config
	if err := envconfig.Process("RESOLVER", &cfg); err != nil {
		return config{}, err
	}

	cfg.LookupMode = strings.ToLower(strings.TrimSpace(cfg.LookupMode))
	cfg.LocalAddrSource = strings.ToLower(strings.TrimSpace(cfg.LocalAddrSource))
	cfg.DNSNet = strings.ToLower(strings.TrimSpace(cfg.DNSNet))
	cfg.StatsBucket = strings.ToLower(strings.TrimSpace(cfg.StatsBucket))
	if cfg.AdvertiseAddr == "" {
		cfg.AdvertiseAddr = cfg.ListenAddr
	}

	switch cfg.LookupMode {
	case "system":
	case "dns":
		if strings.TrimSpace(cfg.DNSServer) == "" {
			return config{}, errors.New("RESOLVER_DNS_SERVER is required when RESOLVER_LOOKUP_MODE=dns")
		}
	default:
		return config{}, fmt.Errorf("RESOLVER_LOOKUP_MODE must be system or dns, got %q", cfg.LookupMode)
	}
	switch cfg.LocalAddrSource {
	case "hostname", "interface":
	default:
		return config{}, fmt.Errorf("RESOLVER_LOCAL_ADDR_SOURCE must be hostname or interface, got %q", cfg.LocalAddrSource)
	}

	switch cfg.DNSNet {
	case "udp", "tcp":
	default:
		return config{}, fmt.Errorf("RESOLVER_DNS_NET must be udp or tcp, got %q", cfg.DNSNet)
	}
	switch cfg.StatsBucket {
	case "minute", "none":
	default:
		return config{}, fmt.Errorf("RESOLVER_STATS_BUCKET must be minute or none, got %q", cfg.StatsBucket)
	}

	if cfg.StatsEnabled && strings.TrimSpace(cfg.StatsRedisAddr) == "" {
		return config{}, errors.New("RESOLVER_STATS_REDIS_ADDR is required when RESOLVER_STATS_ENABLED=true")
	}
	if cfg.LookupCapacity <= 0 {
		return config{}, errors.New("RESOLVER_LOOKUP_CAPACITY must be > 0")
	}
	if cfg.RateEnabled && cfg.RateRPS <= 0 {
		return config{}, errors.New("RESOLVER_RATE_RPS must be > 0")
	}
	if cfg.RateEnabled && cfg.RateBurst <= 0 {
		return config{}, errors.New("RESOLVER_RATE_BURST must be > 0")
	}
	if cfg.ConcurrencyMax < 0 {
		return config{}, errors.New("RESOLVER_CONCURRENCY_MAX must be >= 0")
	}
	return cfg, nil
}

func newLookup(cfg config) domain.Lookup {
	if cfg.LookupMode == "dns" {
		return infra.NewDNSLookup(cfg.DNSServer,
			infra.WithQueryRate(cfg.DNSQPS, cfg.DNSBurst),
			infra.WithDNSClient(&dns.Client{Net: cfg.DNSNet}),
		)
	}
	if cfg.PreferGo {
		return infra.NewSystemLookupWith(&net.Resolver{PreferGo: true})
	}
	return infra.NewSystemLookup()
}

func newLocalHost(cfg config, lookup domain.Lookup) domain.LocalHost {
	if cfg.LocalAddrSource == "interface" {
		return infra.InterfaceLocalHost{}
	}
	return infra.NewHostnameLocalHost(lookup)
}

// advertise devolve o endereço anunciável para ADVERTISE_ADDR (0.0.0.0 vira o IP da máquina).
func advertise(res *resolver.Resolver, cfg config) string {
	eps, err := resolver.ParseHosts(cfg.AdvertiseAddr)
	if err != nil || len(eps) == 0 {
		return cfg.AdvertiseAddr
	}
	return res.ToPublic(eps[0]).String()
}
