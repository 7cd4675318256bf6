package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"endpoint-resolver/resolver/domain"

	"github.com/redis/go-redis/v9"
)

type RedisStatsStore struct {
	rdb *redis.Client

	prefix string
	// ttl aplica apenas em chaves de série temporal / por host.
	// total é cumulativo e não expira.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"

	trackHosts bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackHosts(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackHosts = track }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "resolver:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record grava o evento em hashes: total, bucket por minuto e (opcional) por host.
// Campos: "resolved"/"failed" e "addrs".
func (s *RedisStatsStore) Record(ctx context.Context, ev domain.LookupEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := "failed"
	if ev.Resolved {
		field = "resolved"
	}

	pipe := s.rdb.Pipeline()
	incr := func(key string, expire bool) {
		pipe.HIncrBy(ctx, key, field, 1)
		if ev.Resolved && ev.Addrs > 0 {
			pipe.HIncrBy(ctx, key, "addrs", int64(ev.Addrs))
		}
		if expire && s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}

	incr(s.prefix+":total", false)
	if ev.Gated {
		incr(s.prefix+":gated", false)
	}

	if s.bucket == "minute" {
		incr(fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504")), true)
	}

	if s.trackHosts {
		if h := strings.ToLower(strings.TrimSpace(ev.Host)); h != "" {
			incr(s.prefix+":host:"+h, true)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}
