package application

import (
	"time"

	"endpoint-resolver/resolver/domain"
)

// LimitService decide se um cliente da API pode fazer mais uma requisição.
//
// Não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type LimitService struct {
	Store      domain.LimiterStore
	RetryAfter time.Duration
}

func (s LimitService) Decide(key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}

	lim := s.Store.Get(key)
	if lim == nil || lim.Allow() {
		return domain.Decision{Allowed: true}
	}
	return domain.Decision{Allowed: false, RetryAfter: s.RetryAfter}
}
