package resolver

import (
	"net/http"
	"time"

	"endpoint-resolver/logger"
	"endpoint-resolver/resolver/application"
	"endpoint-resolver/resolver/infra"
)

// ConcurrencyOptions limita quantas requisições HTTP o resolvedor atende ao mesmo tempo.
// É independente do portão de lookups: protege o servidor, não o DNS.
type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
}

func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	log := logger.Component("concurrency")
	svc := application.ConcurrencyService{
		Pool:           infra.NewGate(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := svc.With(r.Context(), func() error {
				next.ServeHTTP(w, r)
				return nil
			})
			if err != nil {
				log.WithError(err).WithField("path", r.URL.Path).Debug("no request slot available")
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
			}
		})
	}
}
