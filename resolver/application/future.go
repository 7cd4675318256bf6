package application

import (
	"context"

	"github.com/hashicorp/go-multierror"
)

// Future é o handle de um trabalho assíncrono. Completa exatamente uma vez.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// complete deve ser chamado uma única vez por future.
func (f *Future[T]) complete(val T, err error) {
	f.val, f.err = val, err
	close(f.done)
}

// Go executa fn (possivelmente bloqueante) em uma goroutine própria.
// Limpezas obrigatórias ficam em defer dentro de fn.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
		var (
			val T
			err error
		)
		defer func() { f.complete(val, err) }()
		val, err = fn()
	}()
	return f
}

// Completed devolve um future já resolvido.
func Completed[T any](val T, err error) *Future[T] {
	f := newFuture[T]()
	f.complete(val, err)
	return f
}

func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait bloqueia até o future completar.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.val, f.err
}

// Await é como Wait, mas desiste de esperar quando ctx encerra.
// O trabalho em si continua até o fim.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Gather junta N futures em um só.
//
// Sempre espera todos completarem (mesmo após a primeira falha), e a saída segue a
// ordem de entrada, não a ordem de conclusão. Se algum falhou, o resultado é um
// *multierror.Error com as falhas na ordem de entrada e nenhum valor parcial.
func Gather[T any](fs []*Future[T]) *Future[[]T] {
	return Go(func() ([]T, error) {
		out := make([]T, len(fs))
		var merr *multierror.Error
		for i, f := range fs {
			v, err := f.Wait()
			if err != nil {
				merr = multierror.Append(merr, err)
				continue
			}
			out[i] = v
		}
		if err := merr.ErrorOrNil(); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// Flatten concatena as fatias mantendo a ordem.
func Flatten[T any](parts [][]T) []T {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]T, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
