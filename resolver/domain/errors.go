package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedSpec indica um token "host:port" que não tem exatamente dois campos
	// ou cuja porta não é um inteiro válido.
	ErrMalformedSpec = errors.New("malformed host spec")

	// ErrUnknownHost indica que a resolução de nome (ou da identidade local) falhou.
	ErrUnknownHost = errors.New("unknown host")
)

// SpecError carrega o token problemático de uma especificação.
type SpecError struct {
	Token  string
	Reason string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("%s: %q: %s", ErrMalformedSpec, e.Token, e.Reason)
}

func (e *SpecError) Is(target error) bool { return target == ErrMalformedSpec }

// LookupError embrulha a falha de resolução de um hostname.
type LookupError struct {
	Host string
	Err  error
}

func (e *LookupError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrUnknownHost, e.Host)
	}
	return fmt.Sprintf("%s: %s: %v", ErrUnknownHost, e.Host, e.Err)
}

func (e *LookupError) Is(target error) bool { return target == ErrUnknownHost }

func (e *LookupError) Unwrap() error { return e.Err }

// UnknownHost cria um *LookupError para host. Se err já for um ErrUnknownHost,
// ele é devolvido sem novo embrulho.
func UnknownHost(host string, err error) error {
	var le *LookupError
	if errors.As(err, &le) {
		return err
	}
	return &LookupError{Host: host, Err: err}
}
