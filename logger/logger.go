// Package logger fornece logging estruturado (logrus) para o resolvedor e seus binários.
// Suporta formatos JSON e texto e campos estruturados.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	log *logrus.Logger
	mu  sync.RWMutex
)

func init() {
	log = logrus.New()
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stderr)
}

// Initialize reconfigura o logger global.
//   - level: debug, info, warn, error
//   - format: json, text
func Initialize(level, format string) error {
	return InitializeTo(level, format, os.Stderr)
}

// InitializeTo é como Initialize, mas escreve em out (útil em testes).
func InitializeTo(level, format string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	l := logrus.New()
	l.SetLevel(lvl)
	switch format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		return fmt.Errorf("invalid log format %q: must be json or text", format)
	}
	l.SetOutput(out)

	mu.Lock()
	log = l
	mu.Unlock()
	return nil
}

func current() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// WithFields devolve uma entry com campos estruturados:
//
//	logger.WithFields(logrus.Fields{
//	    "component": "resolver",
//	    "host":      "cache-01",
//	}).Debug("lookup done")
func WithFields(fields logrus.Fields) *logrus.Entry {
	return current().WithFields(fields)
}

// WithField devolve uma entry com um único campo.
func WithField(key string, value interface{}) *logrus.Entry {
	return current().WithField(key, value)
}

// WithError devolve uma entry com o campo de erro.
func WithError(err error) *logrus.Entry {
	return current().WithError(err)
}

// Component é o atalho usado pelos pacotes: WithField("component", name).
func Component(name string) *logrus.Entry {
	return WithField("component", name)
}
