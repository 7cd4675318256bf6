package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"endpoint-resolver/logger"
	"endpoint-resolver/resolver"
	"endpoint-resolver/resolver/infra"

	"github.com/mitchellh/cli"
)

const (
	exitSuccess    = 0
	exitResolution = 1
	exitUsage      = 2
)

var (
	_ cli.Command = (*HostsCommand)(nil)
	_ cli.Command = (*ResolveCommand)(nil)
	_ cli.Command = (*WeightedCommand)(nil)
	_ cli.Command = (*PublicCommand)(nil)
)

// baseCommand concentra flags e construção do resolvedor comuns a todos os comandos.
type baseCommand struct {
	ui cli.Ui

	capacity  int
	dnsServer string
	logLevel  string
}

func (b *baseCommand) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.IntVar(&b.capacity, "capacity", infra.DefaultCapacity, "maximum concurrent weighted lookups")
	fs.StringVar(&b.dnsServer, "dns-server", "", "query this DNS server instead of the system resolver")
	fs.StringVar(&b.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	return fs
}

// parse devolve a especificação (argumentos restantes unidos por espaço).
func (b *baseCommand) parse(name string, args []string) (string, int) {
	fs := b.flagSet(name)
	if err := fs.Parse(args); err != nil {
		b.ui.Error(err.Error())
		return "", exitUsage
	}
	if fs.NArg() == 0 {
		b.ui.Error("missing host specification")
		return "", exitUsage
	}
	if err := logger.Initialize(b.logLevel, "text"); err != nil {
		b.ui.Error(err.Error())
		return "", exitUsage
	}
	return strings.Join(fs.Args(), " "), exitSuccess
}

func (b *baseCommand) resolver() *resolver.Resolver {
	opts := []resolver.Option{resolver.WithCapacity(b.capacity)}
	if b.dnsServer != "" {
		lookup := infra.NewDNSLookup(b.dnsServer)
		opts = append(opts, resolver.WithLookup(lookup), resolver.WithLocalHost(infra.NewHostnameLocalHost(lookup)))
	}
	return resolver.New(opts...)
}

func (b *baseCommand) fail(err error) int {
	b.ui.Error(err.Error())
	if errors.Is(err, resolver.ErrMalformedSpec) {
		return exitUsage
	}
	return exitResolution
}

const commonFlags = `
Options:

  -capacity=<n>        Maximum concurrent weighted lookups (default 100).
  -dns-server=<addr>   Query this DNS server instead of the system resolver.
  -log-level=<level>   Log level (default warn).
`

type HostsCommand struct{ *baseCommand }

func (c *HostsCommand) Synopsis() string { return "Parse a host spec into endpoints without resolving" }

func (c *HostsCommand) Help() string {
	return strings.TrimSpace(`
Usage: resolve hosts [options] <spec>

  Parses "host:port" tokens (comma or space separated). ":*" means any
  address on an OS-assigned port. Hostnames are printed unresolved.
` + commonFlags)
}

func (c *HostsCommand) Run(args []string) int {
	spec, code := c.parse("hosts", args)
	if code != exitSuccess {
		return code
	}
	eps, err := resolver.ParseHosts(spec)
	if err != nil {
		return c.fail(err)
	}
	for _, ep := range eps {
		c.ui.Output(ep.String())
	}
	return exitSuccess
}

type ResolveCommand struct{ *baseCommand }

func (c *ResolveCommand) Synopsis() string { return "Resolve host:port tokens to the set of endpoints" }

func (c *ResolveCommand) Help() string {
	return strings.TrimSpace(`
Usage: resolve resolve [options] <spec>

  Resolves every hostname to all of its addresses. This path is not
  bounded by -capacity; use "weighted" for large inputs.
` + commonFlags)
}

func (c *ResolveCommand) Run(args []string) int {
	spec, code := c.parse("resolve", args)
	if code != exitSuccess {
		return code
	}
	hps, err := resolver.ParseHostPorts(spec)
	if err != nil {
		return c.fail(err)
	}
	set, err := c.resolver().ResolveHostPorts(context.Background(), hps)
	if err != nil {
		return c.fail(err)
	}
	for _, ep := range set.Sorted() {
		c.ui.Output(ep.String())
	}
	return exitSuccess
}

type WeightedCommand struct{ *baseCommand }

func (c *WeightedCommand) Synopsis() string {
	return "Resolve host:port:weight tokens under the lookup gate"
}

func (c *WeightedCommand) Help() string {
	return strings.TrimSpace(`
Usage: resolve weighted [options] <spec>

  Resolves "host:port[:weight]" tokens with at most -capacity lookups in
  flight. Output keeps input order; any unknown host fails the whole run.
` + commonFlags)
}

func (c *WeightedCommand) Run(args []string) int {
	spec, code := c.parse("weighted", args)
	if code != exitSuccess {
		return code
	}
	triples, err := resolver.ParseWeightedHostPorts(spec)
	if err != nil {
		return c.fail(err)
	}
	weps, err := c.resolver().ResolveWeightedHostPorts(context.Background(), triples)
	if err != nil {
		return c.fail(err)
	}
	for _, w := range weps {
		c.ui.Output(fmt.Sprintf("%s\t%g", w.String(), w.Weight))
	}
	return exitSuccess
}

type PublicCommand struct{ *baseCommand }

func (c *PublicCommand) Synopsis() string { return "Show the advertised form of a bind address" }

func (c *PublicCommand) Help() string {
	return strings.TrimSpace(`
Usage: resolve public [options] <addr>

  Replaces a wildcard bind address (0.0.0.0 or an empty host) with this
  machine's address, falling back to loopback.
` + commonFlags)
}

func (c *PublicCommand) Run(args []string) int {
	spec, code := c.parse("public", args)
	if code != exitSuccess {
		return code
	}
	eps, err := resolver.ParseHosts(spec)
	if err != nil {
		return c.fail(err)
	}
	r := c.resolver()
	for _, ep := range eps {
		c.ui.Output(r.ToPublic(ep).String())
	}
	return exitSuccess
}
