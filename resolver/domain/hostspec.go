package domain

import (
	"net/netip"
	"strconv"
	"strings"
)

// WildcardSpec é o token especial "qualquer endereço, porta escolhida pelo SO".
const WildcardSpec = ":*"

const maxPort = 65535

// ValidPort informa se port está em [0, 65535]. Porta 0 significa "escolhida pelo SO".
func ValidPort(port int) bool { return port >= 0 && port <= maxPort }

// ParseHostPorts interpreta uma lista de tokens "host:port" separados por espaço ou vírgula.
//
// Tokens vazios são ignorados. Um token que não tem exatamente dois campos, ou cuja
// porta não é inteira (ou está fora de [0, 65535]), falha com ErrMalformedSpec.
// Um host vazio (":80") é aceito e significa "qualquer endereço".
func ParseHostPorts(text string) ([]HostPort, error) {
	tokens := splitTokens(text)
	out := make([]HostPort, 0, len(tokens))
	for _, tok := range tokens {
		fields := strings.Split(tok, ":")
		if len(fields) != 2 {
			return nil, &SpecError{Token: tok, Reason: "expected host:port"}
		}
		port, err := parsePort(tok, fields[1])
		if err != nil {
			return nil, err
		}
		out = append(out, HostPort{Host: fields[0], Port: port})
	}
	return out, nil
}

// ParseHosts é como ParseHostPorts, mas devolve endpoints prontos para bind/anúncio.
//
// ":*" (sozinho) vira um único endpoint curinga na porta 0, ignorando o resto.
// Host vazio vira o endereço curinga; IP literal vira endpoint resolvido; qualquer
// outro hostname fica não resolvido (a resolução é adiada).
func ParseHosts(text string) ([]Endpoint, error) {
	if strings.TrimSpace(text) == WildcardSpec {
		return []Endpoint{AnyEndpoint(0)}, nil
	}

	hps, err := ParseHostPorts(text)
	if err != nil {
		return nil, err
	}

	out := make([]Endpoint, 0, len(hps))
	for _, hp := range hps {
		switch {
		case hp.Host == "":
			out = append(out, AnyEndpoint(hp.Port))
		default:
			if addr, err := netip.ParseAddr(hp.Host); err == nil {
				out = append(out, ResolvedEndpoint(addr, hp.Port))
				continue
			}
			out = append(out, UnresolvedEndpoint(hp.Host, hp.Port))
		}
	}
	return out, nil
}

// ParseWeightedHostPorts aceita tokens "host:port" ou "host:port:weight".
// Sem peso, assume 1.0. Usado pelas superfícies HTTP/CLI; o núcleo recebe as
// triplas já interpretadas.
func ParseWeightedHostPorts(text string) ([]WeightedHostPort, error) {
	tokens := splitTokens(text)
	out := make([]WeightedHostPort, 0, len(tokens))
	for _, tok := range tokens {
		fields := strings.Split(tok, ":")
		if len(fields) != 2 && len(fields) != 3 {
			return nil, &SpecError{Token: tok, Reason: "expected host:port[:weight]"}
		}
		port, err := parsePort(tok, fields[1])
		if err != nil {
			return nil, err
		}
		weight := 1.0
		if len(fields) == 3 {
			weight, err = strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, &SpecError{Token: tok, Reason: "weight is not a number"}
			}
		}
		out = append(out, WeightedHostPort{Host: fields[0], Port: port, Weight: weight})
	}
	return out, nil
}

func splitTokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return r == ' ' || r == ',' })
}

func parsePort(tok, field string) (int, error) {
	port, err := strconv.Atoi(field)
	if err != nil {
		return 0, &SpecError{Token: tok, Reason: "port is not an integer"}
	}
	if !ValidPort(port) {
		return 0, &SpecError{Token: tok, Reason: "port out of range"}
	}
	return port, nil
}
