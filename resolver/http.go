package resolver

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"endpoint-resolver/logger"
	"endpoint-resolver/resolver/domain"
)

type endpointJSON struct {
	Address string   `json:"address"`
	Host    string   `json:"host,omitempty"`
	Port    int      `json:"port"`
	Weight  *float64 `json:"weight,omitempty"`
}

type tripleJSON struct {
	Host   string  `json:"host"`
	Port   int     `json:"port"`
	Weight float64 `json:"weight"`
}

type errorJSON struct {
	Error string `json:"error"`
}

// NewHandler expõe o resolvedor por HTTP:
//
//	GET  /v1/hosts?spec=...            endpoints sem resolução (ParseHosts)
//	GET  /v1/resolve?spec=...          ResolveHostPorts
//	GET  /v1/resolve/weighted?spec=... ResolveWeightedHostPorts (host:port[:weight])
//	POST /v1/resolve/weighted          idem, corpo JSON [{host,port,weight}]
//	GET  /v1/advertise?addr=...        ParseHosts + ToPublic
//
// Middlewares (limite de concorrência, rate limit) ficam a cargo de quem monta o servidor.
func NewHandler(r *Resolver) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/hosts", func(w http.ResponseWriter, req *http.Request) {
		eps, err := ParseHosts(specParam(req, "spec"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEndpointJSON(eps))
	})

	mux.HandleFunc("GET /v1/resolve", func(w http.ResponseWriter, req *http.Request) {
		hps, err := ParseHostPorts(specParam(req, "spec"))
		if err != nil {
			writeError(w, err)
			return
		}
		set, err := r.ResolveHostPorts(req.Context(), hps)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEndpointJSON(set.Sorted()))
	})

	mux.HandleFunc("GET /v1/resolve/weighted", func(w http.ResponseWriter, req *http.Request) {
		triples, err := ParseWeightedHostPorts(specParam(req, "spec"))
		if err != nil {
			writeError(w, err)
			return
		}
		r.serveWeighted(w, req, triples)
	})

	mux.HandleFunc("POST /v1/resolve/weighted", func(w http.ResponseWriter, req *http.Request) {
		var in []tripleJSON
		dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, 1<<20))
		if err := dec.Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid JSON body: " + err.Error()})
			return
		}
		triples, err := triplesFromJSON(in)
		if err != nil {
			writeError(w, err)
			return
		}
		r.serveWeighted(w, req, triples)
	})

	mux.HandleFunc("GET /v1/advertise", func(w http.ResponseWriter, req *http.Request) {
		eps, err := ParseHosts(specParam(req, "addr"))
		if err != nil {
			writeError(w, err)
			return
		}
		for i, ep := range eps {
			eps[i] = r.ToPublic(ep)
		}
		writeJSON(w, http.StatusOK, toEndpointJSON(eps))
	})

	return mux
}

func (r *Resolver) serveWeighted(w http.ResponseWriter, req *http.Request, triples []WeightedHostPort) {
	weps, err := r.ResolveWeightedHostPorts(req.Context(), triples)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]endpointJSON, 0, len(weps))
	for _, wep := range weps {
		e := endpointFromDomain(wep.Endpoint)
		weight := wep.Weight
		e.Weight = &weight
		out = append(out, e)
	}
	writeJSON(w, http.StatusOK, out)
}

// triplesFromJSON aplica ao corpo JSON as mesmas regras de porta do parser de texto.
func triplesFromJSON(in []tripleJSON) ([]WeightedHostPort, error) {
	triples := make([]WeightedHostPort, 0, len(in))
	for _, t := range in {
		if !domain.ValidPort(t.Port) {
			return nil, &domain.SpecError{
				Token:  net.JoinHostPort(t.Host, strconv.Itoa(t.Port)),
				Reason: "port out of range",
			}
		}
		triples = append(triples, WeightedHostPort{Host: t.Host, Port: t.Port, Weight: t.Weight})
	}
	return triples, nil
}

func specParam(req *http.Request, name string) string {
	return strings.TrimSpace(req.URL.Query().Get(name))
}

func toEndpointJSON(eps []Endpoint) []endpointJSON {
	out := make([]endpointJSON, 0, len(eps))
	for _, ep := range eps {
		out = append(out, endpointFromDomain(ep))
	}
	return out
}

func endpointFromDomain(ep Endpoint) endpointJSON {
	e := endpointJSON{Port: ep.Port, Host: ep.Host}
	if !ep.IsUnresolved() {
		e.Address = ep.Addr.String()
	}
	return e
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrMalformedSpec):
		status = http.StatusBadRequest
	case errors.Is(err, ErrUnknownHost):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		logger.Component("http").WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorJSON{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
