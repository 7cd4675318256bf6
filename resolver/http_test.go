package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"endpoint-resolver/resolver/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() http.Handler {
	lookup := domain.LookupFunc(func(_ context.Context, host string) ([]netip.Addr, error) {
		switch host {
		case "a":
			return []netip.Addr{netip.MustParseAddr("10.0.0.1")}, nil
		case "b":
			return []netip.Addr{netip.MustParseAddr("10.0.0.2"), netip.MustParseAddr("10.0.0.3")}, nil
		}
		return nil, errors.New("no such host")
	})
	r := New(
		WithLookup(lookup),
		WithLocalHost(staticLocalHost{addr: netip.MustParseAddr("192.168.10.2")}),
	)
	return NewHandler(r)
}

func serve(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, []endpointJSON) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out []endpointJSON
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestHandler_Hosts(t *testing.T) {
	w, out := serve(t, newTestHandler(), http.MethodGet, "/v1/hosts?spec=:*", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []endpointJSON{{Address: "0.0.0.0", Port: 0}}, out)

	w, out = serve(t, newTestHandler(), http.MethodGet, "/v1/hosts?spec=svc:80", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []endpointJSON{{Host: "svc", Port: 80}}, out)
}

func TestHandler_Resolve(t *testing.T) {
	w, out := serve(t, newTestHandler(), http.MethodGet, "/v1/resolve?spec=b:9,a:9", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []endpointJSON{
		{Address: "10.0.0.1", Port: 9},
		{Address: "10.0.0.2", Port: 9},
		{Address: "10.0.0.3", Port: 9},
	}, out)
}

func TestHandler_ErrorMapping(t *testing.T) {
	h := newTestHandler()

	w, _ := serve(t, h, http.MethodGet, "/v1/resolve?spec=a", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = serve(t, h, http.MethodGet, "/v1/resolve?spec=zzz:1", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "unknown host")

	w, _ = serve(t, h, http.MethodPost, "/v1/resolve/weighted", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Weighted(t *testing.T) {
	h := newTestHandler()

	w, out := serve(t, h, http.MethodGet, "/v1/resolve/weighted?spec=b:1:0.25,a:2", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, out, 3)
	assert.Equal(t, "10.0.0.2", out[0].Address)
	assert.Equal(t, 0.25, *out[0].Weight)
	assert.Equal(t, "10.0.0.1", out[2].Address)
	assert.Equal(t, 1.0, *out[2].Weight)

	w, out = serve(t, h, http.MethodPost, "/v1/resolve/weighted", `[{"host":"a","port":5,"weight":2}]`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, out, 1)
	assert.Equal(t, 5, out[0].Port)
	assert.Equal(t, 2.0, *out[0].Weight)
}

func TestHandler_Advertise(t *testing.T) {
	w, out := serve(t, newTestHandler(), http.MethodGet, "/v1/advertise?addr=:8443", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []endpointJSON{{Address: "192.168.10.2", Port: 8443}}, out)
}

func TestHandler_WeightedRejectsOutOfRangePorts(t *testing.T) {
	h := newTestHandler()

	for _, body := range []string{
		`[{"host":"a","port":70000,"weight":1}]`,
		`[{"host":"a","port":1,"weight":1},{"host":"b","port":-3,"weight":1}]`,
	} {
		w, _ := serve(t, h, http.MethodPost, "/v1/resolve/weighted", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), "port out of range", body)
	}

	w, out := serve(t, h, http.MethodPost, "/v1/resolve/weighted", `[{"host":"a","port":65535,"weight":1}]`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, out, 1)
	assert.Equal(t, 65535, out[0].Port)
}
